package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/vaultgate/internal/approval"
)

var errDecisionFailed = errors.New("could not submit the decision, try again")

func newApproveCommand(opts *options) *cobra.Command {
	var decline, assumeYes bool

	cmd := &cobra.Command{
		Use:   "approve <fingerprint>",
		Short: "Approve or decline the login request shown under a fingerprint phrase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			vm := approval.NewViewModel(ctx, client, approval.Config{
				Fingerprint: args[0],
				Email:       opts.settings.GetString(keyEmail),
			})
			out := cmd.OutOrStdout()

			content, err := waitForContent(ctx, vm)
			if err != nil {
				return err
			}
			printContent(out, content)

			var action approval.Action = approval.ApproveRequestClick{}
			verb := "Approve"
			if decline {
				action, verb = approval.DeclineRequestClick{}, "Decline"
			}
			if !assumeYes && !confirm(cmd.InOrStdin(), out, verb+" this login? [y/N] ") {
				vm.Dispatch(approval.CloseClick{})
				return awaitOutcome(ctx, vm, out)
			}

			vm.Dispatch(action)
			return awaitOutcome(ctx, vm, out)
		},
	}

	cmd.Flags().BoolVar(&decline, "decline", false, "decline instead of approve")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func waitForContent(ctx context.Context, vm *approval.ViewModel) (approval.Content, error) {
	for {
		select {
		case <-ctx.Done():
			return approval.Content{}, ctx.Err()
		case state, ok := <-vm.StateUpdates():
			if !ok {
				return approval.Content{}, context.Canceled
			}
			switch view := state.ViewState.(type) {
			case approval.Loading:
			case approval.Content:
				return view, nil
			case approval.Error:
				return approval.Content{}, errors.New(view.Message)
			default:
				panic(fmt.Sprintf("cli: unhandled view state %T", view))
			}
		}
	}
}

// awaitOutcome prints events until the screen asks to navigate back or reports a failed submit.
func awaitOutcome(ctx context.Context, vm *approval.ViewModel, out io.Writer) error {
	updates := vm.StateUpdates()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-vm.Events():
			if !ok {
				return context.Canceled
			}
			switch e := event.(type) {
			case approval.ShowToast:
				fmt.Fprintln(out, e.Message)
			case approval.NavigateBack:
				return nil
			default:
				panic(fmt.Sprintf("cli: unhandled event %T", e))
			}
		case state, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			if state.ShouldShowErrorDialog {
				vm.Dispatch(approval.ErrorDialogDismiss{})
				return errDecisionFailed
			}
		}
	}
}

func printContent(out io.Writer, c approval.Content) {
	fmt.Fprintf(out, "Fingerprint:  %s\n", c.Fingerprint)
	fmt.Fprintf(out, "Account:      %s\n", c.Email)
	fmt.Fprintf(out, "Device:       %s\n", c.DeviceType)
	fmt.Fprintf(out, "Domain:       %s\n", c.Domain)
	fmt.Fprintf(out, "IP address:   %s\n", c.IPAddress)
	fmt.Fprintf(out, "Time:         %s\n", c.Time)
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
