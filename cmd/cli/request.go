package cli

import (
	"errors"
	"fmt"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/vaultgate/sdk/go/vaultclient"
)

func newRequestCommand(opts *options) *cobra.Command {
	requestCmd := &cobra.Command{
		Use:   "request",
		Short: "Create, poll and list login approval requests",
	}
	requestCmd.AddCommand(
		newRequestCreateCommand(opts),
		newRequestPollCommand(opts),
		newRequestListCommand(opts),
	)
	return requestCmd
}

func newRequestCreateCommand(opts *options) *cobra.Command {
	in := &vaultclient.CreateAuthRequestInput{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Ask a signed-in device to approve this device's login",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			created, err := client.CreateAuthRequest(cmd.Context(), in)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Request ID:   %s\n", created.ID)
			fmt.Fprintf(out, "Fingerprint:  %s\n", created.Fingerprint)
			fmt.Fprintf(out, "Access code:  %s\n", created.AccessCode)
			fmt.Fprintf(out, "Expires:      %s\n", printTime(created.ExpirationDate))
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "account", "", "email of the account to sign in to")
	cmd.Flags().StringVar(&in.PublicKey, "public-key", "", "base64 public key of this device")
	cmd.Flags().StringVar(&in.DeviceIdentifier, "device-id", "", "stable identifier of this device")
	cmd.Flags().StringVar(&in.Platform, "platform", cliPlatform(), "device type")
	cmd.Flags().StringVar(&in.OriginURL, "origin", "", "origin URL shown to the approver")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("public-key")
	_ = cmd.MarkFlagRequired("device-id")
	return cmd
}

func newRequestPollCommand(opts *options) *cobra.Command {
	var (
		accessCode string
		interval   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "poll <request-id>",
		Short: "Wait until a request is approved, declined or expires",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				req, err := client.GetAuthRequestResponse(ctx, args[0], accessCode)
				switch {
				case errors.Is(err, vaultclient.ErrNotFound):
					return fmt.Errorf("request %s expired or does not exist", args[0])
				case err != nil:
					return err
				case req.RequestApproved != nil && *req.RequestApproved:
					fmt.Fprintln(cmd.OutOrStdout(), "Login approved")
					return nil
				case req.RequestApproved != nil:
					return fmt.Errorf("login declined")
				}

				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
				}
			}
		},
	}

	cmd.Flags().StringVar(&accessCode, "code", "", "access code returned by request create")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "poll interval")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func newRequestListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending requests for the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			requests, err := client.ListAuthRequests(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFINGERPRINT\tDEVICE\tIP\tCREATED")
			for _, r := range requests {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Fingerprint, r.Platform, r.IPAddress, printTime(r.CreationDate))
			}
			return tw.Flush()
		},
	}
}

func cliPlatform() string {
	switch runtime.GOOS {
	case "windows":
		return "Windows CLI"
	case "darwin":
		return "macOS CLI"
	default:
		return "Linux CLI"
	}
}
