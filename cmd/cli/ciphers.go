package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/turtacn/vaultgate/internal/vaultlist"
	"github.com/turtacn/vaultgate/sdk/go/vaultclient"
)

func newCiphersCommand(opts *options) *cobra.Command {
	ciphersCmd := &cobra.Command{
		Use:     "ciphers",
		Aliases: []string{"items"},
		Short:   "List, show and delete vault items",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the account's vault items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			ciphers, err := client.ListCiphers(cmd.Context())
			if err != nil {
				return err
			}

			listing := vaultlist.Listing{
				Header: "Items",
				Rows:   vaultlist.RowsFromCiphers(ciphers),
			}
			return listing.Render(cmd.OutOrStdout())
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <cipher-id>",
		Short: "Select an item from the listing and print its details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			ciphers, err := client.ListCiphers(cmd.Context())
			if err != nil {
				return err
			}

			var selected *vaultclient.Cipher
			listing := vaultlist.Listing{
				Header: "Items",
				Rows:   vaultlist.RowsFromCiphers(ciphers),
				OnItemClick: func(id string) {
					selected, err = client.GetCipher(cmd.Context(), id)
				},
			}
			if !listing.Click(args[0]) {
				return fmt.Errorf("no vault item with id %s", args[0])
			}
			if err != nil {
				return err
			}
			return printCipher(cmd.OutOrStdout(), selected)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <cipher-id>",
		Short: "Move a vault item to the trash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireToken(); err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			if err := client.DeleteCipher(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	ciphersCmd.AddCommand(listCmd, showCmd, deleteCmd)
	return ciphersCmd
}

func printCipher(w io.Writer, c *vaultclient.Cipher) error {
	row := vaultlist.RowsFromCiphers([]*vaultclient.Cipher{c})[0]
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", c.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", c.Name)
	fmt.Fprintf(tw, "Type:\t%s\n", row.Icon)
	if row.Subtitle != "" {
		fmt.Fprintf(tw, "Detail:\t%s\n", row.Subtitle)
	}
	if c.Login != nil {
		for _, u := range c.Login.URIs {
			if u.URI != nil {
				fmt.Fprintf(tw, "URI:\t%s\n", *u.URI)
			}
		}
	}
	fmt.Fprintf(tw, "Favorite:\t%t\n", c.Favorite)
	fmt.Fprintf(tw, "Revised:\t%s\n", printTime(c.RevisionDate))
	return tw.Flush()
}
