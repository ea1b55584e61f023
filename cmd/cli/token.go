package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/vaultgate/internal/config"
	domainservice "github.com/turtacn/vaultgate/internal/domain/service"
	"github.com/turtacn/vaultgate/internal/infrastructure/crypto"
	"github.com/turtacn/vaultgate/pkg/logger"
)

// newTokenCommand issues bearer tokens with the server's own signing key, for operators and local testing.
func newTokenCommand() *cobra.Command {
	var configFile, userID, email string

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue bearer tokens signed with the server key",
	}

	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Print a bearer token for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.LoadConfig(configFile)
			if err != nil {
				return err
			}
			log := logger.NewNoopLogger()
			keys, err := crypto.NewKeySource(cfg, domainservice.NoopMetrics{}, log)
			if err != nil {
				return err
			}

			token, err := crypto.NewJWTManager(keys, cfg.JWT, log).GenerateJWT(cmd.Context(), userID, email)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issueCmd.Flags().StringVarP(&configFile, "config", "c", "", "server config file")
	issueCmd.Flags().StringVar(&userID, "user", "", "account user id")
	issueCmd.Flags().StringVar(&email, "account", "", "account email")
	_ = issueCmd.MarkFlagRequired("user")
	_ = issueCmd.MarkFlagRequired("account")

	tokenCmd.AddCommand(issueCmd)
	return tokenCmd
}
