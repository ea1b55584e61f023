package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/turtacn/vaultgate/sdk/go/vaultclient"
)

const (
	keyServerURL = "server"
	keyToken     = "token"
	keyTimeout   = "timeout"
	keyEmail     = "email"
)

// options carries the resolved persistent flags. Each value may also come from a
// VAULTGATE_* environment variable.
type options struct {
	settings *viper.Viper
}

func (o *options) client() (*vaultclient.Client, error) {
	return vaultclient.New(
		o.settings.GetString(keyServerURL),
		vaultclient.WithToken(o.settings.GetString(keyToken)),
		vaultclient.WithTimeout(o.settings.GetDuration(keyTimeout)),
	)
}

func (o *options) requireToken() error {
	if o.settings.GetString(keyToken) == "" {
		return fmt.Errorf("a bearer token is required: pass --token or set VAULTGATE_TOKEN")
	}
	return nil
}

// NewRootCommand builds the vaultgate command tree.
// NewRootCommand 构建 vaultgate 命令树。
func NewRootCommand() *cobra.Command {
	opts := &options{settings: viper.New()}
	opts.settings.SetEnvPrefix("VAULTGATE")
	opts.settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	opts.settings.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "vaultgate",
		Short: "Approve new-device logins and manage vault items from the command line.",
		Long: `vaultgate talks to a vaultgate server. A new device creates a login request and
polls for the answer; an already signed-in device lists pending requests and approves
or declines them after comparing the fingerprint phrase.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String(keyServerURL, "http://localhost:8080", "vaultgate server base URL")
	flags.String(keyToken, "", "bearer token of the signed-in account")
	flags.Duration(keyTimeout, vaultclient.DefaultTimeout, "per-request timeout")
	flags.String(keyEmail, "", "account email shown when a request omits it")
	for _, key := range []string{keyServerURL, keyToken, keyTimeout, keyEmail} {
		_ = opts.settings.BindPFlag(key, flags.Lookup(key))
	}

	rootCmd.AddCommand(
		newRequestCommand(opts),
		newApproveCommand(opts),
		newCiphersCommand(opts),
		newTokenCommand(),
	)
	return rootCmd
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func printTime(t time.Time) string {
	return t.Local().Format(time.RFC3339)
}
