package cli

import (
	"bufio"

	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/spf13/cobra"
)

// RootCmd creates the root command with all subcommands attached.
func (a *App) RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gophauth",
		Short: "gophauth account client",
		Long: `gophauth talks to a gophauth server: sign up, sign in, inspect the
current session and manage passwords. The signed-in session is kept in a
local file between invocations.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	var defaults config.Config
	defaults.LoadDefaults()

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "JSON config file path")
	flags.StringVarP(&a.overrides.ServerEndpointAddr, "address", "a", defaults.ServerEndpointAddr, "address and port of the gophauth server")
	flags.StringVarP(&a.overrides.SessionFile, "session", "s", defaults.SessionFile, "local session file")
	flags.DurationVarP(&a.overrides.CallTimeout, "timeout", "t", defaults.CallTimeout, "timeout for each server call")

	cmd.AddCommand(
		a.newSignUpCmd(),
		a.newSignInCmd(),
		a.newRefreshCmd(),
		a.newMeCmd(),
		a.newResetPasswordCmd(),
		a.newChangePasswordCmd(),
		a.newSignOutCmd(),
		a.newPingCmd(),
	)

	return cmd
}

// setup resolves configuration (defaults, JSON, then explicitly set flags)
// and connects.
func (a *App) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("address") {
		cfg.ServerEndpointAddr = a.overrides.ServerEndpointAddr
	}
	if flags.Changed("session") {
		cfg.SessionFile = a.overrides.SessionFile
	}
	if flags.Changed("timeout") {
		cfg.CallTimeout = a.overrides.CallTimeout
	}

	a.config = cfg
	a.reader = bufio.NewReader(cmd.InOrStdin())

	if a.auth != nil {
		return nil
	}

	a.auth, err = a.connect(cmd.Context(), cfg)
	return err
}
