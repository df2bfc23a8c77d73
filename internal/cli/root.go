package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cliauth "github.com/shopfront-dev/shopfront/internal/cli/auth"
	"github.com/shopfront-dev/shopfront/internal/cli/commands"
	"github.com/shopfront-dev/shopfront/internal/cli/session"
	"github.com/shopfront-dev/shopfront/internal/cli/userconfig"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree around one session context
func NewRootCmd() *cobra.Command {
	var gatewayFlag string
	sc := &session.Context{}

	rootCmd := &cobra.Command{
		Use:   "shopfront",
		Short: "shopfront - storefront from the terminal",
		Long: `shopfront CLI - Browse the catalog and manage products through the shopfront gateway.

The token is kept in the OS keychain; the user snapshot in ~/.config/shopfront/session.json.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			gateway, err := userconfig.ResolveGateway(gatewayFlag)
			if err != nil {
				return err
			}
			store, err := session.DefaultFileStore()
			if err != nil {
				return err
			}
			*sc = *session.NewContext(gateway, cliauth.Default, store)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&gatewayFlag, "gateway", "", "Gateway URL (or set SHOPFRONT_URL)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "shopfront version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewLoginCmd(sc))
	rootCmd.AddCommand(commands.NewRegisterCmd(sc))
	rootCmd.AddCommand(commands.NewLogoutCmd(sc))
	rootCmd.AddCommand(commands.NewWhoamiCmd(sc))
	rootCmd.AddCommand(commands.NewProductsCmd(sc))
	rootCmd.AddCommand(commands.NewOpenCmd(sc))
	rootCmd.AddCommand(commands.NewUseCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
