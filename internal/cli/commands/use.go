package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shopfront-dev/shopfront/internal/cli/userconfig"
)

// NewUseCmd creates the use command
func NewUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <gateway-url>",
		Short: "Set the default gateway",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validate.Var(args[0], "required,hostname_port|url"); err != nil {
				return fmt.Errorf("invalid gateway %q: expected a URL or host:port", args[0])
			}
			if err := userconfig.SetGateway(args[0]); err != nil {
				return err
			}
			gateway, err := userconfig.ResolveGateway("")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Default gateway set to %s\n", gateway)
			return nil
		},
	}
}
