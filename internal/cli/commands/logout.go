package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shopfront-dev/shopfront/internal/cli/session"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(sc *session.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the current session and forget it locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(cmd.Context(), cmd.OutOrStdout(), sc)
		},
	}
}

func runLogout(ctx context.Context, out io.Writer, sc *session.Context) error {
	if token, err := sc.Token(); err == nil {
		// Local state is cleared even when the gateway cannot be reached
		if err := newClient(sc).Logout(ctx, token); err != nil {
			fmt.Fprintf(out, "Warning: gateway logout failed: %v\n", err)
		}
	}

	if err := sc.Clear(); err != nil {
		return err
	}

	fmt.Fprintln(out, "✓ Logged out")
	return nil
}
