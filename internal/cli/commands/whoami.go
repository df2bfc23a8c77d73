package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shopfront-dev/shopfront/internal/auth"
	"github.com/shopfront-dev/shopfront/internal/cli/session"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(sc *session.Context) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if remote {
				return runWhoamiRemote(cmd.Context(), cmd.OutOrStdout(), sc)
			}
			printProfile(cmd.OutOrStdout(), sc.Profile())
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Ask the gateway instead of trusting the local snapshot")

	return cmd
}

func runWhoamiRemote(ctx context.Context, out io.Writer, sc *session.Context) error {
	token := sc.OptionalToken()
	info, err := newClient(sc).Session(ctx, token)
	if err != nil {
		return sessionExpired(sc, err)
	}

	if !info.Authenticated {
		if token != "" {
			if err := sc.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(out, "Stored session is no longer valid and was cleared.")
		}
		printProfile(out, nil)
		return nil
	}

	printProfile(out, info.User)
	return nil
}

func printProfile(out io.Writer, p *auth.Profile) {
	if p == nil {
		fmt.Fprintln(out, "Not logged in (guest)")
		return
	}
	fmt.Fprintf(out, "Name:  %s\n", p.Name)
	fmt.Fprintf(out, "Email: %s\n", p.Email)
	fmt.Fprintf(out, "Role:  %s\n", p.Role)
	fmt.Fprintf(out, "Admin: %t\n", p.IsAdmin())
}
