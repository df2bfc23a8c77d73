package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/shopfront-dev/shopfront/internal/auth"
	"github.com/shopfront-dev/shopfront/internal/cli/client"
	"github.com/shopfront-dev/shopfront/internal/cli/session"
)

// NewLoginCmd creates the login command
func NewLoginCmd(sc *session.Context) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in through the shopfront gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd.Context(), cmd.OutOrStdout(), sc, client.AuthRequest{
				Type:     "login",
				Email:    email,
				Password: password,
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set SHOPFRONT_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set SHOPFRONT_PASSWORD, will prompt if not provided)")

	return cmd
}

// NewRegisterCmd creates the register command
func NewRegisterCmd(sc *session.Context) *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd.Context(), cmd.OutOrStdout(), sc, client.AuthRequest{
				Type:     "register",
				Email:    email,
				Password: password,
				Name:     name,
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set SHOPFRONT_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set SHOPFRONT_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")

	return cmd
}

func runAuth(ctx context.Context, out io.Writer, sc *session.Context, req client.AuthRequest) error {
	// Check for environment variables (useful for CI/CD)
	if req.Email == "" {
		req.Email = os.Getenv("SHOPFRONT_EMAIL")
	}
	if req.Password == "" {
		req.Password = os.Getenv("SHOPFRONT_PASSWORD")
	}

	if req.Email == "" {
		if !stdinIsTerminal() {
			return fmt.Errorf("email is required (use --email flag or SHOPFRONT_EMAIL env var)")
		}
		email, err := promptEmail()
		if err != nil {
			return err
		}
		req.Email = email
	}

	if req.Password == "" {
		if !stdinIsTerminal() {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or SHOPFRONT_PASSWORD env var)")
		}
		fmt.Fprint(out, "Password: ")
		bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		req.Password = string(bytePassword)
	}

	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("invalid input: %w", validationError(err))
	}

	fmt.Fprintf(out, "Signing in to %s...\n", sc.Gateway)

	result, err := newClient(sc).Authenticate(ctx, req)
	if err != nil {
		return fmt.Errorf("%s failed: %w", req.Type, err)
	}
	if result.Token == "" {
		return fmt.Errorf("%s failed: gateway returned no token", req.Type)
	}

	if err := sc.Establish(result.Token, result.User, result.UserCookie); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	profile := sc.Profile()
	fmt.Fprintln(out, "✓ Login successful!")
	if profile != nil {
		fmt.Fprintf(out, "  User: %s (%s)\n", profile.Name, profile.Email)
		if sc.IsAdmin() {
			fmt.Fprintln(out, "  Role: Admin")
		}
	}
	fmt.Fprintf(out, "  Start page: %s\n", auth.LandingPath(profile))

	return nil
}

func promptEmail() (string, error) {
	prompt := promptui.Prompt{
		Label: "Email",
		Validate: func(input string) error {
			if err := validate.Var(input, "required,email"); err != nil {
				return errors.New("enter a valid email address")
			}
			return nil
		},
	}
	email, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("email prompt cancelled: %w", err)
	}
	return email, nil
}
