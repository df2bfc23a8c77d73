package commands

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/shopfront-dev/shopfront/internal/auth"
	"github.com/shopfront-dev/shopfront/internal/cli/session"
)

// NewOpenCmd creates the open command
func NewOpenCmd(sc *session.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open the storefront in the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := startPage(sc)
			fmt.Fprintf(cmd.OutOrStdout(), "Opening %s...\n", target)

			if err := openBrowser(target); err != nil {
				return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, target)
			}
			return nil
		},
	}

	return cmd
}

// startPage is the login page for guests, otherwise the role's landing page
func startPage(sc *session.Context) string {
	profile := sc.Profile()
	if profile == nil {
		return sc.Gateway + "/auth/login"
	}
	return sc.Gateway + auth.LandingPath(profile)
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}
