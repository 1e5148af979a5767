// Package cli implements presentctl, a terminal client for managing and
// playing presentations.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/petermazzocco/go-presenter/internal/client"
	"github.com/spf13/cobra"
)

type App struct {
	Server    string
	Token     string
	TokenFile string
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".presentctl-token"
	}
	return filepath.Join(dir, "presentctl", "token")
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "presentctl",
		Short:        "Manage and play slide presentations",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Sign in once; the token is saved for later commands
  presentctl login --email you@example.com

  # Build a presentation
  presentctl create "Lobby screen" --public
  presentctl add <presentation-id> --file ./welcome.jpg --display 2
  presentctl move <presentation-id> 2 0

  # Play it in the terminal
  presentctl play <presentation-id>
`),
	}

	cmd.PersistentFlags().StringVar(&app.Server, "server", envOr("PRESENTCTL_SERVER", "http://localhost:3000"), "API base URL")
	cmd.PersistentFlags().StringVar(&app.Token, "token", envOr("PRESENTCTL_TOKEN", ""), "Bearer token (overrides the saved token)")
	cmd.PersistentFlags().StringVar(&app.TokenFile, "token-file", envOr("PRESENTCTL_TOKEN_FILE", defaultTokenFile()), "Where login stores the token")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newCreateCmd(app))
	cmd.AddCommand(newUpdateCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newMoveCmd(app))
	cmd.AddCommand(newUploadCmd(app))
	cmd.AddCommand(newPlayCmd(app))
	return cmd
}

// client returns an API client using the flag token or the saved one.
func (a *App) client() (*client.Client, error) {
	token := a.Token
	if token == "" {
		saved, err := loadToken(a.TokenFile)
		if err != nil {
			return nil, err
		}
		token = saved
	}
	return client.New(a.Server, token), nil
}

func loadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func saveToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating token dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

func writeErr(cmd *cobra.Command, err error) error {
	color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	return err
}
