package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mmcdole/reel/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginToken string

// loginCmd stores a bearer token for later runs
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an access token",
	Long: `Store the access token issued by the reel sign-in flow.

Without --token the token is read from the terminal with echo disabled.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

// logoutCmd clears the stored token and every cached profile
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the access token and clear cached data",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func init() {
	loginCmd.Flags().StringVar(&loginToken, "token", "", "access token")
}

func runLogin(cmd *cobra.Command, _ []string) error {
	token := strings.TrimSpace(loginToken)
	if token == "" {
		var err error
		if token, err = promptToken(); err != nil {
			return err
		}
	}

	a, err := openApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer a.Close()

	// A new identity must not see the previous user's cached screens
	if err := a.svc.Logout(); err != nil {
		a.logger.Warn("failed to clear previous session", "error", err)
	}
	if err := a.creds.Save(token); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Token saved.")
	return nil
}

// promptToken reads a token from the terminal with echo disabled
func promptToken() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no --token given and stdin is not a terminal")
	}

	fmt.Print("Access token: ")
	tokenBytes, err := term.ReadPassword(fd)
	fmt.Println() // Add newline after hidden input
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	token := strings.TrimSpace(string(tokenBytes))
	if token == "" {
		return "", errors.New("token is empty")
	}
	return token, nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer a.Close()

	logoutErr := a.svc.Logout()
	if err := config.ClearToken(a.cfg, configPath); err != nil {
		logoutErr = errors.Join(logoutErr, err)
	}
	if logoutErr != nil {
		return logoutErr
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return nil
}
