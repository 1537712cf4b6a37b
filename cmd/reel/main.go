package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

var (
	// Global flags
	configPath string
	verbose    bool
)

// rootCmd opens the profile screen
var rootCmd = &cobra.Command{
	Use:   "reel [user-id]",
	Short: "Browse a reel profile from the terminal",
	Long: `reel shows a profile, its videos and follower stats.

Data is served from the local cache when fresh and refreshed from the
server in the background. Without a user id the signed-in user's own
profile is shown. When stdout is not a terminal the profile is printed
as plain text instead of opening the interactive screen.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "reel %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/reel/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(
		profileCmd,
		videosCmd,
		refreshCmd,
		accountCmd,
		editCmd,
		deleteCmd,
		loginCmd,
		logoutCmd,
		versionCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	viewed := argOrEmpty(args)
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return showProfile(cmd, viewed, false)
	}
	return runTUI(cmd.Context(), viewed)
}

func runTUI(ctx context.Context, viewedUserID string) error {
	events := make(chan domain.ResourceEvent, 64)

	a, err := openApp(ctx, tui.NewChannelObserver(events))
	if err != nil {
		return err
	}
	defer a.Close()

	model := tui.NewModel(ctx, a.svc, viewedUserID, events)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	a.logger.Info("starting TUI", "version", Version, "key", domain.KeyFor(viewedUserID))

	if _, err := p.Run(); err != nil {
		a.logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	a.logger.Info("shutting down")
	return nil
}

func argOrEmpty(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
