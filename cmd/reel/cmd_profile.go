package main

import (
	"fmt"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/profile"
	"github.com/mmcdole/reel/internal/search"
	"github.com/spf13/cobra"
)

var (
	profileRefresh bool
	videosFilter   string
)

// profileCmd prints a profile with its follower stats and videos
var profileCmd = &cobra.Command{
	Use:   "profile [user-id]",
	Short: "Print a profile",
	Long: `Print a profile with its follower stats and videos.

Without a user id the signed-in user's own profile is printed.
Cached data is used while fresh; --refresh always asks the server.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showProfile(cmd, argOrEmpty(args), profileRefresh)
	},
}

// videosCmd lists a profile's videos
var videosCmd = &cobra.Command{
	Use:   "videos [user-id]",
	Short: "List a profile's videos",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVideos,
}

// refreshCmd drops cached data for a profile and reloads it
var refreshCmd = &cobra.Command{
	Use:   "refresh [user-id]",
	Short: "Reload a profile from the server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showProfile(cmd, argOrEmpty(args), true)
	},
}

func init() {
	profileCmd.Flags().BoolVar(&profileRefresh, "refresh", false, "ignore the cache and fetch from the server")
	videosCmd.Flags().StringVarP(&videosFilter, "filter", "f", "", "fuzzy filter on video titles")
}

func showProfile(cmd *cobra.Command, viewedUserID string, refresh bool) error {
	a, err := openApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer a.Close()

	var snap profile.Snapshot
	if refresh {
		snap, err = a.svc.Refresh(cmd.Context(), viewedUserID)
	} else {
		snap, err = a.svc.Load(cmd.Context(), viewedUserID, false)
	}
	if err != nil {
		return explain(err)
	}

	printSnapshot(cmd.OutOrStdout(), snap)
	return nil
}

func runVideos(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer a.Close()

	viewed := argOrEmpty(args)
	snap, err := a.svc.Load(cmd.Context(), viewed, false)
	if err != nil {
		return explain(err)
	}
	if snap.Videos.Err != nil {
		return fmt.Errorf("failed to load videos: %w", snap.Videos.Err)
	}

	matches := a.svc.FilterVideos(snap.Key, videosFilter)
	if matches == nil && videosFilter == "" {
		matches = search.NewIndex(snap.Videos.Value).Filter("")
	}
	printVideos(cmd.OutOrStdout(), matches)
	return nil
}

// explain turns sign-in failures into an actionable message
func explain(err error) error {
	if domain.IsAuthError(err) {
		return fmt.Errorf("%w (run `reel login`)", err)
	}
	return err
}
