package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/spf13/cobra"
)

var (
	editName  string
	editPhoto string
)

// accountCmd shows payout and referral status for the signed-in user
var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show payout setup and referral stats",
	Args:  cobra.NoArgs,
	RunE:  runAccount,
}

// editCmd changes the signed-in user's name or photo
var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit your display name or profile photo",
	Example: `  reel edit --name "Ada Lovelace"
  reel edit --photo ~/Pictures/avatar.jpg`,
	Args: cobra.NoArgs,
	RunE: runEdit,
}

// deleteCmd deletes videos from the signed-in user's profile
var deleteCmd = &cobra.Command{
	Use:   "delete <video-id>...",
	Short: "Delete your videos",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

func init() {
	editCmd.Flags().StringVar(&editName, "name", "", "new display name")
	editCmd.Flags().StringVar(&editPhoto, "photo", "", "path of a new profile photo")
	editCmd.MarkFlagsOneRequired("name", "photo")
}

func runAccount(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()

	configured, err := a.svc.PaymentSetup(cmd.Context())
	if err != nil {
		return explain(err)
	}
	if configured {
		fmt.Fprintln(out, "Payouts: configured")
	} else {
		fmt.Fprintln(out, "Payouts: not set up")
	}

	stats, err := a.svc.ReferralStats(cmd.Context())
	if err != nil {
		return explain(err)
	}
	fmt.Fprintf(out, "Referral code: %s\n", stats.Code)
	fmt.Fprintf(out, "Invited: %d  Joined: %d  Earnings: %.2f\n", stats.Invited, stats.Joined, stats.Earnings)
	return nil
}

func runEdit(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()

	if editName != "" {
		p, err := a.svc.UpdateName(cmd.Context(), editName)
		if err != nil {
			return explain(err)
		}
		fmt.Fprintf(out, "Name updated: %s\n", p.DisplayName())
	}

	if editPhoto != "" {
		f, err := os.Open(editPhoto)
		if err != nil {
			return fmt.Errorf("failed to open photo: %w", err)
		}
		defer f.Close()

		p, err := a.svc.UpdatePhoto(cmd.Context(), filepath.Base(editPhoto), f)
		if err != nil {
			return explain(err)
		}
		fmt.Fprintf(out, "Photo updated: %s\n", p.PhotoURL)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer a.Close()

	err = a.svc.DeleteVideos(cmd.Context(), domain.OwnProfileKey, args)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Some videos no longer exist.")
		}
		return explain(err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d video(s)\n", len(args))
	return nil
}
