package domain

import (
	"fmt"
	"time"
)

// Profile is a user's public profile record
type Profile struct {
	ID             string // Canonical user identifier (resolved once at decode time)
	GoogleID       string // Federated identity id, when the account was created through Google
	Username       string // Handle shown with an @ prefix
	Name           string // Display name
	Email          string // Only present on the signed-in user's own profile
	PhotoURL       string // Avatar image URL
	Bio            string
	FollowersCount int
	FollowingCount int
	VideoCount     int
	ReferralCode   string
	CreatedAt      time.Time
}

// DisplayName returns the name to render, falling back to the handle
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Username != "" {
		return "@" + p.Username
	}
	return p.ID
}

// Video is a short video uploaded by a user
type Video struct {
	ID           string
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	Views        int
	Likes        int
	Comments     int
	Duration     time.Duration
	CreatedAt    time.Time
}

// FormattedViews returns a compact view count (e.g., "1.2K", "3.4M")
func (v Video) FormattedViews() string {
	return compactCount(v.Views)
}

// FormattedDuration returns the duration as m:ss
func (v Video) FormattedDuration() string {
	total := int(v.Duration.Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FollowerStats holds the social counters for a profile
type FollowerStats struct {
	FollowersCount int
	FollowingCount int
	IsFollowing    bool // Whether the signed-in user follows this profile
}

// ReferralStats summarizes the signed-in user's referral program
type ReferralStats struct {
	Code     string
	Invited  int
	Joined   int
	Earnings float64
}

// PaymentSetup reports whether payouts are configured for the signed-in user
type PaymentSetup struct {
	Configured bool
}

func compactCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
