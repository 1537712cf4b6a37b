package domain

import (
	"context"
	"io"
)

// ProfileRepository: Network operations for profiles (implemented by the API client)
type ProfileRepository interface {
	// GetOwnProfile returns the signed-in user's profile
	GetOwnProfile(ctx context.Context) (*Profile, error)

	// GetProfile returns another user's profile
	GetProfile(ctx context.Context, userID string) (*Profile, error)

	// UpdateName changes the signed-in user's display name
	UpdateName(ctx context.Context, name string) (*Profile, error)

	// UploadPhoto replaces the signed-in user's avatar
	UploadPhoto(ctx context.Context, filename string, photo io.Reader) (*Profile, error)
}

// VideoRepository: Network operations for a user's videos
type VideoRepository interface {
	GetUserVideos(ctx context.Context, userID string) ([]Video, error)
	DeleteVideo(ctx context.Context, videoID string) error
}

// FollowerRepository: Network operations for follower stats
type FollowerRepository interface {
	GetFollowerStats(ctx context.Context, userID string) (*FollowerStats, error)
}

// AccountRepository: Single-shot account calls with no caching
type AccountRepository interface {
	GetPaymentSetup(ctx context.Context) (*PaymentSetup, error)
	GetReferralStats(ctx context.Context) (*ReferralStats, error)
}

// Backend combines every repository the profile screen talks to.
type Backend interface {
	ProfileRepository
	VideoRepository
	FollowerRepository
	AccountRepository
}

// CredentialSource supplies the bearer token (external auth collaborator).
type CredentialSource interface {
	// Token returns ErrAuthMissing when no usable credential is stored
	Token(ctx context.Context) (string, error)
}
