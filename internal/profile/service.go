package profile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mmcdole/reel/internal/cache"
	"github.com/mmcdole/reel/internal/domain"
	"golang.org/x/sync/errgroup"
)

// ErrProfileUnavailable marks sections that were skipped because the profile did not load
var ErrProfileUnavailable = errors.New("profile not loaded")

// Credentials is the credential source plus the ability to forget it on logout
type Credentials interface {
	domain.CredentialSource
	Clear() error
}

// Policies holds the freshness policy of each resource kind
type Policies struct {
	Profile   cache.Policy
	Videos    cache.Policy
	Followers cache.Policy
}

// invalidator is the kind-independent part of cache.Loader
type invalidator interface {
	Kind() domain.ResourceKind
	Invalidate(key string) error
	InvalidateAll() error
	State(key string) domain.LoadState
	Close()
}

// Service loads the resources behind a profile screen and applies edits to them.
type Service struct {
	backend domain.Backend
	creds   Credentials
	store   domain.KeyValueStore
	logger  *slog.Logger

	profiles  *cache.Loader[domain.Profile]
	videos    *cache.Loader[[]domain.Video]
	followers *cache.Loader[domain.FollowerStats]
}

// NewService creates a profile service. opts are applied to every loader.
func NewService(
	backend domain.Backend,
	creds Credentials,
	store domain.KeyValueStore,
	policies Policies,
	logger *slog.Logger,
	opts ...cache.Option,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]cache.Option{cache.WithLogger(logger)}, opts...)

	return &Service{
		backend:   backend,
		creds:     creds,
		store:     store,
		logger:    logger,
		profiles:  cache.New[domain.Profile](domain.KindProfile, store, policies.Profile, opts...),
		videos:    cache.New[[]domain.Video](domain.KindVideos, store, policies.Videos, opts...),
		followers: cache.New[domain.FollowerStats](domain.KindFollowers, store, policies.Followers, opts...),
	}
}

// Load loads the profile for viewedUserID (empty = signed-in user), then its
// videos and follower stats concurrently. Section failures are isolated;
// the returned error is the profile section's error.
func (s *Service) Load(ctx context.Context, viewedUserID string, force bool) (Snapshot, error) {
	key := domain.KeyFor(viewedUserID)
	snap := Snapshot{Key: key}

	if _, err := s.creds.Token(ctx); err != nil {
		s.logger.Info("not signed in", "key", key, "error", err)
		snap.Profile.Err = err
		snap.skipDependents()
		return snap, err
	}

	profile, err := s.LoadProfile(ctx, viewedUserID, force)
	snap.Profile = sectionOf(profile, err)
	if err != nil {
		snap.skipDependents()
		return snap, err
	}

	userID := profile.Value.ID

	// Dependents never fail the group; their errors stay in their sections
	var g errgroup.Group
	g.Go(func() error {
		videos, err := s.LoadVideos(ctx, key, userID, force)
		snap.Videos = sectionOf(videos, err)
		return nil
	})
	g.Go(func() error {
		stats, err := s.LoadFollowers(ctx, key, userID, force)
		snap.Followers = sectionOf(stats, err)
		return nil
	})
	_ = g.Wait()

	s.logger.Debug("profile screen loaded",
		"key", key,
		"profileFromCache", snap.Profile.FromCache,
		"videosErr", snap.Videos.Err,
		"followersErr", snap.Followers.Err,
	)
	return snap, nil
}

// LoadProfile loads one profile record
func (s *Service) LoadProfile(ctx context.Context, viewedUserID string, force bool) (cache.Result[domain.Profile], error) {
	return s.profiles.Load(ctx, domain.KeyFor(viewedUserID), force, func(ctx context.Context) (domain.Profile, error) {
		var (
			p   *domain.Profile
			err error
		)
		if viewedUserID == "" {
			p, err = s.backend.GetOwnProfile(ctx)
		} else {
			p, err = s.backend.GetProfile(ctx, viewedUserID)
		}
		if err != nil {
			return domain.Profile{}, err
		}
		return *p, nil
	})
}

// LoadVideos loads the video list cached under key for userID
func (s *Service) LoadVideos(ctx context.Context, key, userID string, force bool) (cache.Result[[]domain.Video], error) {
	return s.videos.Load(ctx, key, force, func(ctx context.Context) ([]domain.Video, error) {
		return s.backend.GetUserVideos(ctx, userID)
	})
}

// LoadFollowers loads the follower stats cached under key for userID
func (s *Service) LoadFollowers(ctx context.Context, key, userID string, force bool) (cache.Result[domain.FollowerStats], error) {
	return s.followers.Load(ctx, key, force, func(ctx context.Context) (domain.FollowerStats, error) {
		stats, err := s.backend.GetFollowerStats(ctx, userID)
		if err != nil {
			return domain.FollowerStats{}, err
		}
		return *stats, nil
	})
}

// Refresh drops the cached resources for viewedUserID and reloads them from the server
func (s *Service) Refresh(ctx context.Context, viewedUserID string) (Snapshot, error) {
	key := domain.KeyFor(viewedUserID)
	if err := s.invalidate(key, domain.Kinds()...); err != nil {
		s.logger.Warn("failed to invalidate before refresh", "key", key, "error", err)
	}
	return s.Load(ctx, viewedUserID, true)
}

// State returns the load state of one resource
func (s *Service) State(kind domain.ResourceKind, key string) domain.LoadState {
	for _, l := range s.loaders() {
		if l.Kind() == kind {
			return l.State(key)
		}
	}
	return domain.StateIdle
}

// Close cancels background refreshes and waits for them to finish
func (s *Service) Close() {
	for _, l := range s.loaders() {
		l.Close()
	}
}

func (s *Service) loaders() []invalidator {
	return []invalidator{s.profiles, s.videos, s.followers}
}

// invalidate removes the cached entries of kinds under key
func (s *Service) invalidate(key string, kinds ...domain.ResourceKind) error {
	var errs []error
	for _, kind := range kinds {
		for _, l := range s.loaders() {
			if l.Kind() == kind {
				if err := l.Invalidate(key); err != nil {
					errs = append(errs, err)
				}
			}
		}
	}
	return errors.Join(errs...)
}
