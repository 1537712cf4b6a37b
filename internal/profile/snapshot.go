package profile

import (
	"time"

	"github.com/mmcdole/reel/internal/cache"
	"github.com/mmcdole/reel/internal/domain"
)

// Section is the outcome of loading one resource
type Section[T any] struct {
	Value     T
	FromCache bool
	FetchedAt time.Time
	Err       error
}

// OK reports whether the section holds a value
func (s Section[T]) OK() bool { return s.Err == nil }

func sectionOf[T any](r cache.Result[T], err error) Section[T] {
	if err != nil {
		return Section[T]{Err: err}
	}
	return Section[T]{Value: r.Value, FromCache: r.FromCache, FetchedAt: r.FetchedAt}
}

// Snapshot is everything a profile screen shows for one resource key
type Snapshot struct {
	Key       string
	Profile   Section[domain.Profile]
	Videos    Section[[]domain.Video]
	Followers Section[domain.FollowerStats]
}

// NeedsSignIn reports whether the profile failed for lack of a usable credential
func (s Snapshot) NeedsSignIn() bool {
	return domain.IsAuthError(s.Profile.Err)
}

func (s *Snapshot) skipDependents() {
	s.Videos.Err = ErrProfileUnavailable
	s.Followers.Err = ErrProfileUnavailable
}
