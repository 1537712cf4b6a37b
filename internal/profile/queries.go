package profile

import (
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/search"
)

// Cache-only reads; none of these touch the network.

func (s *Service) CachedProfile(key string) (domain.Profile, bool) {
	r, ok := s.profiles.Peek(key)
	return r.Value, ok
}

func (s *Service) CachedVideos(key string) ([]domain.Video, bool) {
	r, ok := s.videos.Peek(key)
	return r.Value, ok
}

func (s *Service) CachedFollowers(key string) (domain.FollowerStats, bool) {
	r, ok := s.followers.Peek(key)
	return r.Value, ok
}

// FilterVideos fuzzy-matches query against the cached video titles under key
func (s *Service) FilterVideos(key, query string) []search.Match {
	videos, ok := s.CachedVideos(key)
	if !ok {
		return nil
	}
	return search.NewIndex(videos).Filter(query)
}
