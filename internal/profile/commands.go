package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mmcdole/reel/internal/domain"
)

// PaymentSetupKey is the KV key of the persisted "payouts configured" flag
const PaymentSetupKey = "payment_setup_complete"

// UpdateName changes the signed-in user's display name
func (s *Service) UpdateName(ctx context.Context, name string) (*domain.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("name must not be empty")
	}

	p, err := s.backend.UpdateName(ctx, name)
	if err != nil {
		s.logger.Error("failed to update name", "error", err)
		return nil, err
	}
	if err := s.invalidate(domain.OwnProfileKey, domain.KindProfile); err != nil {
		s.logger.Warn("failed to invalidate profile", "error", err)
	}
	return p, nil
}

// UpdatePhoto uploads a new profile photo for the signed-in user
func (s *Service) UpdatePhoto(ctx context.Context, filename string, photo io.Reader) (*domain.Profile, error) {
	p, err := s.backend.UploadPhoto(ctx, filename, photo)
	if err != nil {
		s.logger.Error("failed to upload photo", "error", err, "file", filename)
		return nil, err
	}
	if err := s.invalidate(domain.OwnProfileKey, domain.KindProfile); err != nil {
		s.logger.Warn("failed to invalidate profile", "error", err)
	}
	return p, nil
}

// DeleteVideos deletes each video and invalidates the video list and profile under key.
// Failures are joined; the cache is invalidated when at least one delete succeeded.
func (s *Service) DeleteVideos(ctx context.Context, key string, videoIDs []string) error {
	var errs []error
	deleted := 0
	for _, id := range videoIDs {
		if err := s.backend.DeleteVideo(ctx, id); err != nil {
			s.logger.Error("failed to delete video", "error", err, "videoID", id)
			errs = append(errs, fmt.Errorf("delete video %s: %w", id, err))
			continue
		}
		deleted++
	}

	if deleted > 0 {
		if err := s.invalidate(key, domain.KindVideos, domain.KindProfile); err != nil {
			errs = append(errs, err)
		}
	}
	s.logger.Debug("deleted videos", "key", key, "deleted", deleted, "failed", len(videoIDs)-deleted)
	return errors.Join(errs...)
}

// Logout clears every cached resource, the stored credential and account flags
func (s *Service) Logout() error {
	var errs []error
	for _, l := range s.loaders() {
		if err := l.InvalidateAll(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.creds.Clear(); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Remove(PaymentSetupKey); err != nil {
		errs = append(errs, fmt.Errorf("failed to clear payment flag: %w", err))
	}
	s.logger.Info("logged out")
	return errors.Join(errs...)
}

// PaymentSetup reports whether payouts are configured.
// Once the server says yes the answer is remembered until logout.
func (s *Service) PaymentSetup(ctx context.Context) (bool, error) {
	if v, ok := s.store.Get(PaymentSetupKey); ok && string(v) == "true" {
		return true, nil
	}

	setup, err := s.backend.GetPaymentSetup(ctx)
	if err != nil {
		return false, err
	}
	if setup.Configured {
		if err := s.store.Set(PaymentSetupKey, []byte("true")); err != nil {
			s.logger.Warn("failed to persist payment flag", "error", err)
		}
	}
	return setup.Configured, nil
}

// ReferralStats fetches the referral summary. Not cached.
func (s *Service) ReferralStats(ctx context.Context) (*domain.ReferralStats, error) {
	return s.backend.GetReferralStats(ctx)
}
