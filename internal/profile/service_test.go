package profile_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/reel/internal/auth"
	"github.com/mmcdole/reel/internal/cache"
	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/profile"
	"github.com/mmcdole/reel/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeBackend records every call in order
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	profileErr   error
	videosErr    error
	followersErr error
	deleteErr    map[string]error
	paymentSetup bool
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) count(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeBackend) GetOwnProfile(context.Context) (*domain.Profile, error) {
	f.record("own-profile")
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return &domain.Profile{ID: "g-1", Name: "Ada", VideoCount: 2}, nil
}

func (f *fakeBackend) GetProfile(_ context.Context, userID string) (*domain.Profile, error) {
	f.record("profile:" + userID)
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return &domain.Profile{ID: "resolved-" + userID, Name: "Other"}, nil
}

func (f *fakeBackend) UpdateName(_ context.Context, name string) (*domain.Profile, error) {
	f.record("update-name:" + name)
	return &domain.Profile{ID: "g-1", Name: name}, nil
}

func (f *fakeBackend) UploadPhoto(_ context.Context, filename string, photo io.Reader) (*domain.Profile, error) {
	data, _ := io.ReadAll(photo)
	f.record(fmt.Sprintf("upload-photo:%s:%d", filename, len(data)))
	return &domain.Profile{ID: "g-1", PhotoURL: "https://cdn/" + filename}, nil
}

func (f *fakeBackend) GetUserVideos(_ context.Context, userID string) ([]domain.Video, error) {
	f.record("videos:" + userID)
	if f.videosErr != nil {
		return nil, f.videosErr
	}
	return []domain.Video{
		{ID: "v1", Title: "Morning Run"},
		{ID: "v2", Title: "Cooking Pasta"},
	}, nil
}

func (f *fakeBackend) DeleteVideo(_ context.Context, videoID string) error {
	f.record("delete:" + videoID)
	return f.deleteErr[videoID]
}

func (f *fakeBackend) GetFollowerStats(_ context.Context, userID string) (*domain.FollowerStats, error) {
	f.record("followers:" + userID)
	if f.followersErr != nil {
		return nil, f.followersErr
	}
	return &domain.FollowerStats{FollowersCount: 10, FollowingCount: 4}, nil
}

func (f *fakeBackend) GetPaymentSetup(context.Context) (*domain.PaymentSetup, error) {
	f.record("payment-setup")
	return &domain.PaymentSetup{Configured: f.paymentSetup}, nil
}

func (f *fakeBackend) GetReferralStats(context.Context) (*domain.ReferralStats, error) {
	f.record("referrals")
	return &domain.ReferralStats{Code: "ADA42", Invited: 3}, nil
}

var testPolicies = profile.Policies{
	Profile:   cache.Policy{MaxAge: 30 * time.Minute, RefreshAfter: 10 * time.Minute},
	Videos:    cache.Policy{MaxAge: 15 * time.Minute, RefreshAfter: 5 * time.Minute},
	Followers: cache.Policy{MaxAge: 10 * time.Minute, RefreshAfter: 5 * time.Minute},
}

type fixture struct {
	svc     *profile.Service
	backend *fakeBackend
	store   *store.Store
	creds   *auth.Source
}

func newFixture(t *testing.T, token string) *fixture {
	t.Helper()
	kv := store.NewMemoryStore()
	backend := &fakeBackend{deleteErr: map[string]error{}}
	creds := auth.NewSource(kv, token, nil)
	svc := profile.NewService(backend, creds, kv, testPolicies, nil)
	t.Cleanup(svc.Close)
	return &fixture{svc: svc, backend: backend, store: kv, creds: creds}
}

func TestLoad_OwnProfileSequencesDependents(t *testing.T) {
	f := newFixture(t, "tok")

	snap, err := f.svc.Load(context.Background(), "", false)
	require.NoError(t, err)

	assert.Equal(t, domain.OwnProfileKey, snap.Key)
	assert.Equal(t, "Ada", snap.Profile.Value.Name)
	assert.Len(t, snap.Videos.Value, 2)
	assert.Equal(t, 10, snap.Followers.Value.FollowersCount)
	assert.False(t, snap.Profile.FromCache)

	calls := f.backend.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "own-profile", calls[0], "dependents must wait for the profile")
	assert.ElementsMatch(t, []string{"videos:g-1", "followers:g-1"}, calls[1:])

	assert.Equal(t, domain.StateLoaded, f.svc.State(domain.KindProfile, domain.OwnProfileKey))
	assert.Equal(t, domain.StateLoaded, f.svc.State(domain.KindVideos, domain.OwnProfileKey))
}

func TestLoad_SecondLoadServedFromCache(t *testing.T) {
	f := newFixture(t, "tok")

	_, err := f.svc.Load(context.Background(), "", false)
	require.NoError(t, err)

	snap, err := f.svc.Load(context.Background(), "", false)
	require.NoError(t, err)

	assert.True(t, snap.Profile.FromCache)
	assert.True(t, snap.Videos.FromCache)
	assert.True(t, snap.Followers.FromCache)
	assert.Len(t, f.backend.Calls(), 3)
}

func TestLoad_ViewedProfileUsesResolvedID(t *testing.T) {
	f := newFixture(t, "tok")

	snap, err := f.svc.Load(context.Background(), "u2", false)
	require.NoError(t, err)

	assert.Equal(t, "u2", snap.Key)
	calls := f.backend.Calls()
	assert.Equal(t, "profile:u2", calls[0])
	assert.ElementsMatch(t, []string{"videos:resolved-u2", "followers:resolved-u2"}, calls[1:])

	_, ok := f.svc.CachedProfile(domain.OwnProfileKey)
	assert.False(t, ok, "viewed profiles must not land in the own-profile slot")
}

func TestLoad_ProfileFailureSkipsDependents(t *testing.T) {
	f := newFixture(t, "tok")
	f.backend.profileErr = domain.ErrServerOffline

	snap, err := f.svc.Load(context.Background(), "", false)
	assert.ErrorIs(t, err, domain.ErrServerOffline)
	assert.ErrorIs(t, snap.Profile.Err, domain.ErrServerOffline)
	assert.ErrorIs(t, snap.Videos.Err, profile.ErrProfileUnavailable)
	assert.ErrorIs(t, snap.Followers.Err, profile.ErrProfileUnavailable)
	assert.Equal(t, []string{"own-profile"}, f.backend.Calls())
}

func TestLoad_DependentFailureIsIsolated(t *testing.T) {
	f := newFixture(t, "tok")
	f.backend.videosErr = errors.New("videos down")

	snap, err := f.svc.Load(context.Background(), "", false)
	require.NoError(t, err)

	assert.True(t, snap.Profile.OK())
	assert.EqualError(t, snap.Videos.Err, "videos down")
	assert.True(t, snap.Followers.OK())
	assert.Equal(t, domain.StateError, f.svc.State(domain.KindVideos, domain.OwnProfileKey))
}

func TestLoad_MissingCredential(t *testing.T) {
	f := newFixture(t, "")

	snap, err := f.svc.Load(context.Background(), "", false)
	assert.ErrorIs(t, err, domain.ErrAuthMissing)
	assert.True(t, snap.NeedsSignIn())
	assert.Empty(t, f.backend.Calls())
}

func TestRefresh_RefetchesEverything(t *testing.T) {
	f := newFixture(t, "tok")

	_, err := f.svc.Load(context.Background(), "", false)
	require.NoError(t, err)

	snap, err := f.svc.Refresh(context.Background(), "")
	require.NoError(t, err)

	assert.False(t, snap.Profile.FromCache)
	assert.Equal(t, 2, f.backend.count("own-profile"))
	assert.Equal(t, 2, f.backend.count("videos:"))
	assert.Equal(t, 2, f.backend.count("followers:"))
}

func TestUpdateName_InvalidatesOwnProfile(t *testing.T) {
	f := newFixture(t, "tok")
	_, err := f.svc.Load(context.Background(), "", false)
	require.NoError(t, err)

	p, err := f.svc.UpdateName(context.Background(), "  Grace ")
	require.NoError(t, err)
	assert.Equal(t, "Grace", p.Name)

	_, ok := f.svc.CachedProfile(domain.OwnProfileKey)
	assert.False(t, ok)
	_, ok = f.svc.CachedVideos(domain.OwnProfileKey)
	assert.True(t, ok, "only the profile entry is affected")

	_, err = f.svc.UpdateName(context.Background(), " ")
	assert.Error(t, err)
	assert.Equal(t, 1, f.backend.count("update-name:"))
}

func TestUpdatePhoto_InvalidatesOwnProfile(t *testing.T) {
	f := newFixture(t, "tok")
	_, err := f.svc.Load(context.Background(), "", false)
	require.NoError(t, err)

	p, err := f.svc.UpdatePhoto(context.Background(), "me.jpg", strings.NewReader("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/me.jpg", p.PhotoURL)
	assert.Contains(t, f.backend.Calls(), "upload-photo:me.jpg:4")

	_, ok := f.svc.CachedProfile(domain.OwnProfileKey)
	assert.False(t, ok)
}

func TestDeleteVideos_PartialFailure(t *testing.T) {
	f := newFixture(t, "tok")
	_, err := f.svc.Load(context.Background(), "", false)
	require.NoError(t, err)

	f.backend.deleteErr["v2"] = domain.ErrNotFound
	err = f.svc.DeleteVideos(context.Background(), domain.OwnProfileKey, []string{"v1", "v2"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "v2")

	_, ok := f.svc.CachedVideos(domain.OwnProfileKey)
	assert.False(t, ok)
	_, ok = f.svc.CachedProfile(domain.OwnProfileKey)
	assert.False(t, ok)
	_, ok = f.svc.CachedFollowers(domain.OwnProfileKey)
	assert.True(t, ok)
}

func TestDeleteVideos_AllFailedKeepsCache(t *testing.T) {
	f := newFixture(t, "tok")
	_, err := f.svc.Load(context.Background(), "", false)
	require.NoError(t, err)

	f.backend.deleteErr["v1"] = domain.ErrServerOffline
	err = f.svc.DeleteVideos(context.Background(), domain.OwnProfileKey, []string{"v1"})
	assert.ErrorIs(t, err, domain.ErrServerOffline)

	_, ok := f.svc.CachedVideos(domain.OwnProfileKey)
	assert.True(t, ok)
}

func TestLogout_ClearsEverything(t *testing.T) {
	f := newFixture(t, "tok")
	require.NoError(t, f.creds.Save("stored"))
	_, err := f.svc.Load(context.Background(), "", false)
	require.NoError(t, err)
	_, err = f.svc.Load(context.Background(), "u2", false)
	require.NoError(t, err)
	require.NoError(t, f.store.Set(profile.PaymentSetupKey, []byte("true")))

	require.NoError(t, f.svc.Logout())

	for _, key := range []string{domain.OwnProfileKey, "u2"} {
		_, ok := f.svc.CachedProfile(key)
		assert.False(t, ok, key)
		_, ok = f.svc.CachedVideos(key)
		assert.False(t, ok, key)
		_, ok = f.svc.CachedFollowers(key)
		assert.False(t, ok, key)
	}
	_, ok := f.store.Get(profile.PaymentSetupKey)
	assert.False(t, ok)

	_, err = f.creds.Token(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuthMissing)
}

func TestPaymentSetup_FlagShortCircuits(t *testing.T) {
	f := newFixture(t, "tok")

	ok, err := f.svc.PaymentSetup(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	f.backend.paymentSetup = true
	ok, err = f.svc.PaymentSetup(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	f.backend.paymentSetup = false
	ok, err = f.svc.PaymentSetup(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, f.backend.count("payment-setup"))
}

func TestReferralStats_NotCached(t *testing.T) {
	f := newFixture(t, "tok")

	for range 2 {
		stats, err := f.svc.ReferralStats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ADA42", stats.Code)
	}
	assert.Equal(t, 2, f.backend.count("referrals"))
}

func TestFilterVideos(t *testing.T) {
	f := newFixture(t, "tok")
	assert.Nil(t, f.svc.FilterVideos(domain.OwnProfileKey, "run"))

	_, err := f.svc.Load(context.Background(), "", false)
	require.NoError(t, err)

	matches := f.svc.FilterVideos(domain.OwnProfileKey, "pasta")
	require.Len(t, matches, 1)
	assert.Equal(t, "v2", matches[0].Video.ID)
	assert.Len(t, f.svc.FilterVideos(domain.OwnProfileKey, ""), 2)
}

func TestClose_RejectsLoads(t *testing.T) {
	f := newFixture(t, "tok")
	f.svc.Close()

	snap, err := f.svc.Load(context.Background(), "", false)
	assert.ErrorIs(t, err, domain.ErrLoaderClosed)
	assert.ErrorIs(t, snap.Profile.Err, domain.ErrLoaderClosed)
}
