package api

import (
	"fmt"
	"time"

	"github.com/mmcdole/reel/internal/domain"
)

// MapProfile converts a backend user record to a domain Profile.
// The canonical id is resolved here so nothing downstream falls back between keys.
func MapProfile(dto ProfileDTO) (*domain.Profile, error) {
	id := firstNonEmpty(dto.GoogleID, dto.MongoID, dto.ID)
	if id == "" {
		return nil, fmt.Errorf("%w: profile has no id", domain.ErrInvalidResponse)
	}

	followers := int(dto.FollowersCount)
	if followers == 0 {
		followers = int(dto.Followers)
	}
	following := int(dto.FollowingCount)
	if following == 0 {
		following = int(dto.Following)
	}

	return &domain.Profile{
		ID:             id,
		GoogleID:       dto.GoogleID,
		Username:       dto.Username,
		Name:           dto.Name,
		Email:          dto.Email,
		PhotoURL:       firstNonEmpty(dto.ProfilePic, dto.PhotoURL),
		Bio:            dto.Bio,
		FollowersCount: followers,
		FollowingCount: following,
		VideoCount:     int(dto.VideoCount),
		ReferralCode:   dto.ReferralCode,
		CreatedAt:      parseTime(dto.CreatedAt),
	}, nil
}

// MapProfileResponse unwraps {"user": {...}} when present
func MapProfileResponse(resp ProfileResponse) (*domain.Profile, error) {
	if resp.User != nil {
		return MapProfile(*resp.User)
	}
	return MapProfile(resp.ProfileDTO)
}

// MapVideos converts backend video records, skipping entries without an id
func MapVideos(dtos []VideoDTO) []domain.Video {
	videos := make([]domain.Video, 0, len(dtos))
	for _, dto := range dtos {
		id := firstNonEmpty(dto.MongoID, dto.ID)
		if id == "" {
			continue
		}
		videos = append(videos, domain.Video{
			ID:           id,
			Title:        firstNonEmpty(dto.Title, dto.VideoName),
			Description:  dto.Description,
			VideoURL:     dto.VideoURL,
			ThumbnailURL: dto.ThumbnailURL,
			Views:        int(dto.Views),
			Likes:        int(dto.Likes),
			Comments:     int(dto.Comments),
			Duration:     time.Duration(dto.Duration * float64(time.Second)),
			CreatedAt:    parseTime(firstNonEmpty(dto.CreatedAt, dto.UploadedAt)),
		})
	}
	return videos
}

// MapFollowerStats converts the follow-stats payload
func MapFollowerStats(dto FollowerStatsDTO) *domain.FollowerStats {
	return &domain.FollowerStats{
		FollowersCount: int(dto.FollowersCount),
		FollowingCount: int(dto.FollowingCount),
		IsFollowing:    dto.IsFollowing,
	}
}

// MapPaymentSetup converts the payout status payload
func MapPaymentSetup(dto PaymentSetupDTO) *domain.PaymentSetup {
	return &domain.PaymentSetup{Configured: dto.HasPaymentSetup || dto.Configured}
}

// MapReferralStats converts the referral payload
func MapReferralStats(dto ReferralStatsDTO) *domain.ReferralStats {
	return &domain.ReferralStats{
		Code:     firstNonEmpty(dto.Code, dto.ReferralCode),
		Invited:  dto.InvitedCount,
		Joined:   dto.JoinedCount,
		Earnings: dto.Earnings,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseTime accepts RFC 3339 timestamps; anything else maps to the zero time
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	return time.Time{}
}
