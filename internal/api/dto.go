package api

import (
	"bytes"
	"encoding/json"
)

// ProfileDTO is a user record as the backend sends it.
// Older accounts carry _id, Google sign-ins carry googleId, newer payloads use id.
type ProfileDTO struct {
	GoogleID       string    `json:"googleId"`
	MongoID        string    `json:"_id"`
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	ProfilePic     string    `json:"profilePic"`
	PhotoURL       string    `json:"photoUrl"`
	Bio            string    `json:"bio"`
	FollowersCount flexCount `json:"followersCount"`
	FollowingCount flexCount `json:"followingCount"`
	Followers      flexCount `json:"followers"`
	Following      flexCount `json:"following"`
	VideoCount     flexCount `json:"videoCount"`
	ReferralCode   string    `json:"referralCode"`
	CreatedAt      string    `json:"createdAt"`
}

// ProfileResponse accepts both a bare user object and {"user": {...}}
type ProfileResponse struct {
	User *ProfileDTO `json:"user"`
	ProfileDTO
}

// VideoDTO is a video record as the backend sends it
type VideoDTO struct {
	MongoID      string    `json:"_id"`
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	VideoName    string    `json:"videoName"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"videoUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	Views        flexCount `json:"views"`
	Likes        flexCount `json:"likes"`
	Comments     flexCount `json:"comments"`
	Duration     float64   `json:"duration"` // Seconds
	CreatedAt    string    `json:"createdAt"`
	UploadedAt   string    `json:"uploadedAt"`
}

// VideosResponse accepts both a bare array and {"videos": [...]}
type VideosResponse struct {
	Videos []VideoDTO
}

func (r *VideosResponse) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &r.Videos)
	}
	var wrapped struct {
		Videos []VideoDTO `json:"videos"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return err
	}
	r.Videos = wrapped.Videos
	return nil
}

// FollowerStatsDTO is the follow-stats payload
type FollowerStatsDTO struct {
	FollowersCount flexCount `json:"followersCount"`
	FollowingCount flexCount `json:"followingCount"`
	IsFollowing    bool      `json:"isFollowing"`
}

// PaymentSetupDTO is the payout status payload
type PaymentSetupDTO struct {
	HasPaymentSetup bool `json:"hasPaymentSetup"`
	Configured      bool `json:"configured"`
}

// ReferralStatsDTO is the referral program payload
type ReferralStatsDTO struct {
	Code         string  `json:"code"`
	ReferralCode string  `json:"referralCode"`
	InvitedCount int     `json:"invitedCount"`
	JoinedCount  int     `json:"joinedCount"`
	Earnings     float64 `json:"earnings"`
}

// updateNameRequest is the body of the name edit call
type updateNameRequest struct {
	Name string `json:"name"`
}

// flexCount decodes a counter sent either as a number or as an array of ids.
type flexCount int

func (c *flexCount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = 0
		return nil
	}
	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*c = flexCount(len(items))
		return nil
	}
	var n float64
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return err
	}
	*c = flexCount(n)
	return nil
}
