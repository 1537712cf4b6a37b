package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/reel/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	maxRetries     = 3
	baseRetryDelay = 500 * time.Millisecond
	maxErrorBody   = 512
)

// Client implements domain.Backend against the platform REST API
type Client struct {
	baseURL    string
	creds      domain.CredentialSource
	httpClient *http.Client
	logger     *slog.Logger
	retryDelay time.Duration
}

// NewClient creates a new API client.
// A zero timeout uses the default.
func NewClient(baseURL string, creds domain.CredentialSource, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:     logger,
		retryDelay: baseRetryDelay,
	}
}

// request describes one API call; body is replayed on every attempt
type request struct {
	method      string
	path        string
	body        []byte
	contentType string
}

// doRequest performs an authenticated HTTP request.
// Includes retry logic with exponential backoff for 5xx server errors.
func (c *Client) doRequest(ctx context.Context, r request) ([]byte, error) {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return nil, err
	}

	reqURL := c.baseURL + r.path
	requestID := uuid.NewString()

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // 500ms, 1s, 2s
			c.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "path", r.path)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var body io.Reader
		if r.body != nil {
			body = bytes.NewReader(r.body)
		}
		req, err := http.NewRequestWithContext(ctx, r.method, reqURL, body)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-Request-ID", requestID)
		if r.contentType != "" {
			req.Header.Set("Content-Type", r.contentType)
		}

		c.logger.Debug("api request", "method", r.method, "path", r.path, "attempt", attempt, "request_id", requestID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Error("api request failed", "path", r.path, "error", err)
			return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized:
			return nil, domain.ErrAuthFailed
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, r.path)
		case resp.StatusCode >= 500 && resp.StatusCode < 600:
			lastErr = fmt.Errorf("%w: status %d - %s", domain.ErrServerOffline, resp.StatusCode, truncate(respBody))
			c.logger.Warn("api server error, will retry",
				"status", resp.StatusCode,
				"attempt", attempt,
				"maxRetries", maxRetries,
				"path", r.path,
				"request_id", requestID,
			)
			continue
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			c.logger.Error("api request error", "status", resp.StatusCode, "path", r.path, "body", truncate(respBody))
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		return respBody, nil
	}

	c.logger.Error("api request failed after retries", "error", lastErr, "path", r.path, "request_id", requestID)
	return nil, lastErr
}

// getJSON issues a GET and decodes the body into out
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	body, err := c.doRequest(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return err
	}
	return decode(body, out)
}

// GetOwnProfile returns the signed-in user's profile
func (c *Client) GetOwnProfile(ctx context.Context) (*domain.Profile, error) {
	var resp ProfileResponse
	if err := c.getJSON(ctx, "/api/users/profile", &resp); err != nil {
		return nil, err
	}
	return MapProfileResponse(resp)
}

// GetProfile returns another user's profile
func (c *Client) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	var resp ProfileResponse
	if err := c.getJSON(ctx, "/api/users/"+url.PathEscape(userID), &resp); err != nil {
		return nil, err
	}
	return MapProfileResponse(resp)
}

// UpdateName changes the signed-in user's display name
func (c *Client) UpdateName(ctx context.Context, name string) (*domain.Profile, error) {
	payload, err := json.Marshal(updateNameRequest{Name: name})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	body, err := c.doRequest(ctx, request{
		method:      http.MethodPut,
		path:        "/api/users/profile",
		body:        payload,
		contentType: "application/json",
	})
	if err != nil {
		return nil, err
	}

	var resp ProfileResponse
	if err := decode(body, &resp); err != nil {
		return nil, err
	}
	return MapProfileResponse(resp)
}

// UploadPhoto replaces the signed-in user's profile photo
func (c *Client) UploadPhoto(ctx context.Context, filename string, photo io.Reader) (*domain.Profile, error) {
	// Buffer the form once so retries can replay it
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("photo", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}
	if _, err := io.Copy(part, photo); err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	body, err := c.doRequest(ctx, request{
		method:      http.MethodPost,
		path:        "/api/users/profile/photo",
		body:        buf.Bytes(),
		contentType: form.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}

	var resp ProfileResponse
	if err := decode(body, &resp); err != nil {
		return nil, err
	}
	return MapProfileResponse(resp)
}

// GetUserVideos returns the videos uploaded by userID
func (c *Client) GetUserVideos(ctx context.Context, userID string) ([]domain.Video, error) {
	var resp VideosResponse
	if err := c.getJSON(ctx, "/api/videos/user/"+url.PathEscape(userID), &resp); err != nil {
		return nil, err
	}
	return MapVideos(resp.Videos), nil
}

// DeleteVideo removes one of the signed-in user's videos
func (c *Client) DeleteVideo(ctx context.Context, videoID string) error {
	_, err := c.doRequest(ctx, request{
		method: http.MethodDelete,
		path:   "/api/videos/" + url.PathEscape(videoID),
	})
	return err
}

// GetFollowerStats returns follower counts for userID
func (c *Client) GetFollowerStats(ctx context.Context, userID string) (*domain.FollowerStats, error) {
	var resp FollowerStatsDTO
	if err := c.getJSON(ctx, "/api/users/"+url.PathEscape(userID)+"/follow-stats", &resp); err != nil {
		return nil, err
	}
	return MapFollowerStats(resp), nil
}

// GetPaymentSetup reports whether payouts are configured
func (c *Client) GetPaymentSetup(ctx context.Context) (*domain.PaymentSetup, error) {
	var resp PaymentSetupDTO
	if err := c.getJSON(ctx, "/api/payments/setup-status", &resp); err != nil {
		return nil, err
	}
	return MapPaymentSetup(resp), nil
}

// GetReferralStats returns the signed-in user's referral summary
func (c *Client) GetReferralStats(ctx context.Context) (*domain.ReferralStats, error) {
	var resp ReferralStatsDTO
	if err := c.getJSON(ctx, "/api/referrals/stats", &resp); err != nil {
		return nil, err
	}
	return MapReferralStats(resp), nil
}

func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidResponse, err)
	}
	return nil
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}

var _ domain.Backend = (*Client)(nil)
