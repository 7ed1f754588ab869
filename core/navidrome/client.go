package navidrome

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"MagicLists/config"
	"MagicLists/logger"

	"github.com/google/uuid"
)

const (
	subsonicVersion = "1.16.1"
	subsonicClient  = "MagicLists"
)

// Client talks to a Navidrome server over the Subsonic REST API.
type Client struct {
	baseURL    string
	username   string
	password   string
	libraryID  string
	httpClient *http.Client
}

// NewClient creates a Navidrome API client from application config.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.NavidromeURL,
		username:   cfg.NavidromeUsername,
		password:   cfg.NavidromePassword,
		libraryID:  cfg.NavidromeLibraryID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetTimeout overrides the request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// params builds the common Subsonic auth parameters with a fresh salt.
func (c *Client) params() url.Values {
	salt := uuid.NewString()[:8]
	sum := md5.Sum([]byte(c.password + salt))

	v := url.Values{}
	v.Set("u", c.username)
	v.Set("t", hex.EncodeToString(sum[:]))
	v.Set("s", salt)
	v.Set("v", subsonicVersion)
	v.Set("c", subsonicClient)
	v.Set("f", "json")
	if c.libraryID != "" {
		v.Set("musicFolderId", c.libraryID)
	}
	return v
}

// subsonicError is the error block inside a failed Subsonic response.
type subsonicError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// get performs a Subsonic view request and returns the raw
// subsonic-response payload after checking the envelope status.
func (c *Client) get(ctx context.Context, view string, extra url.Values) (json.RawMessage, error) {
	params := c.params()
	for key, values := range extra {
		for _, value := range values {
			params.Add(key, value)
		}
	}

	reqURL := fmt.Sprintf("%s/rest/%s?%s", c.baseURL, view, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", view, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error connecting to Navidrome: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("HTTP error from Navidrome: %d: %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		SubsonicResponse struct {
			Status string         `json:"status"`
			Error  *subsonicError `json:"error"`
		} `json:"subsonic-response"`
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", view, err)
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", view, err)
	}
	if envelope.SubsonicResponse.Status != "ok" {
		msg := "unknown error"
		if envelope.SubsonicResponse.Error != nil {
			msg = envelope.SubsonicResponse.Error.Message
		}
		logger.Warn("Subsonic API error",
			logger.String("view", view),
			logger.String("message", msg))
		return nil, fmt.Errorf("Subsonic API error from %s: %s", view, msg)
	}

	// Hand the inner object back for view-specific decoding.
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(body, &outer); err != nil {
		return nil, fmt.Errorf("failed to parse %s envelope: %w", view, err)
	}
	return outer["subsonic-response"], nil
}

// Ping verifies connectivity and credentials.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "ping.view", nil)
	return err
}
