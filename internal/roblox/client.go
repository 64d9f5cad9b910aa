package roblox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Default Roblox platform endpoints.
const (
	DefaultUsersBaseURL      = "https://users.roblox.com"
	DefaultThumbnailsBaseURL = "https://thumbnails.roblox.com"
)

// ErrNotFound indicates the requested user does not exist. Not retried.
var ErrNotFound = errors.New("roblox user not found")

// TransientError wraps network failures and 5xx responses. Callers may retry
// once; the client already does so internally.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient roblox error: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a retryable platform failure.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// User is the identity returned by username lookup.
type User struct {
	UserID      int64  `json:"id"`
	Username    string `json:"name"`
	DisplayName string `json:"displayName"`
}

// Profile is a user's public profile including the bio text used for
// verification.
type Profile struct {
	UserID      int64  `json:"id"`
	Username    string `json:"name"`
	Description string `json:"description"`
}

// Config holds Roblox client settings.
type Config struct {
	UsersBaseURL      string
	ThumbnailsBaseURL string
	Timeout           time.Duration
}

// Client queries the Roblox public APIs for identity resolution, profile
// text and avatar thumbnails.
type Client struct {
	http      *http.Client
	usersURL  string
	thumbsURL string
}

// NewClient creates a Roblox API client. Zero-value config fields fall back
// to production endpoints and a 10s timeout.
func NewClient(cfg Config) *Client {
	if cfg.UsersBaseURL == "" {
		cfg.UsersBaseURL = DefaultUsersBaseURL
	}
	if cfg.ThumbnailsBaseURL == "" {
		cfg.ThumbnailsBaseURL = DefaultThumbnailsBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		usersURL:  strings.TrimRight(cfg.UsersBaseURL, "/"),
		thumbsURL: strings.TrimRight(cfg.ThumbnailsBaseURL, "/"),
	}
}

// Resolve looks up a user by username. The match is case-insensitive but
// exact: a response for a different username is treated as not found.
func (c *Client) Resolve(ctx context.Context, username string) (*User, error) {
	reqBody := map[string]interface{}{
		"usernames":          []string{username},
		"excludeBannedUsers": true,
	}

	var out struct {
		Data []User `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.usersURL+"/v1/usernames/users", reqBody, &out); err != nil {
		return nil, err
	}

	if len(out.Data) == 0 {
		return nil, ErrNotFound
	}

	u := out.Data[0]
	if !strings.EqualFold(u.Username, username) {
		return nil, ErrNotFound
	}
	return &u, nil
}

// Profile fetches a user's public profile by ID.
func (c *Client) Profile(ctx context.Context, userID int64) (*Profile, error) {
	var out Profile
	url := fmt.Sprintf("%s/v1/users/%d", c.usersURL, userID)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &out); err != nil {
		return nil, err
	}
	if out.UserID == 0 {
		return nil, ErrNotFound
	}
	return &out, nil
}

// AvatarThumbnail fetches the user's headshot URL. A thumbnail still being
// rendered is retried once after a short delay; an unavailable thumbnail is
// not an error, just an empty URL.
func (c *Client) AvatarThumbnail(ctx context.Context, userID int64) (string, error) {
	url := fmt.Sprintf(
		"%s/v1/users/avatar-headshot?userIds=%d&size=420x420&format=Png&isCircular=false",
		c.thumbsURL, userID,
	)

	for attempt := 0; attempt < 2; attempt++ {
		var out struct {
			Data []struct {
				State    string `json:"state"`
				ImageURL string `json:"imageUrl"`
			} `json:"data"`
		}
		if err := c.doJSON(ctx, http.MethodGet, url, nil, &out); err != nil {
			return "", err
		}

		if len(out.Data) == 0 {
			return "", nil
		}
		if out.Data[0].State == "Completed" {
			return out.Data[0].ImageURL, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Second):
		}
	}

	return "", nil
}

// doJSON issues a request and decodes the JSON response, retrying once on
// transient failures. 404 maps to ErrNotFound; other 4xx are permanent.
func (c *Client) doJSON(ctx context.Context, method, url string, body, out interface{}) error {
	var lastErr error

	for attempt := 0; attempt < 2; attempt++ {
		err := c.once(ctx, method, url, body, out)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err
	}

	return lastErr
}

func (c *Client) once(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransientError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		return &TransientError{Err: fmt.Errorf("roblox responded %d", resp.StatusCode)}
	case resp.StatusCode >= 400:
		return fmt.Errorf("roblox responded %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
