// Package directory is the client for the User Directory collaborator,
// which owns identity, role tags and profile display fields. Connection
// records store only ids; every display field comes from here.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/campuslink/mentorship-service/internal/core/domain"
)

// Client calls the User Directory over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a directory client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// GetUser fetches one user's display profile by id.
func (c *Client) GetUser(ctx context.Context, id string) (*domain.UserProfile, error) {
	endpoint := c.baseURL + "/users/" + url.PathEscape(id)

	var profile domain.UserProfile
	if err := c.getJSON(ctx, endpoint, &profile); err != nil {
		return nil, fmt.Errorf("directory get user %s: %w", id, err)
	}

	return &profile, nil
}

// ListMentors fetches the directory of users eligible to mentor.
func (c *Client) ListMentors(ctx context.Context) ([]domain.UserProfile, error) {
	endpoint := c.baseURL + "/users?mentors=true"

	var profiles []domain.UserProfile
	if err := c.getJSON(ctx, endpoint, &profiles); err != nil {
		return nil, fmt.Errorf("directory list mentors: %w", err)
	}

	return profiles, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
