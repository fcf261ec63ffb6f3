// Package client implements a REST client for the Walking Buddies API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/walkbuddy/walkbuddy/internal/app/engine"
	"github.com/walkbuddy/walkbuddy/internal/domain"
)

var userAgent = "walkbuddy-cli/0.3"

// Client talks to a running walkbuddy server.
type Client struct {
	BaseURL *url.URL

	userAgent string
	client    *http.Client
}

// NewClient returns a new API client. If a nil httpClient is provided,
// http.DefaultClient is used.
func NewClient(baseURL *url.URL, cc *http.Client) *Client {
	if cc == nil {
		cc = http.DefaultClient
	}
	return &Client{BaseURL: baseURL, userAgent: userAgent, client: cc}
}

// New parses rawURL and returns a client with a request timeout.
func New(rawURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("server url %q needs a scheme and host", rawURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return NewClient(u, &http.Client{Timeout: timeout}), nil
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s (%d): %s", e.Type, e.StatusCode, e.Message)
}

// NewRequest creates an HTTP request. A non-nil body is JSON encoded.
func (c *Client) NewRequest(ctx context.Context, method, urlStr string, body interface{}) (*http.Request, error) {
	u, err := c.BaseURL.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	var buf io.ReadWriter
	if body != nil {
		buf = new(bytes.Buffer)
		enc := json.NewEncoder(buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), buf)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

// Do sends a request and decodes a 2xx JSON body into v. Other status
// codes are returned as *APIError.
func (c *Client) Do(req *http.Request, v interface{}) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, err
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		if json.Unmarshal(data, &body) == nil {
			apiErr.Message = body.Error.Message
			apiErr.Type = body.Error.Type
		}
		return resp, apiErr
	}

	if v != nil && len(data) != 0 {
		if err := json.Unmarshal(data, v); err != nil && err != io.EOF {
			return resp, err
		}
	}
	return resp, nil
}

func (c *Client) call(ctx context.Context, method, path string, body, v interface{}) error {
	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	_, err = c.Do(req, v)
	return err
}

// ─── Response Types ─────────────────────────────────────────────────────────

// Challenge is a challenge definition as the server renders it.
type Challenge struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Type         string          `json:"type"`
	Period       domain.Period   `json:"period"`
	RewardPoints int64           `json:"reward_points"`
	Goal         json.RawMessage `json:"goal"`
	CreatedBy    string          `json:"created_by,omitempty"`
}

// ChallengeStatus is one user's view of a challenge.
type ChallengeStatus struct {
	Challenge Challenge             `json:"challenge"`
	State     domain.ChallengeState `json:"state"`
	Joined    bool                  `json:"joined"`
	Completed bool                  `json:"completed"`
	PeriodKey string                `json:"period_key"`
	Progress  domain.Measure        `json:"progress"`
	Percent   float64               `json:"percent"`
}

// ─── Endpoints ──────────────────────────────────────────────────────────────

// Health reports whether the server answers /health.
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "health", nil, nil)
}

// RecordWalk logs a walk.
func (c *Client) RecordWalk(ctx context.Context, in engine.WalkInput) (engine.WalkResult, error) {
	var res engine.WalkResult
	err := c.call(ctx, http.MethodPost, "api/walks", in, &res)
	return res, err
}

// SendInvite records an invitation.
func (c *Client) SendInvite(ctx context.Context, userID, friend string) (engine.InviteResult, error) {
	var res engine.InviteResult
	body := map[string]string{"user_id": userID, "friend": friend}
	err := c.call(ctx, http.MethodPost, "api/invites", body, &res)
	return res, err
}

// Profile fetches a user's profile.
func (c *Client) Profile(ctx context.Context, userID string) (engine.Profile, error) {
	var p engine.Profile
	err := c.call(ctx, http.MethodGet, "api/users/"+url.PathEscape(userID), nil, &p)
	return p, err
}

// Challenges lists every challenge definition.
func (c *Client) Challenges(ctx context.Context) ([]Challenge, error) {
	var resp struct {
		Challenges []Challenge `json:"challenges"`
	}
	err := c.call(ctx, http.MethodGet, "api/challenges", nil, &resp)
	return resp.Challenges, err
}

// Board lists every challenge with the user's status.
func (c *Client) Board(ctx context.Context, userID string) ([]ChallengeStatus, error) {
	var resp struct {
		Challenges []ChallengeStatus `json:"challenges"`
	}
	err := c.call(ctx, http.MethodGet, "api/users/"+url.PathEscape(userID)+"/challenges", nil, &resp)
	return resp.Challenges, err
}

// JoinChallenge opts a user into a challenge.
func (c *Client) JoinChallenge(ctx context.Context, userID, challengeID string) (ChallengeStatus, error) {
	var st ChallengeStatus
	path := "api/challenges/" + url.PathEscape(challengeID) + "/join"
	err := c.call(ctx, http.MethodPost, path, map[string]string{"user_id": userID}, &st)
	return st, err
}

// LeaveChallenge opts a user out of a challenge.
func (c *Client) LeaveChallenge(ctx context.Context, userID, challengeID string) (ChallengeStatus, error) {
	var st ChallengeStatus
	path := "api/challenges/" + url.PathEscape(challengeID) + "/leave"
	err := c.call(ctx, http.MethodPost, path, map[string]string{"user_id": userID}, &st)
	return st, err
}

// Progress fetches a user's progress on a challenge.
func (c *Client) Progress(ctx context.Context, userID, challengeID string) (ChallengeStatus, error) {
	var st ChallengeStatus
	path := "api/challenges/" + url.PathEscape(challengeID) + "/progress?user_id=" + url.QueryEscape(userID)
	err := c.call(ctx, http.MethodGet, path, nil, &st)
	return st, err
}

// CreateChallenge registers a custom challenge.
func (c *Client) CreateChallenge(ctx context.Context, in engine.CustomChallengeInput) (Challenge, error) {
	var def Challenge
	err := c.call(ctx, http.MethodPost, "api/challenges", in, &def)
	return def, err
}

// JoinTeam moves a user into a team.
func (c *Client) JoinTeam(ctx context.Context, userID, team string) (domain.TeamInfo, error) {
	var info domain.TeamInfo
	path := "api/teams/" + url.PathEscape(team) + "/join"
	err := c.call(ctx, http.MethodPost, path, map[string]string{"user_id": userID}, &info)
	return info, err
}

// Leaderboard fetches the top standings of one kind.
func (c *Client) Leaderboard(ctx context.Context, kind domain.LeaderboardType, limit int) ([]domain.LeaderboardEntry, error) {
	q := url.Values{}
	q.Set("type", string(kind))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp struct {
		Entries []domain.LeaderboardEntry `json:"entries"`
	}
	err := c.call(ctx, http.MethodGet, "api/leaderboard?"+q.Encode(), nil, &resp)
	return resp.Entries, err
}

// Redeem spends points on a reward. Rejections come back in the result,
// except unknown rewards which are an *APIError with status 404.
func (c *Client) Redeem(ctx context.Context, userID, rewardID string) (domain.RedeemResult, error) {
	var res domain.RedeemResult
	path := "api/rewards/" + url.PathEscape(rewardID) + "/redeem"
	err := c.call(ctx, http.MethodPost, path, map[string]string{"user_id": userID}, &res)
	return res, err
}
