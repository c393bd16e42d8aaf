// Package zoom is a thin client for the Zoom REST API: server-to-server
// OAuth plus the handful of meeting and recording endpoints the dashboard
// proxies. No scheduling logic lives here.
package zoom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	appLog "meetcal/internal/log"
)

const (
	defaultBaseURL = "https://api.zoom.us/v2"
	defaultAuthURL = "https://zoom.us/oauth/token"
)

// Client talks to the Zoom API with an account-level (server-to-server)
// OAuth app. The access token is cached and refreshed shortly before expiry.
type Client struct {
	baseURL string
	authURL string

	accountID    string
	clientID     string
	clientSecret string

	client *http.Client

	mu    sync.Mutex
	token *oauth2.Token
}

// NewClient builds a Zoom client from server-to-server OAuth credentials.
func NewClient(accountID, clientID, clientSecret string) *Client {
	return &Client{
		baseURL:      defaultBaseURL,
		authURL:      defaultAuthURL,
		accountID:    accountID,
		clientID:     clientID,
		clientSecret: clientSecret,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Configured reports whether credentials are present at all; an empty client
// disables Zoom-backed features instead of failing every request.
func (c *Client) Configured() bool {
	return c.accountID != "" && c.clientID != "" && c.clientSecret != ""
}

// tokenResponse is the Zoom OAuth token grant response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ensureToken fetches or refreshes the cached access token. Zoom's
// account_credentials grant is not the plain client_credentials flow, so the
// token POST is done by hand and the result is held as an oauth2.Token for
// its expiry bookkeeping.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != nil && c.token.Valid() {
		return c.token.AccessToken, nil
	}

	form := url.Values{
		"grant_type": {"account_credentials"},
		"account_id": {c.accountID},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("zoom: token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("zoom: token request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("zoom: decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", errors.New("zoom: token response had no access_token")
	}

	c.token = &oauth2.Token{
		AccessToken: tr.AccessToken,
		TokenType:   tr.TokenType,
		// Refresh a minute early so in-flight requests never race expiry.
		Expiry: time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - time.Minute),
	}

	appLog.Info("zoom: access token refreshed", "expires_in_sec", tr.ExpiresIn)
	return c.token.AccessToken, nil
}

// apiError is Zoom's JSON error envelope.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// do performs one authenticated API call, optionally encoding body as JSON
// and decoding the response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if !c.Configured() {
		return errors.New("zoom: client not configured")
	}

	tok, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("zoom: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var ae apiError
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &ae) == nil && ae.Message != "" {
			return fmt.Errorf("zoom: %s %s: %s (code %d)", method, path, ae.Message, ae.Code)
		}
		return fmt.Errorf("zoom: %s %s: %s", method, path, resp.Status)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// APIMeeting is a Zoom meeting as returned by the API.
type APIMeeting struct {
	ID        int64  `json:"id"`
	Topic     string `json:"topic"`
	Agenda    string `json:"agenda"`
	StartTime string `json:"start_time"` // RFC3339
	Duration  int    `json:"duration"`   // minutes
	Timezone  string `json:"timezone"`
	JoinURL   string `json:"join_url"`
	HostEmail string `json:"host_email"`
	Type      int    `json:"type"`
}

// MeetingRequest is the create/update payload for a scheduled meeting.
type MeetingRequest struct {
	Topic     string `json:"topic"`
	Agenda    string `json:"agenda,omitempty"`
	StartTime string `json:"start_time"` // RFC3339 in Timezone
	Duration  int    `json:"duration"`
	Timezone  string `json:"timezone"`
	Type      int    `json:"type"` // 2 = scheduled
}

type meetingsPage struct {
	NextPageToken string       `json:"next_page_token"`
	Meetings      []APIMeeting `json:"meetings"`
}

// ListMeetings returns all upcoming scheduled meetings for a user, following
// pagination.
func (c *Client) ListMeetings(ctx context.Context, userID string) ([]APIMeeting, error) {
	out := make([]APIMeeting, 0)
	pageToken := ""
	for {
		q := url.Values{
			"type":      {"upcoming"},
			"page_size": {"300"},
		}
		if pageToken != "" {
			q.Set("next_page_token", pageToken)
		}

		var page meetingsPage
		if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/meetings", q, nil, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Meetings...)

		if page.NextPageToken == "" {
			return out, nil
		}
		pageToken = page.NextPageToken
	}
}

// CreateMeeting schedules a new meeting for the user.
func (c *Client) CreateMeeting(ctx context.Context, userID string, req MeetingRequest) (APIMeeting, error) {
	if req.Type == 0 {
		req.Type = 2
	}
	var m APIMeeting
	err := c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(userID)+"/meetings", nil, req, &m)
	return m, err
}

// UpdateMeeting patches an existing meeting.
func (c *Client) UpdateMeeting(ctx context.Context, meetingID int64, req MeetingRequest) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/meetings/%d", meetingID), nil, req, nil)
}

// DeleteMeeting removes a meeting.
func (c *Client) DeleteMeeting(ctx context.Context, meetingID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/meetings/%d", meetingID), nil, nil, nil)
}

// recordingsPage mirrors Zoom's recordings list response.
type recordingsPage struct {
	NextPageToken string `json:"next_page_token"`
	Meetings      []struct {
		ID             int64  `json:"id"`
		Topic          string `json:"topic"`
		StartTime      string `json:"start_time"`
		Duration       int    `json:"duration"`
		RecordingFiles []struct {
			FileType    string `json:"file_type"`
			FileSize    int64  `json:"file_size"`
			DownloadURL string `json:"download_url"`
			PlayURL     string `json:"play_url"`
		} `json:"recording_files"`
	} `json:"meetings"`
}

// RecordingFile is one cloud recording artifact.
type RecordingFile struct {
	MeetingID   int64
	Topic       string
	StartTime   string
	DurationMin int
	FileType    string
	FileSize    int64
	DownloadURL string
	PlayURL     string
}

// ListRecordings returns cloud recordings for a user between two dates
// (YYYY-MM-DD, Zoom's own query format).
func (c *Client) ListRecordings(ctx context.Context, userID, from, to string) ([]RecordingFile, error) {
	out := make([]RecordingFile, 0)
	pageToken := ""
	for {
		q := url.Values{
			"from":      {from},
			"to":        {to},
			"page_size": {"300"},
		}
		if pageToken != "" {
			q.Set("next_page_token", pageToken)
		}

		var page recordingsPage
		if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID)+"/recordings", q, nil, &page); err != nil {
			return nil, err
		}
		for _, m := range page.Meetings {
			for _, f := range m.RecordingFiles {
				out = append(out, RecordingFile{
					MeetingID:   m.ID,
					Topic:       m.Topic,
					StartTime:   m.StartTime,
					DurationMin: m.Duration,
					FileType:    f.FileType,
					FileSize:    f.FileSize,
					DownloadURL: f.DownloadURL,
					PlayURL:     f.PlayURL,
				})
			}
		}

		if page.NextPageToken == "" {
			return out, nil
		}
		pageToken = page.NextPageToken
	}
}
