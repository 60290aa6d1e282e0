package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/keywatch/keywatch/internal/agent/match"
	"github.com/keywatch/keywatch/internal/agent/state"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Client talks to the server's JSON API. Every call carries the client's
// bounded timeout so a dead server fails fast into the caller's
// swallow-and-log path.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type keywordItem struct {
	ID        string `json:"id"`
	Keyword   string `json:"keyword"`
	MatchType string `json:"match_type"`
	CreatedAt string `json:"created_at"`
}

type keywordsResponse struct {
	Success bool          `json:"success"`
	Data    []keywordItem `json:"data"`
}

type alertPayload struct {
	DeviceID      string `json:"device_id"`
	DeviceName    string `json:"device_name"`
	DeviceRemark  string `json:"device_remark"`
	Keyword       string `json:"keyword"`
	TriggeredText string `json:"triggered_text"`
	DeviceTime    string `json:"device_time"`
}

type heartbeatPayload struct {
	DeviceID     string `json:"device_id"`
	DeviceName   string `json:"device_name"`
	DeviceModel  string `json:"device_model"`
	DeviceRemark string `json:"device_remark"`
}

type passwordResponse struct {
	Success bool   `json:"success"`
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// FetchKeywords retrieves the current keyword set.
func (c *Client) FetchKeywords(ctx context.Context) ([]match.Rule, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/keywords", nil)
	if err != nil {
		return nil, oops.Wrap(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, oops.With("context", "fetching keywords").Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, oops.Errorf("keyword fetch returned status %d", resp.StatusCode)
	}

	var result keywordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, oops.With("context", "decoding keywords").Wrap(err)
	}
	if !result.Success {
		return nil, oops.Errorf("keyword fetch unsuccessful")
	}

	rules := lo.Map(result.Data, func(item keywordItem, _ int) match.Rule {
		createdAt, _ := time.Parse(time.RFC3339, item.CreatedAt)
		return match.Rule{
			ID:        item.ID,
			Text:      item.Keyword,
			Mode:      match.Normalize(item.MatchType),
			CreatedAt: createdAt,
		}
	})
	return rules, nil
}

// ReportAlert submits one keyword trigger. Best effort: the caller logs and
// drops any error, there is no retry or queue.
func (c *Client) ReportAlert(ctx context.Context, identity *state.Identity, keyword, triggeredText, deviceTime string) error {
	payload := alertPayload{
		DeviceID:      identity.DeviceID,
		DeviceName:    identity.DeviceName,
		DeviceRemark:  identity.DeviceRemark,
		Keyword:       keyword,
		TriggeredText: triggeredText,
		DeviceTime:    deviceTime,
	}
	return c.post(ctx, "/api/alerts", payload, nil)
}

// Heartbeat reports the device as alive.
func (c *Client) Heartbeat(ctx context.Context, identity *state.Identity) error {
	payload := heartbeatPayload{
		DeviceID:     identity.DeviceID,
		DeviceName:   identity.DeviceName,
		DeviceModel:  identity.DeviceModel,
		DeviceRemark: identity.DeviceRemark,
	}
	return c.post(ctx, "/api/devices/heartbeat", payload, nil)
}

// VerifyPassword checks the access password with the server.
func (c *Client) VerifyPassword(ctx context.Context, password string) (bool, error) {
	var result passwordResponse
	err := c.post(ctx, "/api/verify-password", map[string]string{"password": password}, &result)
	if err != nil {
		return false, err
	}
	return result.Success && result.Valid, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return oops.With("path", path).Wrap(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return oops.With("path", path).Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return oops.With("path", path).Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oops.Errorf("%s returned status %d", path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return oops.With("path", path).Wrap(err)
		}
	}
	return nil
}
