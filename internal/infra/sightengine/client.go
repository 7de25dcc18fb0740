package sightengine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultEndpoint = "https://api.sightengine.com/1.0/check.json"

// Client calls a Sightengine-compatible image classification endpoint and
// extracts the AI-generated probability. The signal is advisory only, so
// there are no retries.
type Client struct {
	apiUser   string
	apiSecret string
	endpoint  string
	http      *http.Client
}

func New(apiUser, apiSecret, endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiUser:   apiUser,
		apiSecret: apiSecret,
		endpoint:  endpoint,
		http:      &http.Client{Timeout: timeout},
	}
}

// Score returns 0–100 probability that the image at imageURL is AI-generated.
func (c *Client) Score(ctx context.Context, imageURL string) (int, error) {
	form := url.Values{}
	form.Set("api_user", c.apiUser)
	form.Set("api_secret", c.apiSecret)
	form.Set("url", imageURL)
	form.Set("models", "genai")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var body struct {
		Type struct {
			AIGenerated *float64 `json:"ai_generated"`
		} `json:"type"`
		AIGenerated struct {
			Score *float64 `json:"score"`
		} `json:"ai_generated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decoding classifier response: %w", err)
	}

	// Two response shapes exist; prefer type.ai_generated.
	score := body.Type.AIGenerated
	if score == nil {
		score = body.AIGenerated.Score
	}
	if score == nil {
		return 0, fmt.Errorf("classifier response missing ai_generated score")
	}
	return int(math.Round(*score * 100)), nil
}
