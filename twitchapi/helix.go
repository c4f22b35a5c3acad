// Package twitchapi looks up archived VOD metadata on Twitch Helix using an
// app access token, so stored transcripts carry the VOD's title, date and
// length.
package twitchapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"
)

const helixVideosURL = "https://api.twitch.tv/helix/videos"

// ErrVideoNotFound is returned when Helix has no video for the id.
var ErrVideoNotFound = errors.New("twitch video not found")

// Video is the subset of Helix video fields stored alongside a transcript.
type Video struct {
	ID              string
	Title           string
	CreatedAt       time.Time
	DurationSeconds int
}

// HelixClient issues Helix requests with tokens from AppTokenSource.
type HelixClient struct {
	AppTokenSource *TokenSource
	ClientID       string
	HTTPClient     *http.Client
}

func (hc *HelixClient) http() *http.Client {
	if hc.HTTPClient != nil {
		return hc.HTTPClient
	}
	return http.DefaultClient
}

// GetVideo fetches one video by id.
func (hc *HelixClient) GetVideo(ctx context.Context, id string) (*Video, error) {
	if id == "" {
		return nil, fmt.Errorf("video id empty")
	}
	tok, err := hc.AppTokenSource.Get(ctx)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, helixVideosURL, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("id", id)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Client-Id", hc.ClientID)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := hc.http().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, id)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("helix videos: %s", resp.Status)
	}
	var body struct {
		Data []struct {
			ID        string `json:"id"`
			Title     string `json:"title"`
			Duration  string `json:"duration"`
			CreatedAt string `json:"created_at"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, id)
	}
	d := body.Data[0]
	v := &Video{ID: d.ID, Title: d.Title, DurationSeconds: ParseDuration(d.Duration)}
	if t, err := time.Parse(time.RFC3339, d.CreatedAt); err == nil {
		v.CreatedAt = t
	}
	return v, nil
}

var durationRe = regexp.MustCompile(`^(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?$`)

// ParseDuration converts Helix durations like "3h2m1s" or "45m" to seconds.
// Unrecognized input yields 0.
func ParseDuration(s string) int {
	m := durationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	total := 0
	for i, mult := range []int{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, _ := strconv.Atoi(m[i+1])
		total += n * mult
	}
	return total
}
