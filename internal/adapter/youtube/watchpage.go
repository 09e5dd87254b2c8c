package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/cwygoda/vidrag/internal/domain"
)

const playerResponseMarker = "ytInitialPlayerResponse = "

var errMarkerMissing = errors.New("ytInitialPlayerResponse not found in watch page")

// WatchPageStrategy scrapes ytInitialPlayerResponse from the watch page HTML.
type WatchPageStrategy struct {
	client *Client
}

// NewWatchPageStrategy creates a new WatchPageStrategy.
func NewWatchPageStrategy(c *Client) *WatchPageStrategy {
	return &WatchPageStrategy{client: c}
}

// Name implements Strategy.
func (s *WatchPageStrategy) Name() string { return "watchpage" }

// Fetch scrapes the player response embedded in the watch page.
func (s *WatchPageStrategy) Fetch(ctx context.Context, videoID string) domain.Outcome {
	text, err := s.fetch(ctx, videoID)
	if err != nil {
		return classify(s.Name(), err)
	}
	return domain.Success(s.Name(), text)
}

func (s *WatchPageStrategy) fetch(ctx context.Context, videoID string) (string, error) {
	watchURL := s.client.endpoints.Watch + "?v=" + url.QueryEscape(videoID)
	page, err := s.client.get(ctx, watchURL, chromeUserAgent, 6*1024*1024)
	if err != nil {
		return "", fmt.Errorf("watch page: %w", err)
	}

	idx := bytes.Index(page, []byte(playerResponseMarker))
	if idx < 0 {
		// Consent and bot-check interstitials lack the marker.
		return "", errMarkerMissing
	}
	raw := extractJSON(page[idx+len(playerResponseMarker):])
	if raw == nil {
		return "", errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	var resp playerResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	if err := checkPlayable(resp); err != nil {
		return "", err
	}
	track, err := pickTrack(resp.tracks(), s.client.languages)
	if err != nil {
		return "", err
	}
	return s.client.fetchTimedText(ctx, track)
}

// extractJSON returns the balanced JSON object at the start of data,
// or nil when none is found.
func extractJSON(data []byte) []byte {
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	depth := 0
	inString := false
	escaped := false
	for i, b := range data {
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString && b == '\\':
			escaped = true
		case b == '"':
			inString = !inString
		case inString:
		case b == '{':
			depth++
		case b == '}':
			depth--
			if depth == 0 {
				return data[:i+1]
			}
		}
	}
	return nil
}
