package youtube

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cwygoda/vidrag/internal/domain"
)

// PlayerStrategy reads caption tracks from the ANDROID Innertube /player
// endpoint. It works from residential and most cloud IP addresses.
type PlayerStrategy struct {
	client *Client
}

// NewPlayerStrategy creates a new PlayerStrategy.
func NewPlayerStrategy(c *Client) *PlayerStrategy {
	return &PlayerStrategy{client: c}
}

// Name implements Strategy.
func (s *PlayerStrategy) Name() string { return "player" }

// Fetch picks a caption track from the player response and downloads it.
func (s *PlayerStrategy) Fetch(ctx context.Context, videoID string) domain.Outcome {
	text, err := s.fetch(ctx, videoID)
	if err != nil {
		return classify(s.Name(), err)
	}
	return domain.Success(s.Name(), text)
}

func (s *PlayerStrategy) fetch(ctx context.Context, videoID string) (string, error) {
	req := playerRequest{
		VideoID: videoID,
		Context: clientContext{Client: clientInfo{
			ClientName:        "ANDROID",
			ClientVersion:     androidClientVersion,
			AndroidSdkVersion: 30,
			Hl:                "en",
			Gl:                "US",
		}},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	}
	body, err := s.client.postJSON(ctx, s.client.endpoints.Player, req, map[string]string{
		"User-Agent":               androidUserAgent,
		"X-Youtube-Client-Name":    "3",
		"X-Youtube-Client-Version": androidClientVersion,
	})
	if err != nil {
		return "", fmt.Errorf("android innertube: %w", err)
	}

	var resp playerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode player: %w", err)
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

// checkPlayable separates videos that will never yield captions from
// responses where YouTube is refusing this client for now.
func checkPlayable(resp playerResponse) error {
	if resp.PlayabilityStatus != nil {
		switch resp.PlayabilityStatus.Status {
		case "ERROR", "UNPLAYABLE":
			return unavailable("video unplayable: %s", resp.unplayableReason())
		case "LOGIN_REQUIRED":
			return fmt.Errorf("login required: %s", resp.unplayableReason())
		}
	}
	if resp.Captions == nil {
		if reason := resp.unplayableReason(); reason != "" {
			return unavailable("captions unavailable: %s", reason)
		}
		return unavailable("no captions in player response")
	}
	return nil
}
