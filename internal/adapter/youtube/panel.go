package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"

	"github.com/cwygoda/vidrag/internal/domain"
)

var transcriptParamsRe = regexp.MustCompile(`"getTranscriptEndpoint":\{"params":"([^"]+)"`)

// PanelStrategy walks the engagement panel: POST /next for the transcript
// continuation token, then POST /get_transcript for the segments.
type PanelStrategy struct {
	client *Client
}

// NewPanelStrategy creates a new PanelStrategy.
func NewPanelStrategy(c *Client) *PanelStrategy {
	return &PanelStrategy{client: c}
}

// Name implements Strategy.
func (s *PanelStrategy) Name() string { return "panel" }

// Fetch reads the transcript from the engagement panel.
func (s *PanelStrategy) Fetch(ctx context.Context, videoID string) domain.Outcome {
	text, err := s.fetch(ctx, videoID)
	if err != nil {
		return classify(s.Name(), err)
	}
	return domain.Success(s.Name(), text)
}

func (s *PanelStrategy) fetch(ctx context.Context, videoID string) (string, error) {
	visitor := visitorData()
	headers := map[string]string{
		"User-Agent":               chromeUserAgent,
		"Origin":                   "https://www.youtube.com",
		"X-Youtube-Client-Name":    "1",
		"X-Youtube-Client-Version": webClientVersion,
		"X-Goog-Visitor-Id":        visitor,
	}

	next, err := s.client.postJSON(ctx, s.client.endpoints.Next, map[string]any{
		"videoId": videoID,
		"context": webContext(visitor),
	}, headers)
	if err != nil {
		return "", fmt.Errorf("/next: %w", err)
	}
	token, err := transcriptToken(next)
	if err != nil {
		return "", err
	}

	data, err := s.client.postJSON(ctx, s.client.endpoints.GetTranscript, map[string]any{
		"params":  token,
		"context": webContext(visitor),
	}, headers)
	if err != nil {
		return "", fmt.Errorf("/get_transcript: %w", err)
	}

	var resp getTranscriptResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode transcript: %w", err)
	}
	text := joinFragments(segmentTexts(resp))
	if text == "" {
		return "", unavailable("empty transcript segments")
	}
	return text, nil
}

// transcriptToken pulls the get_transcript params out of a raw /next body.
// The value is URL-encoded there; /get_transcript wants it decoded.
func transcriptToken(data []byte) (string, error) {
	m := transcriptParamsRe.FindSubmatch(data)
	if len(m) < 2 {
		return "", unavailable("no transcript panel")
	}
	decoded, err := url.QueryUnescape(string(m[1]))
	if err != nil {
		return string(m[1]), nil
	}
	return decoded, nil
}

func segmentTexts(resp getTranscriptResponse) []string {
	var out []string
	for _, action := range resp.Actions {
		if action.UpdateEngagementPanelAction == nil {
			continue
		}
		segs := action.UpdateEngagementPanelAction.Content.
			TranscriptRenderer.Content.
			TranscriptSearchPanelRenderer.Body.
			TranscriptSegmentListRenderer.InitialSegments
		for _, seg := range segs {
			if seg.TranscriptSegmentRenderer == nil {
				continue
			}
			for _, run := range seg.TranscriptSegmentRenderer.Snippet.Runs {
				out = append(out, run.Text)
			}
		}
	}
	return out
}
