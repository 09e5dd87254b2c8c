package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"regexp"
	"strings"
)

var tagRe = regexp.MustCompile(`<[^>]+>`)

// needsPoToken reports whether a caption track URL requires a PoToken.
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

func languageMatches(code, lang string) bool {
	return code == lang || strings.HasPrefix(code, lang+"-")
}

// pickTrack selects a caption track following the language preference.
// Manual tracks win over auto-generated ones within a language. Without a
// preferred match any English track is taken, then the first usable one.
func pickTrack(tracks []captionTrack, langs []string) (captionTrack, error) {
	if len(tracks) == 0 {
		return captionTrack{}, unavailable("no caption tracks")
	}
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, unavailable("all caption tracks require PoToken")
	}

	for _, lang := range langs {
		var auto *captionTrack
		for i, t := range usable {
			if !languageMatches(t.LanguageCode, lang) {
				continue
			}
			if t.Kind != "asr" {
				return t, nil
			}
			if auto == nil {
				auto = &usable[i]
			}
		}
		if auto != nil {
			return *auto, nil
		}
	}
	for _, t := range usable {
		if languageMatches(t.LanguageCode, "en") {
			return t, nil
		}
	}
	return usable[0], nil
}

// cleanCaption strips markup and entities and collapses whitespace.
func cleanCaption(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// joinFragments concatenates non-empty caption fragments with single spaces.
func joinFragments(fragments []string) string {
	var sb strings.Builder
	for _, f := range fragments {
		f = cleanCaption(f)
		if f == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(f)
	}
	return sb.String()
}

// parseTimedText extracts plain text from timedtext XML (srv1 or srv3).
func parseTimedText(body []byte) (string, error) {
	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext XML: %w", err)
	}
	lines := append(tt.Lines, tt.Paragraphs...)
	fragments := make([]string, 0, len(lines))
	for _, l := range lines {
		// innerxml is still XML-escaped; captions are HTML-escaped again inside.
		fragments = append(fragments, html.UnescapeString(tagRe.ReplaceAllString(l.Inner, "")))
	}
	return joinFragments(fragments), nil
}

// fetchTimedText downloads and flattens a caption track.
func (c *Client) fetchTimedText(ctx context.Context, track captionTrack) (string, error) {
	body, err := c.get(ctx, track.BaseURL, chromeUserAgent, 2*1024*1024)
	if err != nil {
		return "", fmt.Errorf("fetch timedtext: %w", err)
	}
	text, err := parseTimedText(body)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", unavailable("empty caption track (%s)", track.LanguageCode)
	}
	return text, nil
}
