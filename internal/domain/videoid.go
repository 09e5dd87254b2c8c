package domain

import "strings"

// ExtractVideoID derives the video identifier from a submitted URL.
//
// URLs carrying "v=" yield the text after the last "v=" up to the next "&".
// youtu.be links yield their final path segment. Anything else fails.
func ExtractVideoID(rawURL string) (string, bool) {
	var id string
	switch {
	case strings.Contains(rawURL, "v="):
		id = rawURL[strings.LastIndex(rawURL, "v=")+2:]
		if i := strings.IndexByte(id, '&'); i >= 0 {
			id = id[:i]
		}
	case strings.Contains(rawURL, "youtu.be"):
		id = rawURL[strings.LastIndex(rawURL, "/")+1:]
	default:
		return "", false
	}
	if id == "" {
		return "", false
	}
	return id, true
}
