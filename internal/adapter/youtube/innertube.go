package youtube

import "math/rand"

// Innertube wire types. Only the fields the strategies read are declared.

const (
	defaultWatchURL         = "https://www.youtube.com/watch"
	defaultPlayerURL        = "https://www.youtube.com/youtubei/v1/player"
	defaultNextURL          = "https://www.youtube.com/youtubei/v1/next"
	defaultGetTranscriptURL = "https://www.youtube.com/youtubei/v1/get_transcript"

	webClientVersion     = "2.20250222.10.00"
	androidClientVersion = "20.10.38"
	androidUserAgent     = "com.google.android.youtube/" + androidClientVersion + " (Linux; U; Android 11) gzip"
	chromeUserAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// Endpoints holds the YouTube URLs the strategies talk to.
type Endpoints struct {
	Watch         string
	Player        string
	Next          string
	GetTranscript string
}

// DefaultEndpoints points at www.youtube.com.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Watch:         defaultWatchURL,
		Player:        defaultPlayerURL,
		Next:          defaultNextURL,
		GetTranscript: defaultGetTranscriptURL,
	}
}

type playerRequest struct {
	VideoID        string        `json:"videoId"`
	Context        clientContext `json:"context"`
	RacyCheckOk    bool          `json:"racyCheckOk"`
	ContentCheckOk bool          `json:"contentCheckOk"`
}

type clientContext struct {
	Client clientInfo `json:"client"`
}

type clientInfo struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	VisitorData       string `json:"visitorData,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

type playerResponse struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

func (p playerResponse) tracks() []captionTrack {
	if p.Captions == nil {
		return nil
	}
	return p.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
}

func (p playerResponse) unplayableReason() string {
	if p.PlayabilityStatus == nil {
		return ""
	}
	return p.PlayabilityStatus.Reason
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

type timedText struct {
	Lines      []timedLine `xml:"text"`
	Paragraphs []timedLine `xml:"body>p"`
}

type timedLine struct {
	Inner string `xml:",innerxml"`
}

type getTranscriptResponse struct {
	Actions []struct {
		UpdateEngagementPanelAction *struct {
			Content struct {
				TranscriptRenderer struct {
					Content struct {
						TranscriptSearchPanelRenderer struct {
							Body struct {
								TranscriptSegmentListRenderer struct {
									InitialSegments []struct {
										TranscriptSegmentRenderer *struct {
											Snippet struct {
												Runs []struct {
													Text string `json:"text"`
												} `json:"runs"`
											} `json:"snippet"`
										} `json:"transcriptSegmentRenderer"`
									} `json:"initialSegments"`
								} `json:"transcriptSegmentListRenderer"`
							} `json:"body"`
						} `json:"transcriptSearchPanelRenderer"`
					} `json:"content"`
				} `json:"transcriptRenderer"`
			} `json:"content"`
		} `json:"updateEngagementPanelAction"`
	} `json:"actions"`
}

// visitorData creates a random 11-char visitor ID for Innertube requests.
func visitorData() string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	b := make([]byte, 11)
	for i := range b {
		b[i] = chars[rand.Intn(len(chars))] //nolint:gosec // non-cryptographic use
	}
	return string(b)
}

func webContext(visitor string) map[string]any {
	return map[string]any{
		"client": clientInfo{
			ClientName:    "WEB",
			ClientVersion: webClientVersion,
			VisitorData:   visitor,
			Hl:            "en",
			Gl:            "US",
		},
		"user":    map[string]bool{"enableSafetyMode": false},
		"request": map[string]bool{"useSsl": true},
	}
}
