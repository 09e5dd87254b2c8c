package youtube

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cwygoda/vidrag/internal/config"
	"github.com/cwygoda/vidrag/internal/domain"
)

var subtitleExts = []string{".vtt", ".srt", ".txt"}

// CommandStrategy runs an external command (typically yt-dlp) that writes
// subtitle files into a scratch directory, then reads the best one.
type CommandStrategy struct {
	command   string
	args      []string
	timeout   time.Duration
	languages []string
	log       *zap.Logger
}

// NewCommandStrategy creates a strategy from config.
func NewCommandStrategy(cc config.CommandConfig, languages []string, log *zap.Logger) (*CommandStrategy, error) {
	if cc.Command == "" {
		return nil, errors.New("command strategy: empty command")
	}
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cc.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &CommandStrategy{
		command:   cc.Command,
		args:      cc.Args,
		timeout:   timeout,
		languages: languages,
		log:       log,
	}, nil
}

// Name implements Strategy.
func (s *CommandStrategy) Name() string { return "command" }

// Fetch runs the configured command and parses the subtitle file it writes.
func (s *CommandStrategy) Fetch(ctx context.Context, videoID string) domain.Outcome {
	text, err := s.fetch(ctx, videoID)
	if err != nil {
		return classify(s.Name(), err)
	}
	return domain.Success(s.Name(), text)
}

func (s *CommandStrategy) fetch(ctx context.Context, videoID string) (string, error) {
	watchURL := defaultWatchURL + "?v=" + videoID
	args := make([]string, len(s.args))
	for i, arg := range s.args {
		arg = strings.ReplaceAll(arg, "{url}", watchURL)
		args[i] = strings.ReplaceAll(arg, "{id}", videoID)
	}

	tempDir, err := os.MkdirTemp("", "vidrag-"+sanitizeID(videoID)+"-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)
	s.log.Debug("running transcript command",
		zap.String("video_id", videoID), zap.String("command", s.command), zap.String("dir", tempDir))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, s.command, args...)
	cmd.Dir = tempDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", s.command, err, truncate(string(output), 512))
	}

	path, err := s.pickFile(tempDir)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read subtitles: %w", err)
	}
	text := parseSubtitles(string(data))
	if text == "" {
		return "", unavailable("empty subtitle file %s", filepath.Base(path))
	}
	return text, nil
}

// pickFile chooses the produced subtitle file, preferring configured languages.
func (s *CommandStrategy) pickFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && slices.Contains(subtitleExts, strings.ToLower(filepath.Ext(entry.Name()))) {
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		return "", unavailable("command produced no subtitle file")
	}
	for _, lang := range s.languages {
		for _, f := range files {
			if strings.Contains(f, "."+lang+".") || strings.Contains(f, "."+lang+"-") {
				return filepath.Join(dir, f), nil
			}
		}
	}
	return filepath.Join(dir, files[0]), nil
}

// parseSubtitles flattens WebVTT, SRT or plain text into one line of text.
// Cue numbers, timings and headers are dropped, as are lines repeating the
// previous one (rolling auto-captions repeat each line).
func parseSubtitles(raw string) string {
	var fragments []string
	prev := ""
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "",
			strings.HasPrefix(line, "WEBVTT"),
			strings.HasPrefix(line, "Kind:"),
			strings.HasPrefix(line, "Language:"),
			strings.HasPrefix(line, "NOTE"),
			strings.Contains(line, "-->"),
			isDigits(line):
			continue
		}
		line = cleanCaption(line)
		if line == "" || line == prev {
			continue
		}
		prev = line
		fragments = append(fragments, line)
	}
	return strings.Join(fragments, " ")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func sanitizeID(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, id)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
