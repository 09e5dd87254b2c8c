package youtube

import (
	"context"

	"go.uber.org/zap"

	"github.com/cwygoda/vidrag/internal/domain"
)

// Strategy is one way of acquiring a transcript.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, videoID string) domain.Outcome
}

// Fetcher tries registered strategies in order until one succeeds.
type Fetcher struct {
	strategies []Strategy
	log        *zap.Logger
}

// NewFetcher creates an empty fetcher.
func NewFetcher(log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{log: log}
}

// NewDefaultFetcher registers the player, watch page and panel strategies.
func NewDefaultFetcher(c *Client, log *zap.Logger) *Fetcher {
	f := NewFetcher(log)
	f.Register(NewPlayerStrategy(c))
	f.Register(NewWatchPageStrategy(c))
	f.Register(NewPanelStrategy(c))
	return f
}

// Register appends a strategy.
func (f *Fetcher) Register(s Strategy) {
	f.strategies = append(f.strategies, s)
}

// Strategies returns all registered strategies.
func (f *Fetcher) Strategies() []Strategy {
	return f.strategies
}

// FetchTranscript returns the first successful outcome, or the combined
// failure of every strategy tried.
func (f *Fetcher) FetchTranscript(ctx context.Context, videoID string) domain.Outcome {
	failures := make([]domain.Outcome, 0, len(f.strategies))
	for _, s := range f.strategies {
		if err := ctx.Err(); err != nil {
			failures = append(failures, domain.TransientError(s.Name(), err.Error()))
			break
		}
		o := s.Fetch(ctx, videoID)
		o.Strategy = s.Name()
		if o.OK() {
			if o.Text == "" {
				o = domain.NotAvailable(s.Name(), "empty transcript")
			} else {
				return o
			}
		}
		f.log.Info("transcript strategy failed",
			zap.String("video_id", videoID),
			zap.String("strategy", s.Name()),
			zap.Stringer("outcome", o.Kind),
			zap.String("reason", o.Reason))
		failures = append(failures, o)
	}
	return domain.CombineFailures(failures)
}
