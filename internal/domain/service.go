package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidURL       = errors.New("invalid YouTube URL")
	ErrVideoNotFound    = errors.New("video not processed")
	ErrNotReady         = errors.New("still processing")
	ErrChainUnavailable = errors.New("RAG chain unavailable")
	ErrQueueFull        = errors.New("build queue is full")
)

// TranscriptUnavailable is the error stored when no strategy yields a transcript.
const TranscriptUnavailable = "Transcript not available"

// AnswerError wraps a failure raised while invoking a chain.
type AnswerError struct {
	Err error
}

func (e *AnswerError) Error() string {
	return "RAG error: " + e.Err.Error()
}

func (e *AnswerError) Unwrap() error {
	return e.Err
}

// StatusReport is the answer to a status query.
type StatusReport struct {
	Found  bool
	Status Status
	State  State
	Error  string
}

// Pipeline bundles the collaborators a VideoService drives.
type Pipeline struct {
	Store      RecordStore
	Queue      BuildQueue
	Fetcher    TranscriptFetcher
	Translator Translator
	Indexer    IndexBuilder
	Chains     ChainBuilder
	// Cache is optional.
	Cache  TranscriptCache
	Logger *zap.Logger
}

// VideoService owns the submission, build and question flows.
type VideoService struct {
	store      RecordStore
	queue      BuildQueue
	fetcher    TranscriptFetcher
	translator Translator
	indexer    IndexBuilder
	chains     ChainBuilder
	cache      TranscriptCache
	log        *zap.Logger

	now     func() time.Time
	buildID func() string
}

// NewVideoService creates a new VideoService.
func NewVideoService(p Pipeline) *VideoService {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &VideoService{
		store:      p.Store,
		queue:      p.Queue,
		fetcher:    p.Fetcher,
		translator: p.Translator,
		indexer:    p.Indexer,
		chains:     p.Chains,
		cache:      p.Cache,
		log:        log,
		now:        time.Now,
		buildID:    uuid.NewString,
	}
}

// Submit registers a processing record for the URL and schedules its build.
func (s *VideoService) Submit(ctx context.Context, rawURL string) (*Record, error) {
	videoID, ok := ExtractVideoID(rawURL)
	if !ok {
		return nil, ErrInvalidURL
	}

	rec := NewProcessingRecord(videoID, s.buildID(), s.now())
	s.store.Put(rec)

	task := BuildTask{VideoID: videoID, URL: rawURL, BuildID: rec.BuildID}
	if err := s.queue.Enqueue(task); err != nil {
		s.log.Warn("build not scheduled",
			zap.String("video_id", videoID), zap.Error(err))
		s.store.Put(rec.MarkFailed(err.Error(), s.now()))
		return nil, err
	}

	s.log.Info("video submitted",
		zap.String("video_id", videoID), zap.String("build_id", rec.BuildID))
	return rec, nil
}

// Build runs acquisition, indexing and chain construction for one task and
// stores exactly one terminal record. Failures never escape.
func (s *VideoService) Build(ctx context.Context, task BuildTask) {
	log := s.log.With(zap.String("video_id", task.VideoID), zap.String("build_id", task.BuildID))
	base := s.baseRecord(task)
	start := s.now()
	log.Info("processing video")

	transcript, outcome := s.acquire(ctx, task.VideoID)
	if !outcome.OK() {
		reason := TranscriptUnavailable
		if outcome.Kind == OutcomeTransient && outcome.Reason != "" {
			reason += ": " + outcome.Reason
		}
		log.Warn("transcript fetch failed",
			zap.Stringer("outcome", outcome.Kind), zap.String("reason", outcome.Reason))
		s.store.Put(base.MarkFailed(reason, s.now()))
		return
	}
	log.Info("transcript fetched",
		zap.String("strategy", outcome.Strategy), zap.Int("chars", len(transcript)))

	retriever, err := s.indexer.BuildRetriever(ctx, transcript)
	if err != nil {
		log.Error("index build failed", zap.Error(err))
		s.store.Put(base.MarkFailed(err.Error(), s.now()))
		return
	}
	chain, err := s.chains.BuildChain(retriever)
	if err != nil {
		log.Error("chain build failed", zap.Error(err))
		s.store.Put(base.MarkFailed(err.Error(), s.now()))
		return
	}

	s.store.Put(base.MarkReady(transcript, retriever, chain, s.now()))
	log.Info("pipeline built", zap.Duration("elapsed", s.now().Sub(start)))
}

// Fail records a terminal failure for a task whose build could not run.
func (s *VideoService) Fail(task BuildTask, reason string) {
	s.store.Put(s.baseRecord(task).MarkFailed(reason, s.now()))
}

func (s *VideoService) baseRecord(task BuildTask) *Record {
	if rec, ok := s.store.Get(task.VideoID); ok && rec.BuildID == task.BuildID {
		return rec
	}
	return NewProcessingRecord(task.VideoID, task.BuildID, s.now())
}

// acquire returns the (translated) transcript, consulting the cache first.
// Cached text passes through the translator again, since a failed translation
// leaves the original text in the cache.
func (s *VideoService) acquire(ctx context.Context, videoID string) (string, Outcome) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, videoID)
		switch {
		case err != nil:
			s.log.Warn("transcript cache read failed", zap.String("video_id", videoID), zap.Error(err))
		case ok:
			text := s.translator.TranslateIfNeeded(ctx, cached)
			if text != cached {
				s.storeTranscript(ctx, videoID, text)
			}
			return text, Success("cache", text)
		}
	}

	outcome := s.fetcher.FetchTranscript(ctx, videoID)
	if !outcome.OK() {
		return "", outcome
	}
	text := s.translator.TranslateIfNeeded(ctx, outcome.Text)
	if s.cache != nil {
		s.storeTranscript(ctx, videoID, text)
	}
	return text, outcome
}

func (s *VideoService) storeTranscript(ctx context.Context, videoID, text string) {
	if err := s.cache.Put(ctx, videoID, text); err != nil {
		s.log.Warn("transcript cache write failed", zap.String("video_id", videoID), zap.Error(err))
	}
}

// Ask answers a question against a ready record.
func (s *VideoService) Ask(ctx context.Context, videoID, question string) (string, error) {
	rec, ok := s.store.Get(videoID)
	if !ok {
		return "", ErrVideoNotFound
	}
	if !rec.Ready {
		return "", ErrNotReady
	}
	if rec.Chain == nil {
		return "", ErrChainUnavailable
	}

	answer, err := rec.Chain.Invoke(ctx, question)
	if err != nil {
		s.log.Error("chain invocation failed", zap.String("video_id", videoID), zap.Error(err))
		return "", &AnswerError{Err: err}
	}
	return answer, nil
}

// Status reports the coarse and fine state of a record.
func (s *VideoService) Status(videoID string) StatusReport {
	rec, ok := s.store.Get(videoID)
	if !ok {
		return StatusReport{Status: StatusNotFound}
	}
	return StatusReport{
		Found:  true,
		Status: rec.Status(),
		State:  rec.State(),
		Error:  rec.ErrorMessage(),
	}
}

// Inspect returns the raw record.
func (s *VideoService) Inspect(videoID string) (*Record, error) {
	rec, ok := s.store.Get(videoID)
	if !ok {
		return nil, ErrVideoNotFound
	}
	return rec, nil
}
