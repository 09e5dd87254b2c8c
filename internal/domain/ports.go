package domain

import "context"

// Retriever returns the chunks most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]string, error)
}

// Chain maps a question onto an answer.
type Chain interface {
	Invoke(ctx context.Context, question string) (string, error)
}

// TranscriptFetcher is the driven port for transcript acquisition.
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, videoID string) Outcome
}

// Translator rewrites non-English transcripts into English.
// It never fails: on error the input comes back unchanged.
type Translator interface {
	TranslateIfNeeded(ctx context.Context, text string) string
}

// IndexBuilder builds a retriever over transcript text.
type IndexBuilder interface {
	BuildRetriever(ctx context.Context, text string) (Retriever, error)
}

// ChainBuilder composes an answer chain on top of a retriever.
type ChainBuilder interface {
	BuildChain(retriever Retriever) (Chain, error)
}

// RecordStore is the driven port for video records.
type RecordStore interface {
	Put(rec *Record)
	Get(videoID string) (*Record, bool)
}

// TranscriptCache stores acquired transcripts by video ID.
type TranscriptCache interface {
	Get(ctx context.Context, videoID string) (string, bool, error)
	Put(ctx context.Context, videoID, transcript string) error
}

// BuildQueue schedules background builds.
type BuildQueue interface {
	Enqueue(task BuildTask) error
}

// BuildTask identifies one submission to build.
type BuildTask struct {
	VideoID string
	URL     string
	BuildID string
}
