package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_State(t *testing.T) {
	now := time.Now()
	base := NewProcessingRecord("abc", "b1", now)

	tests := []struct {
		name       string
		rec        *Record
		wantState  State
		wantStatus Status
	}{
		{
			name:       "fresh record is processing",
			rec:        base,
			wantState:  StateProcessing,
			wantStatus: StatusProcessing,
		},
		{
			name:       "ready record",
			rec:        base.MarkReady("text", stubRetriever{}, stubChain{answer: "a"}, now),
			wantState:  StateReady,
			wantStatus: StatusReady,
		},
		{
			name:       "failed record reports processing",
			rec:        base.MarkFailed("boom", now),
			wantState:  StateError,
			wantStatus: StatusProcessing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantState, tt.rec.State())
			assert.Equal(t, tt.wantStatus, tt.rec.Status())
		})
	}
}

func TestRecord_TransitionsDoNotMutateBase(t *testing.T) {
	base := NewProcessingRecord("abc", "b1", time.Now())

	ready := base.MarkReady("text", stubRetriever{}, stubChain{}, time.Now())
	failed := base.MarkFailed("boom", time.Now())

	assert.False(t, base.Ready)
	assert.Nil(t, base.Error)
	assert.True(t, ready.Ready)
	assert.NotNil(t, ready.Chain)
	assert.False(t, failed.Ready)
	assert.Nil(t, failed.Chain)
	assert.Equal(t, "boom", failed.ErrorMessage())
}

func TestRecord_MarshalJSON(t *testing.T) {
	now := time.Date(2026, 1, 19, 12, 0, 0, 0, time.UTC)
	rec := NewProcessingRecord("abc", "b1", now).MarkReady("hello world", stubRetriever{}, stubChain{}, now)

	b, err := json.Marshal(rec)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "abc", got["video_id"])
	assert.Equal(t, true, got["ready"])
	assert.Equal(t, "ready", got["state"])
	assert.Equal(t, "hello world", got["transcript"])
	assert.Equal(t, true, got["has_chain"])
	assert.Nil(t, got["error"])
}

func TestRecord_MarshalJSON_Processing(t *testing.T) {
	rec := NewProcessingRecord("abc", "b1", time.Now())

	b, err := json.Marshal(rec)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, false, got["ready"])
	assert.Nil(t, got["transcript"])
	assert.Equal(t, false, got["has_chain"])
}
