package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwygoda/vidrag/internal/domain"
)

// mockBuilder implements Builder for testing.
type mockBuilder struct {
	mu       sync.Mutex
	built    []string
	failed   map[string]string
	panicOn  string
	block    chan struct{}
	ctxErrs  []error
	finished chan string
}

func newMockBuilder() *mockBuilder {
	return &mockBuilder{failed: make(map[string]string), finished: make(chan string, 16)}
}

func (m *mockBuilder) Build(ctx context.Context, task domain.BuildTask) {
	if m.block != nil {
		<-m.block
	}
	if task.VideoID == m.panicOn {
		panic("boom")
	}
	m.mu.Lock()
	m.built = append(m.built, task.VideoID)
	m.ctxErrs = append(m.ctxErrs, ctx.Err())
	m.mu.Unlock()
	m.finished <- task.VideoID
}

func (m *mockBuilder) Fail(task domain.BuildTask, reason string) {
	m.mu.Lock()
	m.failed[task.VideoID] = reason
	m.mu.Unlock()
	m.finished <- task.VideoID
}

func waitFor(t *testing.T, ch <-chan string, n int) {
	t.Helper()
	for range n {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for task")
		}
	}
}

func TestWorker_Enqueue_QueueFull(t *testing.T) {
	w := New(1, 2, nil)

	require.NoError(t, w.Enqueue(domain.BuildTask{VideoID: "a"}))
	require.NoError(t, w.Enqueue(domain.BuildTask{VideoID: "b"}))
	assert.ErrorIs(t, w.Enqueue(domain.BuildTask{VideoID: "c"}), domain.ErrQueueFull)
	assert.Equal(t, 2, w.Pending())
}

func TestWorker_Run_ProcessesTasks(t *testing.T) {
	w := New(2, 8, nil)
	b := newMockBuilder()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, b)

	require.NoError(t, w.Enqueue(domain.BuildTask{VideoID: "a"}))
	require.NoError(t, w.Enqueue(domain.BuildTask{VideoID: "b"}))
	waitFor(t, b.finished, 2)

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b"}, b.built)
}

func TestWorker_PanicRecordedAsFailure(t *testing.T) {
	w := New(1, 4, nil)
	b := newMockBuilder()
	b.panicOn = "bad"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, b)

	require.NoError(t, w.Enqueue(domain.BuildTask{VideoID: "bad"}))
	require.NoError(t, w.Enqueue(domain.BuildTask{VideoID: "good"}))
	waitFor(t, b.finished, 2)

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Equal(t, "build panicked: boom", b.failed["bad"])
	assert.Equal(t, []string{"good"}, b.built)
}

func TestWorker_InFlightBuildSurvivesCancellation(t *testing.T) {
	w := New(1, 4, nil)
	b := newMockBuilder()
	b.block = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, b)
		close(done)
	}()

	require.NoError(t, w.Enqueue(domain.BuildTask{VideoID: "a"}))
	// Give the goroutine time to pick the task up before cancelling.
	time.Sleep(50 * time.Millisecond)
	cancel()
	close(b.block)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Equal(t, []string{"a"}, b.built)
	assert.NoError(t, b.ctxErrs[0])
}

func TestWorker_Run_Cancellation(t *testing.T) {
	w := New(3, 4, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, newMockBuilder())
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("worker did not stop after context cancellation")
	}
}
