package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwygoda/vidrag/internal/domain"
)

func TestMemory_PutGet(t *testing.T) {
	m := NewMemory()

	_, ok := m.Get("abc")
	assert.False(t, ok)

	m.Put(domain.NewProcessingRecord("abc", "b1", time.Now()))

	got, ok := m.Get("abc")
	require.True(t, ok)
	assert.Equal(t, "abc", got.VideoID)
	assert.Equal(t, domain.StateProcessing, got.State())
	assert.Equal(t, 1, m.Len())
}

func TestMemory_PutOverwrites(t *testing.T) {
	m := NewMemory()
	first := domain.NewProcessingRecord("abc", "b1", time.Now())
	m.Put(first)
	m.Put(first.MarkFailed("boom", time.Now()))

	got, ok := m.Get("abc")
	require.True(t, ok)
	assert.Equal(t, domain.StateError, got.State())
	assert.Equal(t, 1, m.Len())
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := NewMemory()
	rec := domain.NewProcessingRecord("abc", "b1", time.Now())
	m.Put(rec)

	rec.Ready = true
	got, _ := m.Get("abc")
	assert.False(t, got.Ready, "mutating the input must not leak into the store")

	got.Ready = true
	again, _ := m.Get("abc")
	assert.False(t, again.Ready, "mutating a returned record must not leak into the store")
}

func TestMemory_Concurrent(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.Put(domain.NewProcessingRecord(fmt.Sprintf("v%d", i%5), "b", time.Now()))
		}()
		go func() {
			defer wg.Done()
			m.Get(fmt.Sprintf("v%d", i%5))
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, m.Len())
}
