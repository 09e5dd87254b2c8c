package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "vidrag:transcript:dQw4w9WgXcQ", Key("dQw4w9WgXcQ"))
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New(context.Background(), "not-a-redis-url", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis url")
}

func TestNew_Unreachable(t *testing.T) {
	// port 1 is reserved and refuses connections
	_, err := New(context.Background(), "redis://127.0.0.1:1/0", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}
