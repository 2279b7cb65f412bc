package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hammamikhairi/devtimer/internal/logger"
)

func TestAudioCacheKeysByVoice(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	dir := t.TempDir()
	c := NewAudioCache(dir, true, log)

	c.Put("alloy", "hello", []byte("a"))
	got, ok := c.Get("alloy", "hello")
	assert.True(t, ok)
	assert.Equal(t, []byte("a"), got)

	_, ok = c.Get("nova", "hello")
	assert.False(t, ok)

	// A fresh cache over the same directory warms from disk.
	warm := NewAudioCache(dir, false, log)
	got, ok = warm.Get("alloy", "hello")
	assert.True(t, ok)
	assert.Equal(t, []byte("a"), got)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}
