package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/devtimer/internal/domain"
	"github.com/hammamikhairi/devtimer/internal/logger"
)

func TestFileStorePersistsAcrossOpen(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	path := filepath.Join(t.TempDir(), "nested", SettingsFileName)
	ctx := context.Background()

	store, err := OpenFileStore(path, log)
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, KeyFocusMinutes, 50))
	require.NoError(t, store.Set(ctx, KeyRemoteVoice, "nova"))
	require.NoError(t, store.Set(ctx, KeyPhase, domain.PhaseLongBreak))

	reopened, err := OpenFileStore(path, log)
	require.NoError(t, err)

	assert.Equal(t, 50, Value(ctx, reopened, KeyFocusMinutes, 25, log))
	assert.Equal(t, "nova", Value(ctx, reopened, KeyRemoteVoice, "alloy", log))
	assert.Equal(t, domain.PhaseLongBreak, Value(ctx, reopened, KeyPhase, domain.PhaseFocus, log))

	require.NoError(t, reopened.Delete(ctx, KeyRemoteVoice))
	again, err := OpenFileStore(path, log)
	require.NoError(t, err)
	keys, err := again.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyFocusMinutes, KeyPhase}, keys)
}

func TestFileStoreReadsHandWrittenFile(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	path := filepath.Join(t.TempDir(), SettingsFileName)
	ctx := context.Background()
	doc := "devtimer:focusMins: 50\n" +
		"devtimer:openaiVoice: nova\n" +
		"devtimer:phase: short_break\n" +
		"devtimer:secondsLeft: 754\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	store, err := OpenFileStore(path, log)
	require.NoError(t, err)
	assert.Equal(t, 50, Value(ctx, store, KeyFocusMinutes, 25, log))
	assert.Equal(t, "nova", Value(ctx, store, KeyRemoteVoice, "alloy", log))
	assert.Equal(t, domain.PhaseShortBreak, Value(ctx, store, KeyPhase, domain.PhaseFocus, log))
	assert.Equal(t, 754, Value(ctx, store, KeySecondsLeft, 0, log))

	// A later write keeps the keys loaded from disk.
	require.NoError(t, store.Set(ctx, KeyCompletedFocus, 3))
	reopened, err := OpenFileStore(path, log)
	require.NoError(t, err)
	assert.Equal(t, 50, Value(ctx, reopened, KeyFocusMinutes, 25, log))
	assert.Equal(t, 754, Value(ctx, reopened, KeySecondsLeft, 0, log))
	assert.Equal(t, 3, Value(ctx, reopened, KeyCompletedFocus, 0, log))
}

func TestFileStoreNonMappingStartsEmpty(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	path := filepath.Join(t.TempDir(), SettingsFileName)
	require.NoError(t, os.WriteFile(path, []byte("- 1\n- 2\n"), 0o644))

	store, err := OpenFileStore(path, log)
	require.NoError(t, err)
	keys, err := store.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFileStoreCorruptFileStartsEmpty(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	path := filepath.Join(t.TempDir(), SettingsFileName)
	require.NoError(t, os.WriteFile(path, []byte("{{ not: yaml"), 0o644))

	store, err := OpenFileStore(path, log)
	require.NoError(t, err)

	keys, err := store.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Equal(t, 25, Value(context.Background(), store, KeyFocusMinutes, 25, log))
}

func TestFileStoreWatchIgnoresOwnWrites(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	path := filepath.Join(t.TempDir(), SettingsFileName)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := OpenFileStore(path, log)
	require.NoError(t, err)

	changed := make(chan struct{}, 4)
	go store.Watch(ctx, 20*time.Millisecond, func() { changed <- struct{}{} })
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, store.Set(ctx, KeyFocusMinutes, 40))
	select {
	case <-changed:
		t.Fatal("own write should not be reported")
	case <-time.After(150 * time.Millisecond):
	}

	external := []byte("devtimer:focusMins: 45\n")
	require.NoError(t, os.WriteFile(path, external, 0o644))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("external edit not detected")
	}
	assert.Eventually(t, func() bool {
		return Value(context.Background(), store, KeyFocusMinutes, 25, log) == 45
	}, 2*time.Second, 10*time.Millisecond)
}
