package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingLoggerKeepsAttrs(t *testing.T) {
	logger, rec := RecordingLogger()
	child := logger.With(slog.Int64("game_id", 7))

	child.Info("joined", slog.String("player", "alice"))
	logger.Debug("tick")

	entries := rec.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, slog.LevelInfo, entries[0].Level)
	assert.Equal(t, int64(7), entries[0].Attrs["game_id"])
	assert.Equal(t, "alice", entries[0].Attrs["player"])
	assert.NotContains(t, entries[1].Attrs, "game_id")

	_, ok := rec.Find("missing")
	assert.False(t, ok)
}

func TestRecordingLoggerConcurrent(t *testing.T) {
	logger, rec := RecordingLogger()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.With(slog.Int("worker", i)).Info("done")
		}()
	}
	wg.Wait()

	assert.Len(t, rec.Entries(), 8)
}
