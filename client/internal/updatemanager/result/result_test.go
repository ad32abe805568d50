package result

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_WriteRead(t *testing.T) {
	h := NewHandler(t.TempDir())

	_, err := h.Read()
	assert.ErrorIs(t, err, os.ErrNotExist)

	want := Result{
		Outcome:       "updated-ignored",
		Version:       "1.0.0",
		TargetVersion: "2.0.0",
		Partition:     "ota_1",
		ExecutedAt:    time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, h.Write(context.Background(), want))

	got, err := h.Read()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, h.Cleanup())
	assert.NoFileExists(t, h.Path())
}

func TestHandler_ReadInvalid(t *testing.T) {
	h := NewHandler(t.TempDir())
	require.NoError(t, os.WriteFile(h.Path(), []byte("{not json"), 0o600))

	_, err := h.Read()
	assert.ErrorContains(t, err, "invalid result format")
}

func TestHandler_WatchExisting(t *testing.T) {
	h := NewHandler(t.TempDir())
	since := time.Now().Add(-time.Minute)
	require.NoError(t, h.Write(context.Background(), Result{Outcome: "up-to-date", ExecutedAt: time.Now()}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	r, err := h.Watch(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, "up-to-date", r.Outcome)
}

func TestHandler_WatchNewResult(t *testing.T) {
	h := NewHandler(t.TempDir())
	since := time.Now()

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = h.Write(context.Background(), Result{Outcome: "failed", Error: "digest mismatch", ExecutedAt: time.Now().Add(time.Second)})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r, err := h.Watch(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, "failed", r.Outcome)
	assert.Equal(t, "digest mismatch", r.Error)
}

func TestHandler_WatchCancelled(t *testing.T) {
	h := NewHandler(t.TempDir())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := h.Watch(ctx, time.Now())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
