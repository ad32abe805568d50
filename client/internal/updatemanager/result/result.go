package result

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/openairproject/oap-ota/util"
)

const (
	resultFile = "result.json"
)

// Result is the persisted summary of the last update cycle.
type Result struct {
	CycleID       string `json:",omitempty"`
	Outcome       string
	Version       string `json:",omitempty"`
	TargetVersion string `json:",omitempty"`
	Partition     string `json:",omitempty"`
	Error         string `json:",omitempty"`
	ExecutedAt    time.Time
}

// Handler reads and writes cycle results.
type Handler struct {
	resultFile string
}

// NewHandler creates a handler storing result.json in stateDir.
func NewHandler(stateDir string) *Handler {
	return &Handler{
		resultFile: filepath.Join(stateDir, resultFile),
	}
}

// Path returns the location of the result file.
func (h *Handler) Path() string {
	return h.resultFile
}

// Write replaces the stored result atomically.
func (h *Handler) Write(ctx context.Context, r Result) error {
	log.Debugf("write out cycle result to: %s", h.resultFile)
	if err := util.WriteJson(ctx, h.resultFile, r); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// Read returns the stored result.
func (h *Handler) Read() (Result, error) {
	var r Result
	if _, err := util.ReadJson(h.resultFile, &r); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("invalid result format: %w", err)
	}
	return r, nil
}

// Watch blocks until a result newer than since is written, or ctx is done.
func (h *Handler) Watch(ctx context.Context, since time.Time) (Result, error) {
	dir := filepath.Dir(h.resultFile)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return Result{}, fmt.Errorf("create state dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.Warnf("failed to close watcher: %v", err)
		}
	}()

	// The result file is replaced by rename, so watch the directory.
	if err := watcher.Add(dir); err != nil {
		return Result{}, fmt.Errorf("failed to watch directory: %v", err)
	}

	// a result may have landed before the watch was set up
	if r, err := h.Read(); err == nil && r.ExecutedAt.After(since) {
		return r, nil
	}

	log.Debugf("watching cycle result: %s", h.resultFile)
	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return Result{}, errors.New("watcher closed unexpectedly")
			}
			if event.Name != h.resultFile || (!event.Has(fsnotify.Create) && !event.Has(fsnotify.Write)) {
				continue
			}

			r, err := h.Read()
			if err != nil {
				log.Debugf("error while reading result: %v", err)
				continue
			}
			if r.ExecutedAt.After(since) {
				return r, nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return Result{}, errors.New("watcher closed unexpectedly")
			}
			return Result{}, fmt.Errorf("watcher error: %w", err)
		}
	}
}

// Cleanup removes the result file if it exists
func (h *Handler) Cleanup() error {
	return util.RemoveJson(h.resultFile)
}
