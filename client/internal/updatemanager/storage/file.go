package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	nberrors "github.com/openairproject/oap-ota/client/errors"
	"github.com/openairproject/oap-ota/util"
)

const (
	bootStateFile = "boot.json"
	imageExt      = ".img"
	partialExt    = ".partial"
)

// DefaultPartitions are the A/B slot labels used when none are configured.
var DefaultPartitions = []string{"ota_0", "ota_1"}

type bootState struct {
	Boot string
}

// FileBackend keeps every partition as an image file in one directory and
// the boot pointer in boot.json next to them.
type FileBackend struct {
	dir       string
	labels    []string
	running   string
	restarter Restarter

	mu     sync.Mutex
	active *fileSession
}

// NewFileBackend opens the partition directory. The partition recorded as boot
// target at open time is the running one. An empty directory boots labels[0].
func NewFileBackend(dir string, labels []string, restarter Restarter) (*FileBackend, error) {
	if len(labels) == 0 {
		labels = DefaultPartitions
	}
	for i, l := range labels {
		if l == "" || filepath.Base(l) != l {
			return nil, fmt.Errorf("invalid partition label %q", l)
		}
		if slices.Contains(labels[:i], l) {
			return nil, fmt.Errorf("duplicate partition label %q", l)
		}
	}
	if restarter == nil {
		restarter = SystemRestarter{}
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create partition dir: %w", err)
	}

	b := &FileBackend{
		dir:       dir,
		labels:    slices.Clone(labels),
		restarter: restarter,
	}

	state, err := b.readBootState()
	if err != nil {
		return nil, err
	}
	b.running = state.Boot

	return b, nil
}

func (b *FileBackend) readBootState() (bootState, error) {
	file := filepath.Join(b.dir, bootStateFile)

	var state bootState
	if _, err := util.ReadJson(file, &state); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return bootState{}, fmt.Errorf("read boot state: %w", err)
		}
		state.Boot = b.labels[0]
		if err := util.WriteJson(context.Background(), file, state); err != nil {
			return bootState{}, fmt.Errorf("write initial boot state: %w", err)
		}
		log.Infof("initialized boot state in %s with partition %s", file, state.Boot)
	}

	if !slices.Contains(b.labels, state.Boot) {
		return bootState{}, fmt.Errorf("boot partition %q is not configured", state.Boot)
	}
	return state, nil
}

func (b *FileBackend) partition(label string) Partition {
	return Partition{
		Label: label,
		Path:  filepath.Join(b.dir, label+imageExt),
	}
}

// RunningPartition implements Backend.
func (b *FileBackend) RunningPartition() (Partition, error) {
	return b.partition(b.running), nil
}

// NextUpdateTarget implements Backend. The target is the first partition after
// the running one, wrapping around.
func (b *FileBackend) NextUpdateTarget() (Partition, error) {
	idx := slices.Index(b.labels, b.running)
	for i := 1; i < len(b.labels); i++ {
		label := b.labels[(idx+i)%len(b.labels)]
		if label != b.running {
			return b.partition(label), nil
		}
	}
	return Partition{}, ErrNoStorageTarget
}

// Partition implements Backend.
func (b *FileBackend) Partition(label string) (Partition, error) {
	if !slices.Contains(b.labels, label) {
		return Partition{}, fmt.Errorf("%w: unknown partition %q", ErrNoStorageTarget, label)
	}
	if label == b.running {
		return Partition{}, fmt.Errorf("%w: partition %q is running", ErrNoStorageTarget, label)
	}
	return b.partition(label), nil
}

// Begin implements Backend.
func (b *FileBackend) Begin(target Partition) (Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.active != nil {
		return nil, ErrSessionActive
	}
	if _, err := b.Partition(target.Label); err != nil {
		return nil, err
	}
	boot, err := b.BootTarget()
	if err != nil {
		return nil, err
	}
	if boot.Label == target.Label {
		return nil, fmt.Errorf("%w: %s", ErrBootTarget, target.Label)
	}

	p := b.partition(target.Label)
	partial := p.Path + partialExt
	f, err := os.OpenFile(partial, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", partial, err)
	}

	s := &fileSession{
		backend: b,
		target:  p,
		partial: partial,
		file:    f,
	}
	b.active = s
	log.Debugf("write session opened on partition %s", p.Label)
	return s, nil
}

func (b *FileBackend) release(s *fileSession) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active == s {
		b.active = nil
	}
}

// SetBootTarget implements Backend.
func (b *FileBackend) SetBootTarget(target Partition) error {
	if !slices.Contains(b.labels, target.Label) {
		return fmt.Errorf("unknown partition %q", target.Label)
	}

	b.mu.Lock()
	active := b.active
	b.mu.Unlock()
	if active != nil && active.target.Label == target.Label {
		return fmt.Errorf("partition %s has an open write session", target.Label)
	}

	p := b.partition(target.Label)
	info, err := os.Stat(p.Path)
	if err != nil {
		return fmt.Errorf("partition %s has no image: %w", p.Label, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("partition %s: %w", p.Label, ErrEmptyImage)
	}

	if err := util.WriteJson(context.Background(), filepath.Join(b.dir, bootStateFile), bootState{Boot: p.Label}); err != nil {
		return fmt.Errorf("write boot state: %w", err)
	}
	log.Infof("boot partition set to %s", p.Label)
	return nil
}

// BootTarget returns the partition recorded for the next boot.
func (b *FileBackend) BootTarget() (Partition, error) {
	state, err := b.readBootState()
	if err != nil {
		return Partition{}, err
	}
	return b.partition(state.Boot), nil
}

// Restart implements Backend.
func (b *FileBackend) Restart() error {
	return b.restarter.Restart()
}

type fileSession struct {
	backend *FileBackend
	target  Partition
	partial string
	file    *os.File
	written int64
	closed  bool
}

func (s *fileSession) Write(p []byte) (int, error) {
	if s.closed {
		return 0, ErrSessionClosed
	}
	n, err := s.file.Write(p)
	s.written += int64(n)
	return n, err
}

func (s *fileSession) End() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.closed = true
	defer s.backend.release(s)

	var merr *multierror.Error
	if err := s.file.Sync(); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("sync: %w", err))
	}
	if err := s.file.Close(); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("close: %w", err))
	}
	if s.written == 0 {
		merr = multierror.Append(merr, ErrEmptyImage)
	}
	if err := nberrors.FormatErrorOrNil(merr); err != nil {
		s.removePartial()
		return fmt.Errorf("end session on %s: %w", s.target.Label, err)
	}

	if err := os.Rename(s.partial, s.target.Path); err != nil {
		s.removePartial()
		return fmt.Errorf("move image into %s: %w", s.target.Label, err)
	}
	log.Debugf("write session on partition %s ended, %d bytes", s.target.Label, s.written)
	return nil
}

func (s *fileSession) Abort() error {
	if s.closed {
		return nil
	}
	s.closed = true
	defer s.backend.release(s)

	var merr *multierror.Error
	if err := s.file.Close(); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("close: %w", err))
	}
	if err := os.Remove(s.partial); err != nil && !errors.Is(err, os.ErrNotExist) {
		merr = multierror.Append(merr, fmt.Errorf("remove partial image: %w", err))
	}
	log.Debugf("write session on partition %s aborted", s.target.Label)
	return nberrors.FormatErrorOrNil(merr)
}

func (s *fileSession) removePartial() {
	if err := os.Remove(s.partial); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("failed to remove partial image %s: %v", s.partial, err)
	}
}
