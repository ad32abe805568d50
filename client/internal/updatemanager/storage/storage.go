// Package storage holds the firmware storage backend: the partitions an
// image can be written to, the boot pointer and the device restart.
package storage

//go:generate mockgen -destination=mock_storage.go -package=storage . Backend,Session

import (
	"errors"
	"io"
)

var (
	// ErrNoStorageTarget means there is no partition an update could be
	// written to. It is not recoverable by retrying.
	ErrNoStorageTarget = errors.New("no suitable update partition found")
	// ErrSessionActive is returned by Begin while another session is open.
	ErrSessionActive = errors.New("write session already active")
	// ErrSessionClosed is returned when a finished session is used again.
	ErrSessionClosed = errors.New("write session closed")
	// ErrEmptyImage is returned by End when nothing was written.
	ErrEmptyImage = errors.New("image is empty")
	// ErrBootTarget is returned by Begin for the partition selected for the
	// next boot.
	ErrBootTarget = errors.New("partition is the boot target")
)

// Partition identifies a storage region that can hold one firmware image.
type Partition struct {
	Label string
	Path  string
}

func (p Partition) String() string {
	return p.Label
}

// IsZero reports whether p is unset.
func (p Partition) IsZero() bool {
	return p.Label == ""
}

// Backend is the firmware storage the update manager writes to.
type Backend interface {
	// RunningPartition returns the partition the device booted from.
	RunningPartition() (Partition, error)
	// NextUpdateTarget returns the partition the next image should be
	// written to, or ErrNoStorageTarget.
	NextUpdateTarget() (Partition, error)
	// Partition looks up a partition by label.
	Partition(label string) (Partition, error)
	// Begin opens an exclusive write session on target, erasing its content.
	// A partition already selected by SetBootTarget is refused.
	Begin(target Partition) (Session, error)
	// SetBootTarget makes target the partition booted on next restart.
	SetBootTarget(target Partition) error
	// Restart reboots the device. It does not return on success.
	Restart() error
}

// Session is a sequential write into one partition. Exactly one of End or
// Abort must be called.
type Session interface {
	io.Writer
	// End flushes and validates the written image.
	End() error
	// Abort discards the written data.
	Abort() error
}

// Restarter reboots the device.
type Restarter interface {
	Restart() error
}

// RestartFunc adapts a function to Restarter.
type RestartFunc func() error

func (f RestartFunc) Restart() error {
	return f()
}
