//go:build !linux

package storage

import (
	"errors"
	"runtime"
)

// SystemRestarter reboots the machine. Only supported on Linux.
type SystemRestarter struct{}

func (SystemRestarter) Restart() error {
	return errors.New("system restart is not supported on " + runtime.GOOS)
}
