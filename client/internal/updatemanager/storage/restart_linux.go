package storage

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// SystemRestarter reboots the machine. It requires CAP_SYS_BOOT.
type SystemRestarter struct{}

func (SystemRestarter) Restart() error {
	log.Warn("OTA applied, restarting system")
	unix.Sync()
	if err := unix.Reboot(unix.LINUX_REBOOT_CMD_RESTART); err != nil {
		return fmt.Errorf("reboot: %w", err)
	}
	return nil
}
