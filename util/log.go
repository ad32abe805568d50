package util

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/openairproject/oap-ota/formatter"
)

// LogConsole selects stderr instead of a log file
const LogConsole = "console"

// InitLog parses and sets log-level input
func InitLog(logLevel string, logPath string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		log.Errorf("Failed parsing log-level %s: %s", logLevel, err)
		return err
	}

	var w io.Writer = os.Stderr
	if logPath != "" && logPath != LogConsole {
		w = &lumberjack.Logger{
			// Log file absolute path, os agnostic
			Filename:   filepath.ToSlash(logPath),
			MaxSize:    5, // MB
			MaxBackups: 10,
			MaxAge:     30, // days
			Compress:   true,
		}
	}

	log.SetOutput(w)
	formatter.SetTextFormatter(log.StandardLogger())
	log.SetLevel(level)
	return nil
}
