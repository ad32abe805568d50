package formatter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// TextFormatter renders entries as one line with a 4-letter level tag and the
// caller location added by ContextHook.
type TextFormatter struct {
	timestampFormat string
	levelDesc       []string
}

// NewTextFormatter create new TextFormatter instance
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		levelDesc:       []string{"PANC", "FATL", "ERRO", "WARN", "INFO", "DEBG", "TRAC"},
		timestampFormat: time.RFC3339,
	}
}

// Format renders a single log entry
func (f *TextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var fields string
	keys := make([]string, 0, len(entry.Data))
	for k, v := range entry.Data {
		if k == "source" {
			continue
		}
		keys = append(keys, fmt.Sprintf("%s: %v", k, v))
	}
	sort.Strings(keys)

	if len(keys) > 0 {
		fields = fmt.Sprintf("[%s] ", strings.Join(keys, ", "))
	}

	level := f.parseLevel(entry.Level)

	source := ""
	if src, ok := entry.Data["source"]; ok {
		source = fmt.Sprintf("%v: ", src)
	}

	return []byte(fmt.Sprintf("%s %s %s%s%s\n", entry.Time.Format(f.timestampFormat), level, fields, source, entry.Message)), nil
}

func (f *TextFormatter) parseLevel(level logrus.Level) string {
	if int(level) >= len(f.levelDesc) {
		return ""
	}

	return f.levelDesc[level]
}
