// Package logging builds the application logger with an explicit suppression
// policy: known-noisy error substrings are passed in at construction time
// instead of being filtered by patching a global log function.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// SuppressionFormatter wraps another formatter and drops entries whose
// message contains one of the configured substrings. Matching is
// case-insensitive.
type SuppressionFormatter struct {
	Inner      logrus.Formatter
	Substrings []string
}

// Format implements logrus.Formatter. Suppressed entries yield no output.
func (f *SuppressionFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	message := strings.ToLower(entry.Message)
	for _, substr := range f.Substrings {
		if substr == "" {
			continue
		}
		if strings.Contains(message, strings.ToLower(substr)) {
			return nil, nil
		}
	}
	return f.Inner.Format(entry)
}

// New creates a JSON-formatted logrus logger at the given level with the
// given suppression list. An unknown level falls back to info.
func New(level string, suppressed []string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	var formatter logrus.Formatter = &logrus.JSONFormatter{}
	if len(suppressed) > 0 {
		formatter = &SuppressionFormatter{Inner: formatter, Substrings: suppressed}
	}
	logger.SetFormatter(formatter)

	return logger
}

// NewWithOutput is New with an explicit output writer. Used by tests.
func NewWithOutput(level string, suppressed []string, out io.Writer) *logrus.Logger {
	logger := New(level, suppressed)
	logger.SetOutput(out)
	return logger
}
