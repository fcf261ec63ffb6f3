package observability

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// NewLogger returns a JSON logger at the given level. Unknown levels fall
// back to info. Output is discarded when WALKBUDDY_ENV is "test".
func NewLogger(level string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)
	if os.Getenv("WALKBUDDY_ENV") == "test" {
		logger.SetOutput(io.Discard)
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyMsg:   "message",
			logrus.FieldKeyLevel: "level",
		},
	})
	return logger
}

// Component returns a logger entry tagged with a component name.
func Component(l logrus.FieldLogger, name string) *logrus.Entry {
	return l.WithField("component", name)
}
