package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = newLogger(os.Stderr)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Configure sets the level ("debug", "info", "warn", "error") and the format
// ("text" or "json"). An invalid level falls back to info.
func Configure(level, format string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.Warnf("Invalid log level '%s', using 'info' instead. Error: %v", level, err)
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// SetOutput redirects log output.
func SetOutput(out io.Writer) {
	log.SetOutput(out)
}

// SetVerbose enables or disables debug logging.
func SetVerbose(verbose bool) {
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else if log.GetLevel() == logrus.DebugLevel {
		log.SetLevel(logrus.InfoLevel)
	}
}

// IsVerbose returns true if debug logging is enabled.
func IsVerbose() bool {
	return log.IsLevelEnabled(logrus.DebugLevel)
}

// WithFields returns an entry carrying structured fields.
func WithFields(fields map[string]interface{}) *logrus.Entry {
	return log.WithFields(logrus.Fields(fields))
}

// Debugf logs a formatted debug message if verbose mode is enabled.
func Debugf(format string, v ...interface{}) {
	log.Debugf(format, v...)
}

// Infof logs a formatted informational message.
func Infof(format string, v ...interface{}) {
	log.Infof(format, v...)
}

// Warnf logs a formatted warning.
func Warnf(format string, v ...interface{}) {
	log.Warnf(format, v...)
}

// Errorf logs a formatted error message.
func Errorf(format string, v ...interface{}) {
	log.Errorf(format, v...)
}
