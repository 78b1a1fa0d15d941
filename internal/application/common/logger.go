package common

import (
	"github.com/sirupsen/logrus"
)

// NewLogger builds the process-wide logrus logger. Level and format come
// from configuration; everything else logs through component entries taken
// with ComponentLogger.
func NewLogger(level, format string) *logrus.Logger {
	logger := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// ComponentLogger returns an entry tagged with the owning component
func ComponentLogger(logger *logrus.Logger, component string) *logrus.Entry {
	return logger.WithField("component", component)
}
