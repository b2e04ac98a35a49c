// Package logging builds the process-wide logrus logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how the logger writes.
type Options struct {
	Env   string // "dev" selects the text formatter, anything else JSON
	Level string // logrus level name; unknown names fall back to info
	File  string // optional path of a rotated log file
}

// New returns a logger writing to stdout and, when File is set, to a
// lumberjack-rotated file as well.
func New(o Options) *logrus.Logger {
	logger := logrus.New()

	var out io.Writer = os.Stdout
	if o.File != "" {
		out = io.MultiWriter(os.Stdout, RotatingFile(o.File))
	}
	logger.SetOutput(out)

	if o.Env == "dev" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(o.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// RotatingFile returns an append-only writer that rotates at 10 MB and
// keeps a week of compressed backups.
func RotatingFile(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     7, // days
		Compress:   true,
	}
}
