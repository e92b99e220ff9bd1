// Package logging contains methods to build the loggers used across
// the project
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options represents the configuration of a logger
type Options struct {
	// Level is the minimum level of the entries to log.
	// Defaults to "info"
	Level string
	// FilePath is the file the logs are written to. The file is rotated
	// once it reaches MaxSize.
	// Defaults to stderr
	FilePath string
	// MaxSize is the size in megabytes a log file can reach before
	// being rotated
	MaxSize int
	// MaxBackups is the number of rotated files to keep
	MaxBackups int
	// Compress states whether rotated files should be gzipped
	Compress bool
	// JSON states whether the entries should be formatted in JSON
	// instead of text
	JSON bool
	// Out is used when FilePath is empty.
	// Defaults to stderr
	Out io.Writer
}

// New returns a new logger
func New(opts Options) (*logrus.Logger, error) {
	if opts.Level == "" {
		opts.Level = logrus.InfoLevel.String()
	}
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("could not parse log level: %w", err)
	}

	out, err := output(opts)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(out)
	if opts.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
		})
	}
	return logger, nil
}

func output(opts Options) (io.Writer, error) {
	if opts.FilePath == "" {
		if opts.Out != nil {
			return opts.Out, nil
		}
		return os.Stderr, nil
	}

	dir := filepath.Dir(opts.FilePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create log directory %s: %w", dir, err)
	}
	return &lumberjack.Logger{
		Filename:   opts.FilePath,
		MaxSize:    opts.MaxSize,
		MaxBackups: opts.MaxBackups,
		Compress:   opts.Compress,
		LocalTime:  true,
	}, nil
}

// Discard returns a logger that doesn't output anything
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}
