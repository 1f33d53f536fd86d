// Package build wires up the shared logging backend used by every package in
// the simulator. It mirrors the subsystem-logger convention of the daemon
// this project was adapted from: each package exposes a UseLogger function,
// package simrunner is the only place that assigns tags, and the CLI entry
// point is the only place that starts the rotating log file.
package build

import (
	"io"
	"os"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
)

// LogWriter is an io.Writer that always forwards to stdout, and additionally
// to a rotating log file once InitLogRotator has been called.
type LogWriter struct {
	RotatorPipe *io.PipeWriter
}

func (w *LogWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if w.RotatorPipe != nil {
		return w.RotatorPipe.Write(p)
	}
	return len(p), nil
}

// Backend is the shared btclog backend every subsystem logger is derived
// from. Loggers created before InitLogRotator runs write to stdout only
// until the rotator is in place, then to both.
var (
	logWriter = &LogWriter{}
	Backend   = btclog.NewBackend(logWriter)

	subLoggers = make(map[string]btclog.Logger)
)

// NewSubLogger returns the subsystem logger tagged with the given
// four-letter code, e.g. "UNCR" for the uncertainty package, creating it on
// first use. Later calls with the same tag return the same logger.
func NewSubLogger(tag string) btclog.Logger {
	if logger, ok := subLoggers[tag]; ok {
		return logger
	}
	logger := Backend.Logger(tag)
	subLoggers[tag] = logger
	return logger
}

// InitLogRotator initializes the log rotation system for the given file,
// rolling the file over once it exceeds 10MB and keeping at most
// maxRollFiles rolled files. Should be called once, early, by the CLI entry
// point.
func InitLogRotator(logFile string, maxRollFiles int) (func() error, error) {
	r, w := io.Pipe()
	logWriter.RotatorPipe = w

	rot, err := rotator.New(logFile, 10*1024, false, maxRollFiles)
	if err != nil {
		return nil, err
	}

	pr := r
	go func() {
		_, _ = io.Copy(rot, pr)
	}()

	return rot.Close, nil
}

// SetLogLevels applies level to the subsystem logger of every given tag. A
// tag with no logger yet gets one created at that level rather than an
// error.
func SetLogLevels(level btclog.Level, tags ...string) {
	for _, tag := range tags {
		NewSubLogger(tag).SetLevel(level)
	}
}
