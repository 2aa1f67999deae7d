// Package logger initializes the process-wide logrus logger and provides
// log writers backed by files or stderr.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Conf configures the internal logger.
type Conf struct {
	Level  string
	Dir    string
	StdErr bool
}

// Init configures the global logrus logger according to the passed Conf.
func Init(conf Conf) {
	log.SetFormatter(
		&log.TextFormatter{
			FullTimestamp: true,
		},
	)
	if conf.Level != "" {
		level, err := log.ParseLevel(conf.Level)
		if err != nil {
			log.WithError(err).Error("could not parse log level, using INFO")
			level = log.InfoLevel
		}
		log.SetLevel(level)
	}
	out, err := NewWriter(conf.Dir, "registry.log", conf.StdErr)
	if err != nil {
		log.WithError(err).Fatal("could not open log file")
	}
	log.SetOutput(out)
}

// NewWriter returns a writer for the given log directory. If dir is empty
// the returned writer is stderr, otherwise the named file inside dir,
// optionally teed to stderr.
func NewWriter(dir, filename string, alsoStderr bool) (io.Writer, error) {
	if dir == "" {
		return os.Stderr, nil
	}
	f, err := os.OpenFile(
		filepath.Join(dir, filename), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644,
	)
	if err != nil {
		return nil, errors.Wrap(err, "opening log file")
	}
	if alsoStderr {
		return io.MultiWriter(f, os.Stderr), nil
	}
	return f, nil
}
