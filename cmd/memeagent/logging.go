package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/Cyclone1070/memeagent/internal/config"
	"github.com/adrg/xdg"
	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLogger builds the diagnostics logger. Output goes to stderr and, when
// cfg.File is set, to a rotated file. Relative file names live under
// $XDG_STATE_HOME/memeagent.
func newLogger(cfg config.LogConfig, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	w := stderr
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		path := cfg.File
		if !filepath.IsAbs(path) {
			p, err := xdg.StateFile(filepath.Join(config.ConfigDir, path))
			if err != nil {
				return nil, nil, fmt.Errorf("failed to resolve log file: %w", err)
			}
			path = p
		}
		fileLogger := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10,
			MaxAge:     7,
			MaxBackups: 3,
			Compress:   true,
		}
		w = io.MultiWriter(stderr, fileLogger)
		closer = fileLogger
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return logger, closer, nil
}
