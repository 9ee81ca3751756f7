package slogutil

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"javachain/internal/config"
)

// Factory hands out component loggers that share one stderr writer and,
// when configured, one append-only log file.
// Level precedence: CLI flag > per-component config > global config > info.
type Factory struct {
	stderr   io.Writer
	cfg      config.LoggingConfig
	cliLevel *slog.Level

	mu   sync.Mutex
	file *os.File
}

// NewFactory creates a logger factory. cliLevel is nil when no verbosity
// flag was given on the command line.
func NewFactory(stderr io.Writer, cfg config.LoggingConfig, cliLevel *slog.Level) *Factory {
	if stderr == nil {
		stderr = os.Stderr
	}
	return &Factory{stderr: stderr, cfg: cfg, cliLevel: cliLevel}
}

// Logger returns a logger tagged with the component name. If the log file
// cannot be opened the logger falls back to stderr only.
func (f *Factory) Logger(component string) *slog.Logger {
	level := f.effectiveLevel(component)
	handlers := []slog.Handler{NewLineHandler(f.stderr, &slog.HandlerOptions{Level: level})}

	if w := f.fileWriter(); w != nil {
		handlers = append(handlers, NewLineHandler(w, &slog.HandlerOptions{Level: level}))
	}

	var logger *slog.Logger
	if len(handlers) == 1 {
		logger = slog.New(handlers[0])
	} else {
		logger = slog.New(NewTeeHandler(handlers...))
	}
	return WithComponent(logger, component)
}

func (f *Factory) fileWriter() io.Writer {
	if f.cfg.File == "" {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file != nil {
		return f.file
	}
	_, file, err := NewFileLogger(f.cfg.File, slog.LevelDebug)
	if err != nil {
		f.cfg.File = ""
		return nil
	}
	f.file = file
	return f.file
}

func (f *Factory) effectiveLevel(component string) slog.Level {
	if f.cliLevel != nil {
		return *f.cliLevel
	}
	if lvl, ok := f.cfg.Components[component]; ok && lvl != "" {
		return LevelFromString(lvl)
	}
	if f.cfg.Level != "" {
		return LevelFromString(f.cfg.Level)
	}
	return slog.LevelInfo
}

// Close closes the shared log file, if one was opened.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}
