package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/vk/fieldgo/internal/config"
	"github.com/vk/fieldgo/internal/ctxlog"
	"github.com/vk/fieldgo/internal/loader"
	"github.com/vk/fieldgo/internal/resolver"
	"github.com/vk/fieldgo/internal/session"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	fs     afero.Fs
	config *Config
}

// NewApp is the constructor for the main application. Results are written to
// outW and log records to logW. Documents are read from fs, or from the OS
// filesystem when fs is nil.
func NewApp(outW, logW io.Writer, cfg *Config, fs afero.Fs) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &App{
		outW:   outW,
		logger: logger,
		fs:     fs,
		config: cfg,
	}
}

// Logger returns the application's logger. This is primarily for testing.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// load resolves the document at path into a fresh session. Relative
// references inside it are resolved against its directory.
func (a *App) load(ctx context.Context, path string) (*session.Session, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	dir := filepath.Dir(path)
	opts := config.Options{Fs: a.fs, Root: dir, SkipValidation: a.config.NoValidate}
	sess := session.New(session.Options{Fs: a.fs, Root: dir, Logger: a.logger})

	// The ./ prefix keeps a file named library.xml from being taken for the
	// built-in library.
	href := "./" + filepath.Base(path)
	if err := resolver.New(sess, loader.New(opts), opts).Load(ctx, href); err != nil {
		return nil, err
	}
	return sess, nil
}
