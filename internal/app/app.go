package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/projweave/internal/config"
	"github.com/vk/projweave/internal/ctxlog"
	"github.com/vk/projweave/internal/emit"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	errW    io.Writer
	logger  *slog.Logger
	config  *Config
	loader  config.Loader
	emitter emit.Emitter
}

// NewApp is the constructor for the main application. The manifest goes to
// outW when Output is StdoutOutput; logs and human-readable reports go to errW.
func NewApp(outW, errW io.Writer, cfg *Config, loader config.Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:   outW,
		errW:   errW,
		logger: logger,
		config: cfg,
		loader: loader,
	}
	a.emitter = a.newEmitter()
	return a
}

func (a *App) newEmitter() emit.Emitter {
	var emitters emit.Multi
	switch a.config.Output {
	case "":
	case StdoutOutput:
		emitters = append(emitters, &emit.WriterEmitter{W: a.outW, Format: a.config.Format})
	default:
		emitters = append(emitters, &emit.FileEmitter{Path: a.config.Output, Format: a.config.Format})
	}
	if a.config.EmitURL != "" {
		emitters = append(emitters, &emit.SocketIOEmitter{
			URL:                a.config.EmitURL,
			Namespace:          a.config.EmitNamespace,
			Timeout:            a.config.EmitTimeout,
			InsecureSkipVerify: a.config.InsecureSkipVerify,
		})
	}
	a.logger.Debug("Emitters configured.", "count", len(emitters))
	return emitters
}

// WithEmitter replaces the configured emitters. It is primarily for testing.
func (a *App) WithEmitter(e emit.Emitter) *App {
	a.emitter = e
	return a
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
