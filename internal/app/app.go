package app

import (
	"crypto/rand"
	"io"
	"os"

	"github.com/decred/slog"
)

// App is the CLI's runtime: validated config, logging and wired services.
type App struct {
	*Wire

	Config Config
	logs   *logBackend
}

// New validates cfg, starts logging to stderr (and the log file, if set)
// and wires the services with crypto/rand.
func New(cfg Config) (*App, error) {
	return newApp(cfg, rand.Reader, os.Stderr)
}

func newApp(cfg Config, random io.Reader, logOut io.Writer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, err
	}
	logs, err := newLogBackend(cfg.LogFile, cfg.DebugLevel, logOut)
	if err != nil {
		return nil, err
	}
	logs.useLoggers()

	w, err := NewWire(cfg, random)
	if err != nil {
		logs.close()
		return nil, err
	}
	logs.logger(SubsysStore).Debugf("Using state directory %s (kdf %s)", cfg.Home, cfg.KDF)
	return &App{Wire: w, Config: cfg, logs: logs}, nil
}

// Logger returns the logger of subsys.
func (a *App) Logger(subsys string) slog.Logger { return a.logs.logger(subsys) }

// Close flushes and closes the log file.
func (a *App) Close() error { return a.logs.close() }
