package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"

	"olm"
	"olm/internal/services/account"
	"olm/internal/services/group"
	"olm/internal/services/pk"
	"olm/internal/services/session"
	"olm/internal/store"
)

// Subsystem tags.
const (
	SubsysEngine   = "OLM"
	SubsysStore    = "STOR"
	SubsysServices = "SVCS"
	SubsysCommands = "CMDS"
)

type logBackend struct {
	stdOut          io.Writer
	logRotator      *rotator.Rotator
	bknd            *slog.Backend
	defaultLogLevel slog.Level
	logLevels       map[string]slog.Level
	loggers         map[string]slog.Logger
}

func newLogBackend(logFile, debugLevel string, stdOut io.Writer) (*logBackend, error) {
	var logRotator *rotator.Rotator
	if logFile != "" {
		logDir, _ := filepath.Split(logFile)
		if logDir != "" {
			if err := os.MkdirAll(logDir, 0o700); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		var err error
		logRotator, err = rotator.New(logFile, 1024, false, 10)
		if err != nil {
			return nil, fmt.Errorf("failed to create file rotator: %w", err)
		}
	}

	b := &logBackend{
		stdOut:          stdOut,
		logRotator:      logRotator,
		defaultLogLevel: slog.LevelInfo,
		logLevels:       make(map[string]slog.Level),
		loggers:         make(map[string]slog.Logger),
	}
	b.bknd = slog.NewBackend(b)

	// Parse the debugLevel string into log levels for each subsystem.
	for _, v := range strings.Split(debugLevel, ",") {
		if v == "" {
			continue
		}
		fields := strings.Split(v, "=")
		var ok bool
		switch len(fields) {
		case 1:
			b.defaultLogLevel, ok = slog.LevelFromString(fields[0])
		case 2:
			var level slog.Level
			level, ok = slog.LevelFromString(fields[1])
			b.logLevels[strings.ToUpper(fields[0])] = level
		}
		if !ok {
			b.close()
			return nil, fmt.Errorf("unable to parse %q as level or subsys=level "+
				"debuglevel string", v)
		}
	}

	return b, nil
}

func (bknd *logBackend) Write(b []byte) (int, error) {
	if bknd.stdOut != nil {
		bknd.stdOut.Write(b)
	}
	if bknd.logRotator != nil {
		bknd.logRotator.Write(b)
	}

	return len(b), nil
}

func (bknd *logBackend) logger(subsys string) slog.Logger {
	if l, ok := bknd.loggers[subsys]; ok {
		return l
	}

	l := bknd.bknd.Logger(subsys)
	bknd.loggers[subsys] = l
	if level, ok := bknd.logLevels[subsys]; ok {
		l.SetLevel(level)
	} else {
		l.SetLevel(bknd.defaultLogLevel)
	}

	return l
}

// useLoggers hands every package its subsystem logger.
func (bknd *logBackend) useLoggers() {
	olm.UseLogger(bknd.logger(SubsysEngine))
	store.UseLogger(bknd.logger(SubsysStore))

	svcs := bknd.logger(SubsysServices)
	account.UseLogger(svcs)
	session.UseLogger(svcs)
	group.UseLogger(svcs)
	pk.UseLogger(svcs)
}

func (bknd *logBackend) close() error {
	if bknd.logRotator == nil {
		return nil
	}
	return bknd.logRotator.Close()
}
