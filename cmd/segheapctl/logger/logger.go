// Package logger holds the process-wide debug logger for segheapctl.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// L is the global logger. It discards everything until Init enables it.
var L *slog.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

const (
	logPrefix     = "segheapctl-"
	logSuffix     = ".log"
	dateLayout    = "2006-01-02"
	retentionDays = 14
)

// Options configures the logger.
type Options struct {
	Enabled bool       // If false, all logging is discarded
	LogDir  string     // Directory for daily log files. Default: ~/.segheapctl/logs
	Output  io.Writer  // If set, log here instead of a file (LogDir is ignored)
	Level   slog.Level // Minimum level. Zero means LevelInfo
}

// Init configures logging. Call it once before the first log call.
func Init(opts Options) error {
	if !opts.Enabled {
		L = slog.New(slog.NewTextHandler(io.Discard, nil))
		return nil
	}

	level := opts.Level
	if level == 0 {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if opts.Output != nil {
		L = slog.New(slog.NewJSONHandler(opts.Output, handlerOpts))
		return nil
	}

	dir := opts.LogDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		dir = filepath.Join(home, ".segheapctl", "logs")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	pruneLogs(dir, time.Now().AddDate(0, 0, -retentionDays))

	name := filepath.Join(dir, logPrefix+time.Now().Format(dateLayout)+logSuffix)
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	L = slog.New(slog.NewJSONHandler(f, handlerOpts))
	return nil
}

// pruneLogs removes daily log files dated before cutoff. Errors are ignored.
func pruneLogs(dir string, cutoff time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, logPrefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}
		day, err := time.Parse(dateLayout, strings.TrimSuffix(strings.TrimPrefix(name, logPrefix), logSuffix))
		if err != nil {
			continue
		}
		if day.Before(cutoff) {
			os.Remove(filepath.Join(dir, name))
		}
	}
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) { L.Error(msg, args...) }
