// Package logs builds the process logger.
package logs

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	slogjournal "github.com/systemd/slog-journal"
)

// Options selects log sinks and verbosity
type Options struct {
	Level   string // debug, info, warn or error
	Format  string // text or json
	File    string // Optional JSON log file, appended to
	Verbose bool   // Forces debug level
	Stderr  io.Writer
}

// New creates a logger fanning out to stderr, the optional log file and,
// under systemd, the journal. The returned close func releases the file.
func New(opts Options) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handlers []slog.Handler
	closeFn := func() error { return nil }

	underJournal := os.Getenv("JOURNAL_STREAM") != ""
	if underJournal {
		journal, err := slogjournal.NewHandler(&slogjournal.Options{
			Level:        level,
			ReplaceGroup: toJournalKey,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				a.Key = toJournalKey(a.Key)
				return a
			},
		})
		if err != nil {
			// Fall back to stderr, which systemd forwards anyway
			underJournal = false
		} else {
			handlers = append(handlers, journal)
		}
	}

	if !underJournal {
		switch strings.ToLower(opts.Format) {
		case "json":
			handlers = append(handlers, slog.NewJSONHandler(opts.Stderr, handlerOpts))
		case "", "text":
			handlers = append(handlers, slog.NewTextHandler(opts.Stderr, handlerOpts))
		default:
			return nil, nil, fmt.Errorf("unknown log format %q (supported: text, json)", opts.Format)
		}
	}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, handlerOpts))
		closeFn = f.Close
	}

	return slog.New(slogmulti.Fanout(handlers...)), closeFn, nil
}

// ParseLevel converts a level name; empty means info
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q (supported: debug, info, warn, error)", s)
}

func toJournalKey(str string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, strings.ToUpper(str))
}
