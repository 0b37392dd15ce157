// Package logging writes the append-only diagnostic log shared by every
// sessionctl invocation. Lines are slog text records whose first field is an
// RFC 3339 timestamp, so concurrent instances can be told apart by time and pid.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// File is an open log sink. Close it before the process exits.
type File struct {
	mu     sync.Mutex
	file   *os.File
	Logger *slog.Logger
}

// Open appends to path. When the file cannot be opened the logger falls back
// to stderr and the returned error says why; callers should keep going.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return &File{Logger: New(os.Stderr)}, fmt.Errorf("open log file %s: %w", path, err)
	}
	return &File{file: f, Logger: New(f)}, nil
}

// New builds a logger writing timestamped text records to w.
func New(w io.Writer) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	})
	return slog.New(h).With("pid", os.Getpid())
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}
