// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package file

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/poiesic/originality/core"
	"github.com/poiesic/originality/storage"
)

// DefaultPath is the log file used when none is configured.
const DefaultPath = "plagiarism_db.txt"

// maxLineSize bounds a single stored text.
const maxLineSize = 64 << 20

// ErrInvalidEncoding is returned by Replay for a line that is not UTF-8.
var ErrInvalidEncoding = errors.New("corpus line is not valid UTF-8")

// Log is an append-only text file holding one canonical string per line.
// The file is created on the first Append; until then it may not exist.
type Log struct {
	path   string
	mu     sync.Mutex
	file   *os.File
	closed bool
	logger *slog.Logger
}

var _ storage.Backing = (*Log)(nil)

// Option configures a Log.
type Option func(*Log)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Log) {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger.With("component", "file-log", "path", l.path)
	}
}

// Open returns a Log for path without touching the file system.
func Open(path string, opts ...Option) (*Log, error) {
	if path == "" {
		return nil, errors.New("file log: path is required")
	}
	l := &Log{
		path:   path,
		logger: slog.Default().With("component", "file-log", "path", path),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Path returns the file location.
func (l *Log) Path() string {
	return l.path
}

// Replay reads the file line by line. "\n", "\r\n" and a bare "\r" all end
// a line. Each line is trimmed; empty lines are skipped. A missing file
// replays nothing. A line that is not valid UTF-8 is an error.
func (l *Log) Replay(ctx context.Context, fn func(entry *core.Entry) error) error {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Debug("corpus file does not exist yet")
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	scanner.Split(core.ScanLines)
	line := 0
	for scanner.Scan() {
		line++
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		raw := scanner.Text()
		if !utf8.ValidString(raw) {
			return fmt.Errorf("%s line %d: %w", l.path, line, ErrInvalidEncoding)
		}
		text := core.TrimSpace(raw)
		if text == "" {
			continue
		}
		if err := fn(&core.Entry{Id: core.IDFromContent(text), Content: text}); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%s line %d: %w", l.path, line+1, err)
	}
	return nil
}

// Append writes entry as one line and syncs the file. If the write or the
// sync fails, the file is truncated back to its previous size.
func (l *Log) Append(ctx context.Context, entry *core.Entry) error {
	if strings.ContainsAny(entry.Content, "\r\n") {
		return fmt.Errorf("%w: line breaks are not allowed", storage.ErrInvalidEntry)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return storage.ErrStorageClosed
	}

	if l.file == nil {
		f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			return err
		}
		l.file = f
	}

	offset, err := l.file.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	var sb strings.Builder
	if offset > 0 {
		unterminated, err := l.endsWithoutNewline(offset)
		if err != nil {
			return err
		}
		if unterminated {
			sb.WriteByte('\n')
		}
	}
	sb.WriteString(entry.Content)
	sb.WriteByte('\n')

	if _, err := l.file.Write([]byte(sb.String())); err != nil {
		l.rollback(offset)
		return err
	}
	if err := l.file.Sync(); err != nil {
		l.rollback(offset)
		return err
	}
	return nil
}

// endsWithoutNewline reports whether the last byte before offset is not '\n'.
func (l *Log) endsWithoutNewline(offset int64) (bool, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, offset-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}

func (l *Log) rollback(offset int64) {
	if err := l.file.Truncate(offset); err != nil {
		l.logger.Error("error truncating partial corpus line", "offset", offset, "err", err)
	}
}

// Close closes the underlying file if it was opened.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
