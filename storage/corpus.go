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

package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/originality/core"
)

// Corpus is the in-memory set of canonical texts over a durable Backing.
type Corpus struct {
	mu      sync.RWMutex
	backing Backing
	index   map[string]struct{}
	entries []*core.Entry
	closed  bool
	logger  *slog.Logger
}

var _ CorpusRepository = (*Corpus)(nil)

// CorpusOption configures a Corpus.
type CorpusOption func(*Corpus)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) CorpusOption {
	return func(c *Corpus) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "corpus")
	}
}

// OpenCorpus creates a corpus over backing and loads it.
// A read failure is returned wrapped in ErrStoreRead; the corpus is not
// usable in that case.
func OpenCorpus(ctx context.Context, backing Backing, opts ...CorpusOption) (*Corpus, error) {
	if backing == nil {
		return nil, ErrBackingRequired
	}

	c := &Corpus{
		backing: backing,
		index:   make(map[string]struct{}),
		logger:  slog.Default().With("component", "corpus"),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.load(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Corpus) load(ctx context.Context) error {
	index := make(map[string]struct{})
	var entries []*core.Entry
	duplicates := 0

	err := c.backing.Replay(ctx, func(entry *core.Entry) error {
		if entry == nil || entry.Content == "" {
			return nil
		}
		if _, ok := index[entry.Content]; ok {
			duplicates++
			return nil
		}
		index[entry.Content] = struct{}{}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		c.logger.Error("error loading corpus", "err", err)
		return fmt.Errorf("%w: %w", ErrStoreRead, err)
	}

	c.mu.Lock()
	c.index = index
	c.entries = entries
	c.mu.Unlock()

	c.logger.Info("corpus loaded", "entries", len(entries), "duplicates", duplicates)
	return nil
}

// Contains reports whether canonical text is already stored.
// It is an exact lookup; similarity is the matcher's job.
func (c *Corpus) Contains(canonical string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.index[canonical]
	return ok
}

// Add normalizes text and stores the canonical form.
func (c *Corpus) Add(ctx context.Context, text string) (bool, error) {
	return c.AddCanonical(ctx, core.Normalize(text))
}

// AddCanonical stores already-normalized text if it is not present.
// Returns false without writing when the text is present or empty.
// The backing is written first; on failure the set is left unchanged and
// the error wraps ErrStoreWrite.
func (c *Corpus) AddCanonical(ctx context.Context, canonical string) (bool, error) {
	if canonical == "" {
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, ErrStorageClosed
	}
	if _, ok := c.index[canonical]; ok {
		return false, nil
	}

	entry := core.NewEntry(canonical)
	if err := c.backing.Append(ctx, entry); err != nil {
		c.logger.Error("error appending corpus entry", "id", entry.Id, "err", err)
		return false, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}

	c.index[canonical] = struct{}{}
	c.entries = append(c.entries, entry)
	c.logger.Debug("corpus entry added", "id", entry.Id, "entries", len(c.entries))
	return true, nil
}

// Snapshot returns the entries in load/insertion order.
func (c *Corpus) Snapshot() []*core.Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*core.Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close closes the backing. Further adds fail with ErrStorageClosed.
func (c *Corpus) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.backing.Close()
}

// Copy replays src into dst. Entries already in dst are skipped.
// Returns the number of entries written to dst.
func Copy(ctx context.Context, src Backing, dst *Corpus) (int, error) {
	copied := 0
	err := src.Replay(ctx, func(entry *core.Entry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		added, err := dst.AddCanonical(ctx, entry.Content)
		if err != nil {
			return err
		}
		if added {
			copied++
		}
		return nil
	})
	return copied, err
}
