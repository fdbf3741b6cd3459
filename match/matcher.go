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

package match

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/originality/core"
)

// DefaultThreshold is the minimum score for a local match.
const DefaultThreshold = 0.75

// minChunk is the smallest slice of the corpus handed to one worker.
const minChunk = 64

// Matcher scores canonical text against corpus entries.
//
// The scan is linear in the corpus size and quadratic in text length per
// entry, so it only suits small corpora.
type Matcher struct {
	threshold float64
	autoJunk  bool
	pool      *ants.Pool
	logger    *slog.Logger
}

// Option configures a Matcher.
type Option func(*Matcher) error

// WithPoolSize scores corpus chunks concurrently on a worker pool of the
// given size. Sizes below 2 keep the scan on the calling goroutine.
func WithPoolSize(size int) Option {
	return func(m *Matcher) error {
		if m.pool != nil {
			m.pool.Release()
			m.pool = nil
		}
		if size < 2 {
			return nil
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		m.pool = pool
		return nil
	}
}

// WithAutoJunk toggles the popular-element heuristic of the ratio.
// Default is enabled.
func WithAutoJunk(enabled bool) Option {
	return func(m *Matcher) error {
		m.autoJunk = enabled
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger.With("component", "local-matcher")
		return nil
	}
}

// NewMatcher creates a matcher that accepts scores >= threshold.
func NewMatcher(threshold float64, opts ...Option) (*Matcher, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}

	m := &Matcher{
		threshold: threshold,
		autoJunk:  true,
		logger:    slog.Default().With("component", "local-matcher"),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			m.Release()
			return nil, err
		}
	}
	return m, nil
}

// Threshold returns the configured minimum score.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Score returns the similarity of canonical text a against entry b.
func (m *Matcher) Score(a, b string) float64 {
	return RatioWithJunk(a, b, m.autoJunk)
}

// FindLocalMatch returns the first entry, in slice order, whose score meets
// the threshold. It returns nil when no entry qualifies or entries is empty.
func (m *Matcher) FindLocalMatch(ctx context.Context, canonical string, entries []*core.Entry) (*core.LocalMatch, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	var (
		match *core.LocalMatch
		err   error
	)
	if m.pool == nil || len(entries) < 2*minChunk {
		match, err = m.scan(ctx, canonical, entries)
	} else {
		match, err = m.scanPooled(ctx, canonical, entries)
	}
	if err != nil {
		return nil, err
	}

	if match != nil {
		m.logger.Debug("local match found", "index", match.Index, "score", match.Score, "corpus", len(entries))
	} else {
		m.logger.Debug("no local match", "corpus", len(entries))
	}
	return match, nil
}

func (m *Matcher) scan(ctx context.Context, canonical string, entries []*core.Entry) (*core.LocalMatch, error) {
	for i, entry := range entries {
		if i%minChunk == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if score := m.Score(canonical, entry.Content); score >= m.threshold {
			return &core.LocalMatch{Entry: entry, Score: score, Index: i}, nil
		}
	}
	return nil, nil
}

func (m *Matcher) scanPooled(ctx context.Context, canonical string, entries []*core.Entry) (*core.LocalMatch, error) {
	workers := m.pool.Cap()
	chunk := (len(entries) + workers - 1) / workers
	if chunk < minChunk {
		chunk = minChunk
	}

	n := len(entries)
	scores := make([]float64, n)

	// best holds the lowest qualifying index seen so far
	var best atomic.Int64
	best.Store(int64(n))

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		err := m.pool.Submit(func() {
			defer wg.Done()
			for i := start; i < end; i++ {
				if int64(i) >= best.Load() || ctx.Err() != nil {
					return
				}
				score := m.Score(canonical, entries[i].Content)
				if score < m.threshold {
					continue
				}
				scores[i] = score
				for {
					cur := best.Load()
					if int64(i) >= cur || best.CompareAndSwap(cur, int64(i)) {
						break
					}
				}
				return
			}
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submit scoring task: %w", err)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx := int(best.Load())
	if idx >= n {
		return nil, nil
	}
	return &core.LocalMatch{Entry: entries[idx], Score: scores[idx], Index: idx}, nil
}

// Release frees the worker pool, if any.
// The matcher falls back to sequential scans afterwards.
func (m *Matcher) Release() {
	if m.pool != nil {
		m.pool.Release()
		m.pool = nil
	}
}
