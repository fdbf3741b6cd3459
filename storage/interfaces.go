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

	"github.com/poiesic/originality/core"
)

// Backing is the durable, append-only record behind a Corpus.
// The order of appended entries is incidental; it is only replayed to
// rebuild the set.
type Backing interface {
	// Replay calls fn for every stored entry in append order.
	// A backing that does not exist yet replays nothing and returns nil.
	// Any other read failure is returned and must be treated as fatal.
	Replay(ctx context.Context, fn func(entry *core.Entry) error) error

	// Append durably records entry before returning.
	// On failure nothing observable by a later Replay may remain.
	Append(ctx context.Context, entry *core.Entry) error

	// Close releases the backing's resources.
	Close() error
}

// CorpusReader is read access to the corpus for a scoring pass.
type CorpusReader interface {
	// Contains reports exact membership of canonical text.
	Contains(canonical string) bool

	// Snapshot returns the entries in load/insertion order.
	// The returned slice is owned by the caller.
	Snapshot() []*core.Entry

	// Len returns the number of entries.
	Len() int
}

// CorpusWriter learns submissions into the corpus.
type CorpusWriter interface {
	// Add normalizes text and stores its canonical form if absent.
	// Returns true when a new entry was written.
	Add(ctx context.Context, text string) (bool, error)
}

// CorpusRepository combines read and write access.
type CorpusRepository interface {
	CorpusReader
	CorpusWriter
	Close() error
}
