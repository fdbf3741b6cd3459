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

package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/originality/core"
	"github.com/poiesic/originality/storage"
)

// Backing stores corpus entries in BadgerDB. Entries are keyed by an
// append sequence so Replay returns them in append order, and indexed by
// content ID to refuse duplicates.
type Backing struct {
	backend *Backend
	seq     *badger.Sequence
	mu      sync.Mutex
	closed  bool
}

var _ storage.Backing = (*Backing)(nil)

// OpenBacking opens a backing in dirPath, or in memory when inMemory is set.
func OpenBacking(dirPath string, inMemory bool, opts ...Option) (*Backing, error) {
	backend, err := OpenBackend(dirPath, inMemory, opts...)
	if err != nil {
		return nil, err
	}

	seq, err := backend.GetSequence(entryIDSeq)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Backing{
		backend: backend,
		seq:     seq,
	}, nil
}

// Replay iterates entries in append order.
func (b *Backing) Replay(ctx context.Context, fn func(entry *core.Entry) error) error {
	if b.isClosed() {
		return storage.ErrStorageClosed
	}

	return b.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(entryPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var entry *core.Entry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if err := fn(entry); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// Append stores entry in a single committed transaction.
// Returns storage.ErrDuplicateKey if the same content is already stored.
func (b *Backing) Append(ctx context.Context, entry *core.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return storage.ErrStorageClosed
	}

	return b.backend.WithTx(func(tx *badger.Txn) error {
		contentKey := makeContentKey(entry.Id)
		item, err := tx.Get(contentKey)
		switch {
		case err == nil:
			same, err := b.sameContent(tx, item, entry.Content)
			if err != nil {
				return err
			}
			if same {
				return storage.ErrDuplicateKey
			}
			// ID collision with different content: keep the first index entry
			contentKey = nil
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		next, err := b.seq.Next()
		if err != nil {
			return err
		}
		if err := tx.Set(makeEntryKey(next), storage.MarshalEntry(entry)); err != nil {
			return err
		}
		if contentKey != nil {
			seqBuf := make([]byte, 8)
			binary.BigEndian.PutUint64(seqBuf, next)
			if err := tx.Set(contentKey, seqBuf); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

func (b *Backing) sameContent(tx *badger.Txn, indexItem *badger.Item, content string) (bool, error) {
	seqBuf, err := indexItem.ValueCopy(nil)
	if err != nil {
		return false, err
	}
	if len(seqBuf) != 8 {
		return false, storage.ErrTruncatedData
	}

	item, err := tx.Get(makeEntryKey(binary.BigEndian.Uint64(seqBuf)))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}

	var same bool
	err = item.Value(func(val []byte) error {
		stored, err := storage.UnmarshalEntry(val)
		if err != nil {
			return err
		}
		same = stored.Content == content
		return nil
	})
	return same, err
}

func (b *Backing) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Close releases the sequence lease and closes the database.
func (b *Backing) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	if err := b.seq.Release(); err != nil {
		b.backend.logger.Error("error releasing entry sequence", "err", err)
	}
	return b.backend.Close()
}
