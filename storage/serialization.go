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
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/originality/core"
)

// MarshalEntry serializes an Entry to bytes.
// Layout: varint ID, length-prefixed content, varint UnixMicro insertion
// time (0 for a zero time).
func MarshalEntry(entry *core.Entry) []byte {
	ts := insertedMicros(entry.InsertedAt)
	size := varint.Uint64.Size(uint64(entry.Id)) +
		ord.String.Size(entry.Content) +
		varint.Int64.Size(ts)

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(entry.Id), buf)
	n += ord.String.Marshal(entry.Content, buf[n:])
	varint.Int64.Marshal(ts, buf[n:])
	return buf
}

// UnmarshalEntry deserializes an Entry from bytes.
func UnmarshalEntry(data []byte) (*core.Entry, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedData
	}

	id, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	content, n1, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: content: %w", ErrSerializationFailed, err)
	}
	n += n1
	ts, _, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: inserted at: %w", ErrSerializationFailed, err)
	}

	entry := &core.Entry{
		Id:      core.ID(id),
		Content: content,
	}
	if ts != 0 {
		entry.InsertedAt = time.UnixMicro(ts).UTC()
	}
	return entry, nil
}

func insertedMicros(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}
