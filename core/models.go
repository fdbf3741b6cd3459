package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for corpus entries.
// It is derived from the canonical content, so equal content shares an ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Entry is a single canonical text held by the corpus.
// Content is always the output of Normalize, never raw input.
type Entry struct {
	Id         ID
	Content    string
	InsertedAt time.Time // Zero when the backing does not record it
}

// NewEntry builds an Entry for already-normalized content.
func NewEntry(canonical string) *Entry {
	return &Entry{
		Id:         IDFromContent(canonical),
		Content:    canonical,
		InsertedAt: time.Now().UTC(),
	}
}

// LocalMatch is a corpus entry whose similarity met the threshold.
type LocalMatch struct {
	Entry *Entry
	Score float64
	Index int // Position of Entry in the scanned snapshot
}

// SearchStatus is the result of an online search.
type SearchStatus int

const (
	// SearchSkipped means no online search was performed.
	SearchSkipped SearchStatus = iota
	// SearchFound means the engine reported at least one organic result.
	SearchFound
	// SearchNotFound means the engine answered with zero organic results.
	SearchNotFound
	// SearchIndeterminate means no definitive answer was obtained.
	SearchIndeterminate
)

func (s SearchStatus) String() string {
	switch s {
	case SearchSkipped:
		return "skipped"
	case SearchFound:
		return "found"
	case SearchNotFound:
		return "not_found"
	case SearchIndeterminate:
		return "indeterminate"
	default:
		return fmt.Sprintf("SearchStatus(%d)", int(s))
	}
}

// SearchOutcome describes one online prove, across all of its attempts.
type SearchOutcome struct {
	Status   SearchStatus
	Attempts int
	Err      error // Last failure; set only when Status is SearchIndeterminate
}

// VerdictKind classifies a submission.
type VerdictKind int

const (
	// VerdictUnique means neither the corpus nor the web produced a match.
	VerdictUnique VerdictKind = iota + 1
	// VerdictPlagiarizedLocal means a corpus entry met the similarity threshold.
	VerdictPlagiarizedLocal
	// VerdictPlagiarizedOnline means the online search found the text.
	VerdictPlagiarizedOnline
)

func (k VerdictKind) String() string {
	switch k {
	case VerdictUnique:
		return "unique"
	case VerdictPlagiarizedLocal:
		return "plagiarized_local"
	case VerdictPlagiarizedOnline:
		return "plagiarized_online"
	default:
		return fmt.Sprintf("VerdictKind(%d)", int(k))
	}
}

// Verdict is produced fresh for every submission and never persisted.
type Verdict struct {
	Kind   VerdictKind
	Score  float64      // Similarity of the local match; zero otherwise
	Search SearchStatus // Online status that led to the verdict
}

// IsPlagiarized reports whether the verdict flags the submission.
func (v *Verdict) IsPlagiarized() bool {
	return v.Kind == VerdictPlagiarizedLocal || v.Kind == VerdictPlagiarizedOnline
}

// AssumedUnique reports a fail-open verdict: the submission was declared
// unique only because the online search could not complete.
func (v *Verdict) AssumedUnique() bool {
	return v.Kind == VerdictUnique && v.Search == SearchIndeterminate
}

// String renders the verdict for display.
func (v *Verdict) String() string {
	switch v.Kind {
	case VerdictPlagiarizedLocal:
		return fmt.Sprintf("❌ Plagiarized! Similarity: %.2f", v.Score)
	case VerdictPlagiarizedOnline:
		return "❌ Plagiarized! Found similar content online."
	case VerdictUnique:
		switch v.Search {
		case SearchIndeterminate:
			return "✅ Unique! (assumed: online search unavailable)"
		case SearchSkipped:
			return "✅ Unique! No matches found locally (online search disabled)."
		default:
			return "✅ Unique! No matches found online."
		}
	default:
		return v.Kind.String()
	}
}
