// Package storage holds the corpus of canonical texts.
//
// A Corpus is an in-memory set, unique by content, kept in the order its
// entries were loaded or added. It is rebuilt once at startup by replaying a
// Backing and grows monotonically afterwards: entries are never edited or
// removed.
//
// Add writes to the backing first and only then inserts into memory, so a
// failed write leaves the set unchanged and a later restart replays exactly
// what the process saw.
//
// Two backings ship with the module:
//
//   - storage/file: a UTF-8 text file with one canonical string per line
//   - storage/badger: a BadgerDB directory
//
// All Corpus methods are safe for concurrent use.
package storage
