// Package file stores a corpus as a plain UTF-8 text file, one canonical
// string per line, appended in submission order.
//
// The format is shared with earlier tools that wrote the same file, so
// reading is lenient: lines are trimmed, blank lines are skipped and a final
// line without a newline is accepted. Canonical text containing a carriage
// return or line feed is rejected because it could not be read back as one
// entry.
package file
