package detect

import "errors"

var (
	// ErrPersistFailed is returned together with a valid verdict when the
	// submission could not be written to the corpus.
	ErrPersistFailed = errors.New("verdict computed but persistence failed")

	// ErrCorpusRequired is returned when a detector is created without a corpus.
	ErrCorpusRequired = errors.New("corpus required")

	// ErrMatcherRequired is returned when a detector is created without a matcher.
	ErrMatcherRequired = errors.New("local matcher required")
)
