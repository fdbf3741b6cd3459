package search

import "context"

// Engine is an external web search capability.
// Implementations must be safe for concurrent use.
type Engine interface {
	// Search runs query and returns the number of organic results, at most
	// limit. A response with no results is (0, nil). Transport failures
	// and malformed responses are errors; wrap failures that retrying
	// cannot fix with Permanent.
	Search(ctx context.Context, query string, limit int) (int, error)

	// Name identifies the engine in logs.
	Name() string
}
