// Package search provides the online prover: a check of submitted text
// against an external web search engine.
//
// A prove makes up to MaxAttempts attempts. Each attempt is bounded by an
// attempt timeout and failed attempts are separated by a backoff delay,
// fixed by default. A successful response with at least one organic result
// is Found and one with none is NotFound. If every attempt fails, or an
// engine reports a permanent failure, the outcome is Indeterminate.
//
// Indeterminate is fail-open: the decision layer reports the submission as
// unique, flagged as assumed rather than verified. This favours
// availability over strict detection.
//
// Engines live in subpackages: serpapi (Google results through SerpAPI),
// duckduckgo (keyless HTML search) and mock (scripted, for tests).
package search
