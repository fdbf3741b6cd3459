// Package detect decides whether submitted text is original.
//
// A Detector runs each submission through one pass: normalize, look for a
// local match at or above the similarity threshold, fall back to the online
// prover when nothing local matches, then learn the submission into the
// corpus regardless of the verdict. Repeated submissions are therefore
// caught locally after the first one.
//
// Online search failures fail open. An exhausted or permanently failing
// search yields a Unique verdict that reports AssumedUnique, so callers can
// tell "verified unique" from "assumed unique".
//
// Detector is safe for concurrent use. No lock is held while the online
// prover waits on the network; two identical submissions racing each other
// may both search online, but the corpus stores the text once.
package detect
