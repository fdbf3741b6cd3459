// Package match scores canonical texts against the corpus.
//
// Similarity is the classic block-matching ratio, computed by go-difflib with
// one element per rune: find the longest common contiguous run, recurse on
// the left and right remainders, and report 2*matched/(len(a)+len(b)). The ratio is not symmetric in general, since
// ties and the autojunk heuristic depend on argument order; the matcher
// always passes the submission first and the stored entry second.
//
// The Matcher scans every entry in corpus order and returns the first one
// that meets the threshold. Scanning is O(entries * length^2) in the worst
// case. Larger corpora would need an indexed approximate structure such as
// shingling with an inverted index.
package match
