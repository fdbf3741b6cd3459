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

package detect

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/originality/core"
)

// BatchItem is the result of one batch line.
type BatchItem struct {
	Line    int // 1-based line number in the input
	Text    string
	Verdict *core.Verdict // nil if the check failed before a verdict
	Err     error
}

// BatchSummary tallies a batch run.
type BatchSummary struct {
	Total             int
	Unique            int
	AssumedUnique     int
	PlagiarizedLocal  int
	PlagiarizedOnline int
	Failed            int
}

// BatchLine is one non-blank input line.
type BatchLine struct {
	Number int
	Text   string
}

// ReadBatch reads the non-blank lines of r. "\n", "\r\n" and a bare "\r"
// all end a line.
func ReadBatch(r io.Reader) ([]BatchLine, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	scanner.Split(core.ScanLines)

	var lines []BatchLine
	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		lines = append(lines, BatchLine{Number: n, Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading batch line %d: %w", n+1, err)
	}
	return lines, nil
}

// CheckBatch checks lines in order, so each line sees the corpus learned
// from earlier ones. Per-line failures are recorded in the item and do not
// stop the run; a done context does. onItem, if non-nil, is called after
// each line.
func (d *Detector) CheckBatch(ctx context.Context, lines []BatchLine, progress *ProgressTracker, onItem func(BatchItem)) (*BatchSummary, error) {
	summary := &BatchSummary{}
	if progress != nil {
		progress.Start()
		defer progress.Finish()
	}

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		verdict, err := d.Check(ctx, line.Text)
		if err != nil && verdict == nil && ctx.Err() != nil {
			return summary, ctx.Err()
		}

		item := BatchItem{Line: line.Number, Text: line.Text, Verdict: verdict, Err: err}
		summary.add(item)
		if onItem != nil {
			onItem(item)
		}
		if progress != nil {
			progress.Increment(1)
		}
	}
	return summary, nil
}

func (s *BatchSummary) add(item BatchItem) {
	s.Total++
	if item.Err != nil {
		s.Failed++
	}
	if item.Verdict == nil {
		return
	}
	switch item.Verdict.Kind {
	case core.VerdictPlagiarizedLocal:
		s.PlagiarizedLocal++
	case core.VerdictPlagiarizedOnline:
		s.PlagiarizedOnline++
	case core.VerdictUnique:
		s.Unique++
		if item.Verdict.AssumedUnique() {
			s.AssumedUnique++
		}
	}
}

// String renders the summary on one line.
func (s *BatchSummary) String() string {
	return fmt.Sprintf("checked %d: %d unique (%d assumed), %d plagiarized locally, %d plagiarized online, %d failed",
		s.Total, s.Unique, s.AssumedUnique, s.PlagiarizedLocal, s.PlagiarizedOnline, s.Failed)
}
