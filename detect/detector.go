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
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/originality/core"
)

// Corpus is the store a Detector reads from and learns into.
type Corpus interface {
	Snapshot() []*core.Entry
	Add(ctx context.Context, text string) (bool, error)
}

// LocalMatcher finds the first stored entry similar enough to canonical.
type LocalMatcher interface {
	FindLocalMatch(ctx context.Context, canonical string, entries []*core.Entry) (*core.LocalMatch, error)
}

// OnlineProver checks raw text against a web search engine.
type OnlineProver interface {
	Prove(ctx context.Context, query string) *core.SearchOutcome
}

// Detector orchestrates a single originality check.
type Detector struct {
	corpus  Corpus
	matcher LocalMatcher
	prover  OnlineProver
	logger  *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithProver enables the online fallback. Without a prover the detector
// runs offline and unmatched submissions are Unique with SearchSkipped.
func WithProver(prover OnlineProver) Option {
	return func(d *Detector) {
		d.prover = prover
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger.With("component", "detector")
	}
}

// NewDetector creates a detector over corpus and matcher.
func NewDetector(corpus Corpus, matcher LocalMatcher, opts ...Option) (*Detector, error) {
	if corpus == nil {
		return nil, ErrCorpusRequired
	}
	if matcher == nil {
		return nil, ErrMatcherRequired
	}
	d := &Detector{
		corpus:  corpus,
		matcher: matcher,
		logger:  slog.Default().With("component", "detector"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Online reports whether an online prover is configured.
func (d *Detector) Online() bool {
	return d.prover != nil
}

// Check decides whether text is original and learns it into the corpus.
func (d *Detector) Check(ctx context.Context, text string) (*core.Verdict, error) {
	return d.CheckWithMonitor(ctx, text, nil)
}

// CheckWithMonitor is Check with callbacks at each stage.
//
// Text whose canonical form is empty fails with core.ErrEmptyText and is
// not stored. If the context ends before the verdict is known, the context
// error is returned and nothing is stored. If storing fails, the verdict is
// returned along with an error wrapping ErrPersistFailed.
func (d *Detector) CheckWithMonitor(ctx context.Context, text string, monitor Monitor) (*core.Verdict, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	canonical := core.Normalize(text)
	if canonical == "" {
		return nil, core.ErrEmptyText
	}
	monitor.Start(text)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	local, err := d.matcher.FindLocalMatch(ctx, canonical, d.corpus.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("local match: %w", err)
	}
	monitor.AfterLocalMatch(local)

	var verdict *core.Verdict
	switch {
	case local != nil:
		d.logger.Debug("local match", "id", local.Entry.Id, "score", local.Score)
		verdict = &core.Verdict{Kind: core.VerdictPlagiarizedLocal, Score: local.Score, Search: core.SearchSkipped}
	case d.prover != nil:
		monitor.BeforeOnlineSearch(text)
		outcome := d.prover.Prove(ctx, text)
		monitor.AfterOnlineSearch(outcome)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		kind := core.VerdictUnique
		if outcome.Status == core.SearchFound {
			kind = core.VerdictPlagiarizedOnline
		}
		verdict = &core.Verdict{Kind: kind, Search: outcome.Status}
	default:
		verdict = &core.Verdict{Kind: core.VerdictUnique, Search: core.SearchSkipped}
	}

	// Every submission is learned, flagged or not
	added, err := d.corpus.Add(ctx, text)
	monitor.AfterPersist(added, err)
	if err != nil {
		d.logger.Error("error persisting submission", "verdict", verdict.Kind, "err", err)
		monitor.Finish(verdict)
		return verdict, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	d.logger.Info("check finished", "verdict", verdict.Kind, "search", verdict.Search, "added", added)
	monitor.Finish(verdict)
	return verdict, nil
}
