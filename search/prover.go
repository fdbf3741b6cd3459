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

package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/originality/core"
)

const (
	// DefaultMaxAttempts is the total number of attempts per prove.
	DefaultMaxAttempts = 3
	// DefaultRetryDelay is the fixed wait between failed attempts.
	DefaultRetryDelay = 2 * time.Second
	// DefaultAttemptTimeout bounds a single attempt.
	DefaultAttemptTimeout = 10 * time.Second
	// DefaultResultLimit is the result-count hint sent to the engine.
	DefaultResultLimit = 5
)

// Prover checks submissions against a web search engine.
//
// Prove never returns an error. Exhausted or permanently failing attempts
// yield an Indeterminate outcome, which callers treat as "assume unique".
type Prover struct {
	engine         Engine
	maxAttempts    int
	backoff        Backoff
	attemptTimeout time.Duration
	resultLimit    int
	logger         *slog.Logger
}

// Option configures a Prover.
type Option func(*Prover) error

// WithMaxAttempts sets the total number of attempts.
// Default is DefaultMaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(p *Prover) error {
		if n <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = n
		return nil
	}
}

// WithBackoff sets the delay policy between attempts.
// Default is FixedBackoff(DefaultRetryDelay).
func WithBackoff(backoff Backoff) Option {
	return func(p *Prover) error {
		if backoff != nil {
			p.backoff = backoff
		}
		return nil
	}
}

// WithAttemptTimeout bounds each attempt. Zero disables the bound.
// Default is DefaultAttemptTimeout.
func WithAttemptTimeout(timeout time.Duration) Option {
	return func(p *Prover) error {
		if timeout < 0 {
			return fmt.Errorf("attempt timeout must not be negative: %v", timeout)
		}
		p.attemptTimeout = timeout
		return nil
	}
}

// WithResultLimit sets the result-count hint passed to the engine.
// Default is DefaultResultLimit.
func WithResultLimit(limit int) Option {
	return func(p *Prover) error {
		if limit < 1 {
			limit = 1
		}
		p.resultLimit = limit
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prover) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "online-prover")
		return nil
	}
}

// NewProver creates a prover over engine.
func NewProver(engine Engine, opts ...Option) (*Prover, error) {
	if engine == nil {
		return nil, ErrEngineRequired
	}

	p := &Prover{
		engine:         engine,
		maxAttempts:    DefaultMaxAttempts,
		backoff:        FixedBackoff(DefaultRetryDelay),
		attemptTimeout: DefaultAttemptTimeout,
		resultLimit:    DefaultResultLimit,
		logger:         slog.Default().With("component", "online-prover"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// MaxAttempts returns the configured attempt ceiling.
func (p *Prover) MaxAttempts() int {
	return p.maxAttempts
}

// Prove searches for query with the configured attempt ceiling.
func (p *Prover) Prove(ctx context.Context, query string) *core.SearchOutcome {
	return p.ProveWithAttempts(ctx, query, p.maxAttempts)
}

// ProveWithAttempts searches for query, making at most maxAttempts attempts.
// Query is sent as given; callers pass the raw submitted text.
func (p *Prover) ProveWithAttempts(ctx context.Context, query string, maxAttempts int) *core.SearchOutcome {
	p.logger.Debug("searching online", "engine", p.engine.Name(), "queryLength", len(query))

	var count int
	attempts, err := Retry(ctx, func(attempt int) error {
		n, err := p.attempt(ctx, query)
		if err != nil {
			p.logger.Warn("error in online search", "engine", p.engine.Name(), "attempt", attempt, "maxAttempts", maxAttempts, "err", err)
			return err
		}
		count = n
		return nil
	}, maxAttempts, p.backoff)

	if err != nil {
		p.logger.Warn("online search indeterminate, assuming unique", "engine", p.engine.Name(), "attempts", attempts, "err", err)
		return &core.SearchOutcome{
			Status:   core.SearchIndeterminate,
			Attempts: attempts,
			Err:      err,
		}
	}

	status := core.SearchNotFound
	if count > 0 {
		status = core.SearchFound
	}
	p.logger.Debug("online search finished", "engine", p.engine.Name(), "results", count, "attempts", attempts)
	return &core.SearchOutcome{
		Status:   status,
		Attempts: attempts,
	}
}

type attemptResult struct {
	count int
	err   error
}

// attempt runs one engine call, abandoning it when the attempt timeout
// elapses even if the engine ignores its context.
func (p *Prover) attempt(ctx context.Context, query string) (int, error) {
	attemptCtx := ctx
	if p.attemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, p.attemptTimeout)
		defer cancel()
	}

	done := make(chan attemptResult, 1)
	go func() {
		n, err := p.engine.Search(attemptCtx, query, p.resultLimit)
		done <- attemptResult{count: n, err: err}
	}()

	select {
	case res := <-done:
		return res.count, res.err
	case <-attemptCtx.Done():
		return 0, fmt.Errorf("attempt abandoned: %w", attemptCtx.Err())
	}
}
