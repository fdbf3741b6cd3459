package search_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/originality/core"
	"github.com/poiesic/originality/search"
	"github.com/poiesic/originality/search/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProver(t *testing.T, engine search.Engine, opts ...search.Option) *search.Prover {
	t.Helper()
	opts = append([]search.Option{search.WithBackoff(search.FixedBackoff(time.Millisecond))}, opts...)
	p, err := search.NewProver(engine, opts...)
	require.NoError(t, err)
	return p
}

func TestNewProver(t *testing.T) {
	_, err := search.NewProver(nil)
	assert.ErrorIs(t, err, search.ErrEngineRequired)

	_, err = search.NewProver(mock.NotFound(), search.WithMaxAttempts(0))
	assert.ErrorIs(t, err, search.ErrInvalidMaxAttempts)

	p, err := search.NewProver(mock.NotFound())
	require.NoError(t, err)
	assert.Equal(t, search.DefaultMaxAttempts, p.MaxAttempts())
}

func TestProve_Found(t *testing.T) {
	engine := mock.Found()
	outcome := newProver(t, engine).Prove(context.Background(), "The quick brown fox!")

	assert.Equal(t, core.SearchFound, outcome.Status)
	assert.Equal(t, 1, outcome.Attempts)
	assert.NoError(t, outcome.Err)
	assert.Equal(t, []string{"The quick brown fox!"}, engine.Queries(), "raw text is the query")
	assert.Equal(t, []int{search.DefaultResultLimit}, engine.Limits())
}

func TestProve_NotFound(t *testing.T) {
	outcome := newProver(t, mock.NotFound()).Prove(context.Background(), "text")
	assert.Equal(t, core.SearchNotFound, outcome.Status)
	assert.Equal(t, 1, outcome.Attempts)
}

func TestProve_RetriesTransientFailures(t *testing.T) {
	engine := mock.NewMockEngine(
		mock.Response{Err: errors.New("connection reset")},
		mock.Response{Err: errors.New("bad gateway")},
		mock.Response{Count: 1},
	)
	outcome := newProver(t, engine).Prove(context.Background(), "text")
	assert.Equal(t, core.SearchFound, outcome.Status)
	assert.Equal(t, 3, outcome.Attempts)
	assert.Equal(t, 3, engine.CallCount())
}

func TestProve_ExhaustedIsIndeterminate(t *testing.T) {
	transport := errors.New("network unreachable")
	engine := mock.Failing(transport)

	outcome := newProver(t, engine).ProveWithAttempts(context.Background(), "text", 4)
	assert.Equal(t, core.SearchIndeterminate, outcome.Status)
	assert.Equal(t, 4, outcome.Attempts)
	assert.Equal(t, 4, engine.CallCount(), "retries exactly maxAttempts times")
	assert.ErrorIs(t, outcome.Err, transport)
}

func TestProve_PermanentFailure(t *testing.T) {
	engine := mock.Failing(search.Permanent(errors.New("invalid api key")))
	outcome := newProver(t, engine).Prove(context.Background(), "text")
	assert.Equal(t, core.SearchIndeterminate, outcome.Status)
	assert.Equal(t, 1, engine.CallCount())
	assert.True(t, search.IsPermanent(outcome.Err))
}

func TestProve_InvalidAttemptsNeverPanics(t *testing.T) {
	engine := mock.Found()
	outcome := newProver(t, engine).ProveWithAttempts(context.Background(), "text", 0)
	assert.Equal(t, core.SearchIndeterminate, outcome.Status)
	assert.ErrorIs(t, outcome.Err, search.ErrInvalidMaxAttempts)
	assert.Equal(t, 0, engine.CallCount())
}

func TestProve_AttemptTimeout(t *testing.T) {
	engine := &mock.MockEngine{
		SearchFunc: func(ctx context.Context, query string, limit int) (int, error) {
			// Ignores ctx on purpose
			time.Sleep(200 * time.Millisecond)
			return 1, nil
		},
	}
	p := newProver(t, engine, search.WithAttemptTimeout(20*time.Millisecond), search.WithMaxAttempts(2))

	start := time.Now()
	outcome := p.Prove(context.Background(), "slow")
	assert.Equal(t, core.SearchIndeterminate, outcome.Status)
	assert.Equal(t, 2, outcome.Attempts)
	assert.ErrorIs(t, outcome.Err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 200*time.Millisecond, "slow attempts are abandoned")
}

func TestProve_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	engine := &mock.MockEngine{
		SearchFunc: func(ctx context.Context, query string, limit int) (int, error) {
			cancel()
			return 0, errors.New("interrupted")
		},
	}
	outcome := newProver(t, engine, search.WithMaxAttempts(5)).Prove(ctx, "text")
	assert.Equal(t, core.SearchIndeterminate, outcome.Status)
	assert.ErrorIs(t, outcome.Err, context.Canceled)
	assert.Equal(t, 1, engine.CallCount())
}
