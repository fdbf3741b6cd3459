package detect

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/originality/core"
	"github.com/poiesic/originality/match"
	"github.com/poiesic/originality/search"
	"github.com/poiesic/originality/search/mock"
	"github.com/poiesic/originality/storage"
	"github.com/poiesic/originality/storage/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	path     string
	corpus   *storage.Corpus
	engine   *mock.MockEngine
	detector *Detector
}

func setup(t *testing.T, threshold float64, engine *mock.MockEngine, seed ...string) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plagiarism_db.txt")
	if len(seed) > 0 {
		var content string
		for _, s := range seed {
			content += s + "\n"
		}
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	log, err := file.Open(path)
	require.NoError(t, err)
	corpus, err := storage.OpenCorpus(context.Background(), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = corpus.Close() })

	matcher, err := match.NewMatcher(threshold)
	require.NoError(t, err)

	var opts []Option
	if engine != nil {
		prover, err := search.NewProver(engine, search.WithBackoff(search.FixedBackoff(time.Millisecond)))
		require.NoError(t, err)
		opts = append(opts, WithProver(prover))
	}

	detector, err := NewDetector(corpus, matcher, opts...)
	require.NoError(t, err)
	return &fixture{path: path, corpus: corpus, engine: engine, detector: detector}
}

func TestNewDetector_Validation(t *testing.T) {
	matcher, err := match.NewMatcher(match.DefaultThreshold)
	require.NoError(t, err)

	_, err = NewDetector(nil, matcher)
	assert.ErrorIs(t, err, ErrCorpusRequired)

	_, err = NewDetector(&failingCorpus{}, nil)
	assert.ErrorIs(t, err, ErrMatcherRequired)
}

func TestCheck_UniqueOnEmptyCorpus(t *testing.T) {
	f := setup(t, 0.75, mock.NotFound())

	verdict, err := f.detector.Check(context.Background(), "The quick brown fox")
	require.NoError(t, err)
	assert.Equal(t, core.VerdictUnique, verdict.Kind)
	assert.Equal(t, core.SearchNotFound, verdict.Search)
	assert.False(t, verdict.AssumedUnique())
	assert.Equal(t, "✅ Unique! No matches found online.", verdict.String())

	assert.True(t, f.corpus.Contains("the quick brown fox"))
	assert.Equal(t, []string{"The quick brown fox"}, f.engine.Queries(), "online query uses raw text")

	data, err := os.ReadFile(f.path)
	require.NoError(t, err)
	assert.Equal(t, "the quick brown fox\n", string(data))
}

func TestCheck_LocalExactMatch(t *testing.T) {
	f := setup(t, 0.75, mock.Found(), "hello world")

	verdict, err := f.detector.Check(context.Background(), "Hello   World!!!")
	require.NoError(t, err)
	assert.Equal(t, core.VerdictPlagiarizedLocal, verdict.Kind)
	assert.Equal(t, 1.0, verdict.Score)
	assert.Equal(t, "❌ Plagiarized! Similarity: 1.00", verdict.String())
	assert.Equal(t, 0, f.engine.CallCount(), "local match skips online search")
}

func TestCheck_LocalNearMatch(t *testing.T) {
	f := setup(t, 0.9, mock.NotFound(), "the cat sat on the mat")

	verdict, err := f.detector.Check(context.Background(), "the cat sat on a mat")
	require.NoError(t, err)
	assert.Equal(t, core.VerdictPlagiarizedLocal, verdict.Kind)
	assert.InDelta(t, 38.0/42.0, verdict.Score, 1e-12)
	assert.Equal(t, "❌ Plagiarized! Similarity: 0.90", verdict.String())
	assert.Equal(t, 2, f.corpus.Len(), "near match is still learned")
}

func TestCheck_BelowThresholdGoesOnline(t *testing.T) {
	f := setup(t, 0.95, mock.Found(), "the cat sat on the mat")

	verdict, err := f.detector.Check(context.Background(), "the cat sat on a mat")
	require.NoError(t, err)
	assert.Equal(t, core.VerdictPlagiarizedOnline, verdict.Kind)
	assert.Equal(t, core.SearchFound, verdict.Search)
	assert.Equal(t, 1, f.engine.CallCount())
}

func TestCheck_RepeatSubmissionIsCaughtLocally(t *testing.T) {
	f := setup(t, 0.75, mock.Found())

	first, err := f.detector.Check(context.Background(), "Copied paragraph from somewhere.")
	require.NoError(t, err)
	assert.Equal(t, core.VerdictPlagiarizedOnline, first.Kind)

	second, err := f.detector.Check(context.Background(), "Copied paragraph from somewhere.")
	require.NoError(t, err)
	assert.Equal(t, core.VerdictPlagiarizedLocal, second.Kind)
	assert.Equal(t, 1.0, second.Score)
	assert.Equal(t, 1, f.engine.CallCount())
	assert.Equal(t, 1, f.corpus.Len())
}

func TestCheck_FailOpen(t *testing.T) {
	f := setup(t, 0.75, mock.Failing(errors.New("network unreachable")))

	verdict, err := f.detector.Check(context.Background(), "something new")
	require.NoError(t, err)
	assert.Equal(t, core.VerdictUnique, verdict.Kind)
	assert.True(t, verdict.AssumedUnique())
	assert.False(t, verdict.IsPlagiarized())
	assert.Equal(t, search.DefaultMaxAttempts, f.engine.CallCount())
	assert.True(t, f.corpus.Contains("something new"))
}

func TestCheck_Offline(t *testing.T) {
	f := setup(t, 0.75, nil)
	assert.False(t, f.detector.Online())

	verdict, err := f.detector.Check(context.Background(), "offline text")
	require.NoError(t, err)
	assert.Equal(t, core.VerdictUnique, verdict.Kind)
	assert.Equal(t, core.SearchSkipped, verdict.Search)
	assert.True(t, f.corpus.Contains("offline text"))
}

func TestCheck_EmptyText(t *testing.T) {
	f := setup(t, 0.75, mock.Found())

	for _, text := range []string{"", "   ", "!!!???", "éè"} {
		verdict, err := f.detector.Check(context.Background(), text)
		assert.ErrorIs(t, err, core.ErrEmptyText, "text %q", text)
		assert.Nil(t, verdict)
	}
	assert.Equal(t, 0, f.corpus.Len())
	assert.Equal(t, 0, f.engine.CallCount())
}

func TestCheck_CanceledContextStoresNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	engine := &mock.MockEngine{
		SearchFunc: func(context.Context, string, int) (int, error) {
			cancel()
			return 0, errors.New("interrupted")
		},
	}
	f := setup(t, 0.75, engine)

	verdict, err := f.detector.Check(ctx, "never stored")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, verdict)
	assert.Equal(t, 0, f.corpus.Len())
}

type failingCorpus struct {
	entries []*core.Entry
}

func (c *failingCorpus) Snapshot() []*core.Entry { return c.entries }

func (c *failingCorpus) Add(context.Context, string) (bool, error) {
	return false, storage.ErrStoreWrite
}

func TestCheck_PersistFailureKeepsVerdict(t *testing.T) {
	matcher, err := match.NewMatcher(0.75)
	require.NoError(t, err)
	corpus := &failingCorpus{entries: []*core.Entry{core.NewEntry("hello world")}}
	d, err := NewDetector(corpus, matcher)
	require.NoError(t, err)

	verdict, err := d.Check(context.Background(), "hello world")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistFailed)
	assert.ErrorIs(t, err, storage.ErrStoreWrite)
	require.NotNil(t, verdict)
	assert.Equal(t, core.VerdictPlagiarizedLocal, verdict.Kind)
}

func TestCheck_ConcurrentIdenticalSubmissions(t *testing.T) {
	f := setup(t, 0.75, mock.NotFound())

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.detector.Check(context.Background(), "Same text, same time.")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	assert.Equal(t, 1, f.corpus.Len())
	data, err := os.ReadFile(f.path)
	require.NoError(t, err)
	assert.Equal(t, "same text same time\n", string(data), "no duplicate line")
}

type recordingMonitor struct {
	noopMonitor
	events []string
}

func (m *recordingMonitor) Start(string)                          { m.events = append(m.events, "start") }
func (m *recordingMonitor) AfterLocalMatch(*core.LocalMatch)      { m.events = append(m.events, "local") }
func (m *recordingMonitor) BeforeOnlineSearch(string)             { m.events = append(m.events, "search") }
func (m *recordingMonitor) AfterOnlineSearch(*core.SearchOutcome) { m.events = append(m.events, "searched") }
func (m *recordingMonitor) AfterPersist(bool, error)              { m.events = append(m.events, "persist") }
func (m *recordingMonitor) Finish(*core.Verdict)                  { m.events = append(m.events, "finish") }

func TestCheckWithMonitor_Stages(t *testing.T) {
	f := setup(t, 0.75, mock.NotFound())

	m := &recordingMonitor{}
	_, err := f.detector.CheckWithMonitor(context.Background(), "first text", m)
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "local", "search", "searched", "persist", "finish"}, m.events)

	m = &recordingMonitor{}
	_, err = f.detector.CheckWithMonitor(context.Background(), "first text", m)
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "local", "persist", "finish"}, m.events)
}
