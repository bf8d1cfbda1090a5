package listening

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagpulse/internal/domain/thread"
	"tagpulse/internal/domain/trend"
)

type fakeSource struct {
	items       []trend.Item
	comments    map[string][]thread.CommentRecord
	itemsErr    error
	commentsErr map[string]error
	delay       time.Duration

	inflight    int32
	maxInflight int32
}

func (f *fakeSource) ListItems(ctx context.Context) ([]trend.Item, error) {
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	return f.items, nil
}

func (f *fakeSource) ListComments(ctx context.Context, postID string) ([]thread.CommentRecord, error) {
	n := atomic.AddInt32(&f.inflight, 1)
	defer atomic.AddInt32(&f.inflight, -1)
	for {
		m := atomic.LoadInt32(&f.maxInflight)
		if n <= m || atomic.CompareAndSwapInt32(&f.maxInflight, m, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.commentsErr[postID]; err != nil {
		return nil, err
	}
	return f.comments[postID], nil
}

func (f *fakeSource) ListPostIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(f.comments))
	for _, id := range []string{"1", "2", "3"} {
		if _, ok := f.comments[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type published struct {
	subject string
	payload any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{subject: subject, payload: payload})
	return p.err
}

func (p *fakePublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var s []string
	for _, e := range p.events {
		s = append(s, e.subject)
	}
	return s
}

func ref(s string) *string { return &s }

func demoSource() *fakeSource {
	return &fakeSource{
		items: []trend.Item{
			{ID: "1", Labels: []string{"sports", "football"}},
			{ID: "2", Labels: []string{"music", "concert"}},
			{ID: "3", Labels: []string{"news", "sports"}},
		},
		comments: map[string][]thread.CommentRecord{
			"1": {
				{ID: "1", Content: "Wow!", PostID: "1"},
				{ID: "2", Content: "Indeed!", PostID: "1", ParentID: ref("1")},
				{ID: "3", Content: "Agree", PostID: "1", ParentID: ref("2")},
			},
			"2": {
				{ID: "4", Content: "Nice", PostID: "2"},
			},
			"3": {
				{ID: "5", Content: "Lost", PostID: "3", ParentID: ref("999")},
			},
		},
	}
}

func TestTrending(t *testing.T) {
	pub := &fakePublisher{}
	a := NewAnalyzer(demoSource(), pub, DefaultAnalyzerConfig())

	report, err := a.Trending(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, []trend.LabelCount{{Tag: "sports", Count: 2}}, report.Top)
	assert.Equal(t, "sports", report.Target)
	assert.Equal(t, 3, report.ItemCount)
	assert.Equal(t, []trend.Recommendation{
		{Tag: "football", Cooccurrence: 1, Rate: 0.5},
		{Tag: "news", Cooccurrence: 1, Rate: 0.5},
	}, report.Recommendations)
	assert.Equal(t, []string{"analysis.trending"}, pub.subjects())
}

func TestTrendingEmptyBatch(t *testing.T) {
	a := NewAnalyzer(&fakeSource{}, nil, DefaultAnalyzerConfig())

	report, err := a.Trending(context.Background(), 0)
	require.NoError(t, err)

	assert.Empty(t, report.Top)
	assert.Empty(t, report.Target)
	assert.NotNil(t, report.Recommendations)
}

func TestTrendingSourceError(t *testing.T) {
	boom := errors.New("boom")
	a := NewAnalyzer(&fakeSource{itemsErr: boom}, nil, DefaultAnalyzerConfig())

	_, err := a.Trending(context.Background(), 5)
	assert.ErrorIs(t, err, boom)
}

func TestTrendingPublishFailureIsNotFatal(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats down")}
	a := NewAnalyzer(demoSource(), pub, DefaultAnalyzerConfig())

	_, err := a.Trending(context.Background(), 5)
	assert.NoError(t, err)
}

func TestRecommend(t *testing.T) {
	a := NewAnalyzer(demoSource(), nil, DefaultAnalyzerConfig())

	recs, err := a.Recommend(context.Background(), "football", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []trend.Recommendation{{Tag: "sports", Cooccurrence: 1, Rate: 1}}, recs)

	recs, err = a.Recommend(context.Background(), "unknown", 0, 3)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestAnalyzeThread(t *testing.T) {
	pub := &fakePublisher{}
	a := NewAnalyzer(demoSource(), pub, DefaultAnalyzerConfig())

	report, err := a.AnalyzeThread(context.Background(), "1", 0)
	require.NoError(t, err)

	assert.Equal(t, "1", report.PostID)
	assert.Equal(t, 3, report.CommentCount)
	assert.Equal(t, []thread.RootDepth{{RootID: "1", Depth: 3}}, report.Depths)
	require.Len(t, report.Chains, 1)
	assert.Equal(t, thread.Chain{
		{ID: "1", Content: "Wow!"},
		{ID: "2", Content: "Indeed!"},
		{ID: "3", Content: "Agree"},
	}, report.Chains[0])
	assert.Equal(t, []string{"analysis.chains"}, pub.subjects())

	report, err = a.AnalyzeThread(context.Background(), "1", 4)
	require.NoError(t, err)
	assert.Empty(t, report.Chains)
	assert.Len(t, pub.subjects(), 1)
}

func TestAnalyzeCommentsOrphanPolicy(t *testing.T) {
	src := demoSource()

	cfg := DefaultAnalyzerConfig()
	report := NewAnalyzer(src, nil, cfg).AnalyzeComments("3", src.comments["3"], 3)
	assert.Equal(t, []thread.RootDepth{{RootID: "5", Depth: 1}}, report.Depths)
	assert.Empty(t, report.Pending)

	cfg.OrphanPolicy = thread.OrphanDefer
	report = NewAnalyzer(src, nil, cfg).AnalyzeComments("3", src.comments["3"], 3)
	assert.Empty(t, report.Depths)
	require.Len(t, report.Pending, 1)
	assert.Equal(t, "5", report.Pending[0].ID)
}

func TestAnalyzeThreadsKeepsOrderAndLimit(t *testing.T) {
	src := demoSource()
	src.delay = 20 * time.Millisecond

	cfg := DefaultAnalyzerConfig()
	cfg.MaxConcurrentBatches = 2
	a := NewAnalyzer(src, nil, cfg)

	reports, err := a.AnalyzeThreads(context.Background(), []string{"3", "1", "2"}, 3)
	require.NoError(t, err)

	require.Len(t, reports, 3)
	assert.Equal(t, "3", reports[0].PostID)
	assert.Equal(t, "1", reports[1].PostID)
	assert.Equal(t, "2", reports[2].PostID)
	assert.Len(t, reports[1].Chains, 1)
	assert.LessOrEqual(t, atomic.LoadInt32(&src.maxInflight), int32(2))
}

func TestAnalyzeThreadsFailure(t *testing.T) {
	boom := errors.New("boom")
	src := demoSource()
	src.commentsErr = map[string]error{"2": boom}

	a := NewAnalyzer(src, nil, DefaultAnalyzerConfig())

	_, err := a.AnalyzeThreads(context.Background(), []string{"1", "2", "3"}, 3)
	assert.ErrorIs(t, err, boom)
}

func TestAnalyzeAllThreads(t *testing.T) {
	a := NewAnalyzer(demoSource(), nil, DefaultAnalyzerConfig())

	reports, err := a.AnalyzeAllThreads(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{reports[0].PostID, reports[1].PostID, reports[2].PostID})
}
