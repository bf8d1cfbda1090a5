// internal/service/listening/analyzer.go

package listening

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"tagpulse/internal/domain/thread"
	"tagpulse/internal/domain/trend"
	"tagpulse/internal/logging"
	"tagpulse/internal/metrics"
)

// AnalyzerConfig contains the default engine parameters
type AnalyzerConfig struct {
	TopN                 int
	Threshold            float64
	TopK                 int
	MinDepth             int
	OrphanPolicy         thread.OrphanPolicy
	MaxConcurrentBatches int
	EventsTopic          string
}

// DefaultAnalyzerConfig mirrors the engine defaults.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		TopN:                 trend.DefaultTopN,
		Threshold:            trend.DefaultThreshold,
		TopK:                 trend.DefaultTopK,
		MinDepth:             thread.DefaultMinDepth,
		OrphanPolicy:         thread.OrphanAsRoot,
		MaxConcurrentBatches: 4,
		EventsTopic:          "analysis",
	}
}

// TrendReport is the ranking of one batch plus recommendations for its top
// label.
type TrendReport struct {
	Top             []trend.LabelCount     `json:"top"`
	Target          string                 `json:"target,omitempty"`
	Recommendations []trend.Recommendation `json:"recs"`
	ItemCount       int                    `json:"itemCount"`
	GeneratedAt     time.Time              `json:"generatedAt"`
}

// ThreadReport describes the conversation shape of one post.
type ThreadReport struct {
	PostID       string                 `json:"postId"`
	CommentCount int                    `json:"commentCount"`
	Depths       []thread.RootDepth     `json:"depths"`
	Chains       []thread.Chain         `json:"chains"`
	Pending      []thread.CommentRecord `json:"pending,omitempty"`
}

// Analyzer runs the engines over snapshots loaded from a content source and
// publishes the results.
type Analyzer struct {
	source    ContentSource
	publisher Publisher
	config    AnalyzerConfig
}

// NewAnalyzer creates a new analyzer. publisher may be nil.
func NewAnalyzer(source ContentSource, publisher Publisher, config AnalyzerConfig) *Analyzer {
	defaults := DefaultAnalyzerConfig()
	if config.TopN < 1 {
		config.TopN = defaults.TopN
	}
	if config.TopK < 1 {
		config.TopK = defaults.TopK
	}
	if config.MinDepth < 1 {
		config.MinDepth = defaults.MinDepth
	}
	if config.MaxConcurrentBatches < 1 {
		config.MaxConcurrentBatches = defaults.MaxConcurrentBatches
	}
	if config.EventsTopic == "" {
		config.EventsTopic = defaults.EventsTopic
	}

	return &Analyzer{
		source:    source,
		publisher: publisher,
		config:    config,
	}
}

// Config returns the effective defaults.
func (a *Analyzer) Config() AnalyzerConfig {
	return a.config
}

// AnalyzeItems ranks a caller-supplied batch and recommends for its top label.
func (a *Analyzer) AnalyzeItems(items []trend.Item, topN int) TrendReport {
	if topN < 1 {
		topN = a.config.TopN
	}

	res := trend.ComputeTrending(items, topN)
	report := TrendReport{
		Top:             res.Top,
		Recommendations: []trend.Recommendation{},
		ItemCount:       len(items),
		GeneratedAt:     time.Now().UTC(),
	}
	if len(res.Top) > 0 {
		report.Target = res.Top[0].Tag
		report.Recommendations = res.Recommend(report.Target, a.config.Threshold, a.config.TopK)
	}
	return report
}

// AnalyzeComments reconstructs and measures a caller-supplied comment batch.
func (a *Analyzer) AnalyzeComments(postID string, comments []thread.CommentRecord, minDepth int) ThreadReport {
	if minDepth < 1 {
		minDepth = a.config.MinDepth
	}

	roots, pending := thread.BuildForest(comments, a.config.OrphanPolicy)
	return ThreadReport{
		PostID:       postID,
		CommentCount: len(comments),
		Depths:       thread.RootDepths(roots),
		Chains:       thread.FindViralChains(roots, minDepth),
		Pending:      pending,
	}
}

// Trending loads the current item snapshot, ranks it and publishes the report.
func (a *Analyzer) Trending(ctx context.Context, topN int) (TrendReport, error) {
	start := time.Now()

	items, err := a.source.ListItems(ctx)
	if err != nil {
		metrics.RecordTrending(time.Since(start), 0, err)
		return TrendReport{}, fmt.Errorf("error loading items: %w", err)
	}

	report := a.AnalyzeItems(items, topN)
	metrics.RecordTrending(time.Since(start), len(items), nil)

	logging.Debug().
		Int("items", report.ItemCount).
		Int("top", len(report.Top)).
		Str("target", report.Target).
		Msg("trending computed")

	a.publish(ctx, "trending", report)
	return report, nil
}

// Recommend loads the current item snapshot and recommends labels for target.
// A topK below one falls back to the configured default.
func (a *Analyzer) Recommend(ctx context.Context, target string, threshold float64, topK int) ([]trend.Recommendation, error) {
	items, err := a.source.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading items: %w", err)
	}
	if topK < 1 {
		topK = a.config.TopK
	}

	res := trend.ComputeTrending(items, a.config.TopN)
	return res.Recommend(target, threshold, topK), nil
}

// AnalyzeThread loads the comments of one post and analyses them. A report
// containing viral chains is published.
func (a *Analyzer) AnalyzeThread(ctx context.Context, postID string, minDepth int) (ThreadReport, error) {
	start := time.Now()

	comments, err := a.source.ListComments(ctx, postID)
	if err != nil {
		metrics.RecordThread(time.Since(start), 0, 0, err)
		return ThreadReport{}, fmt.Errorf("error loading comments for post %s: %w", postID, err)
	}

	report := a.AnalyzeComments(postID, comments, minDepth)
	metrics.RecordThread(time.Since(start), len(comments), len(report.Chains), nil)

	if len(report.Chains) > 0 {
		a.publish(ctx, "chains", report)
	}
	return report, nil
}

// AnalyzeThreads analyses each post as an independent unit, at most
// MaxConcurrentBatches at a time. Reports are returned in the order of
// postIDs. The first failure cancels the remaining units.
func (a *Analyzer) AnalyzeThreads(ctx context.Context, postIDs []string, minDepth int) ([]ThreadReport, error) {
	reports := make([]ThreadReport, len(postIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.MaxConcurrentBatches)

	for i, id := range postIDs {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report, err := a.AnalyzeThread(gctx, id, minDepth)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// AnalyzeAllThreads analyses every post the source knows about.
func (a *Analyzer) AnalyzeAllThreads(ctx context.Context, minDepth int) ([]ThreadReport, error) {
	ids, err := a.source.ListPostIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return a.AnalyzeThreads(ctx, ids, minDepth)
}

func (a *Analyzer) publish(ctx context.Context, kind string, payload any) {
	if a.publisher == nil {
		return
	}

	subject := fmt.Sprintf("%s.%s", a.config.EventsTopic, kind)
	if err := a.publisher.Publish(ctx, subject, payload); err != nil {
		logging.Warn().Err(err).Str("subject", subject).Msg("failed to publish analysis event")
	}
}
