package rerank

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/serpdex/internal/domain"
	"github.com/kailas-cloud/serpdex/internal/domain/authority"
	"github.com/kailas-cloud/serpdex/internal/domain/search/result"
	"github.com/kailas-cloud/serpdex/internal/logger"
)

// rankScale maps an Open PageRank value (0..10) onto the similarity range.
const rankScale = 10.0

// Authority blends similarity with the static rank of the result's domain.
type Authority struct {
	module authority.Module
}

// NewAuthority creates an authority reranker over module.
func NewAuthority(module authority.Module) *Authority {
	return &Authority{module: module}
}

// Enabled reports whether Rerank can run.
func (a *Authority) Enabled() bool { return a.module.IsEnabled() }

// Rerank rescores results as importance*(rank/10) + (1-importance)*score and
// returns at most limit of them by descending score.
func (a *Authority) Rerank(ctx context.Context, results []result.Result, limit int) ([]result.Result, error) {
	if !a.module.IsEnabled() {
		return nil, domain.NewStageError(domain.StageAuthority, domain.ErrFeatureDisabled, nil)
	}

	log := logger.FromContext(ctx)
	imp := a.module.Importance()
	table := a.module.Table()

	out := make([]result.Result, 0, len(results))
	for _, r := range results {
		var rank float64
		host, err := authority.HostOf(r.URL())
		if err != nil {
			log.Warn("Cannot extract domain, using rank 0", zap.String("url", r.URL()), zap.Error(err))
		} else {
			rank = table.Rank(host)
		}
		out = append(out, r.WithScore(imp*(rank/rankScale)+(1-imp)*r.Score()))
	}

	sortByScore(out)
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
