package usecase

import (
	"context"
	"sort"

	"github.com/fekuna/pricewatch-service/internal/duplicate"
	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/fekuna/pricewatch-service/pkg/logger"
	"go.uber.org/zap"
)

type Config struct {
	Threshold  float64
	MaxMatches int
	PoolSize   int
}

type matcherUseCase struct {
	repo   duplicate.Repository
	cfg    Config
	logger logger.ZapLogger
}

func NewMatcherUseCase(repo duplicate.Repository, cfg Config, log logger.ZapLogger) duplicate.UseCase {
	if cfg.MaxMatches <= 0 {
		cfg.MaxMatches = 10
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 50
	}
	return &matcherUseCase{repo: repo, cfg: cfg, logger: log}
}

func (uc *matcherUseCase) FindCandidates(ctx context.Context, categoryID, shopID int64, excludeIDs []int64) ([]model.DuplicateCandidate, error) {
	if categoryID <= 0 || shopID <= 0 {
		return nil, duplicate.ErrInvalidScope
	}

	pool, err := uc.repo.Pool(ctx, categoryID, shopID, excludeIDs, uc.cfg.PoolSize)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, nil
	}
	others, err := uc.repo.Unlisted(ctx, shopID)
	if err != nil {
		return nil, err
	}

	otherTrigrams := make([]map[string]struct{}, len(others))
	for i, o := range others {
		otherTrigrams[i] = duplicate.Trigrams(o.Name)
	}

	var out []model.DuplicateCandidate
	for _, p := range pool {
		pt := duplicate.Trigrams(p.Name)
		var matches []model.DuplicateMatch
		for i, o := range others {
			if o.ID == p.ID {
				continue
			}
			sim := duplicate.SimilarityOf(pt, otherTrigrams[i])
			if sim <= uc.cfg.Threshold {
				continue
			}
			matches = append(matches, model.DuplicateMatch{
				Product:     o,
				Similarity:  sim,
				ExactPrefix: duplicate.HasExactPrefix(p.Name, o.Name),
			})
		}
		if len(matches) == 0 {
			continue
		}
		sortMatches(matches)
		if len(matches) > uc.cfg.MaxMatches {
			matches = matches[:uc.cfg.MaxMatches]
		}
		out = append(out, model.DuplicateCandidate{Product: p, Matches: matches})
	}

	uc.logger.Debug("duplicate candidates computed",
		zap.Int64("category_id", categoryID),
		zap.Int64("shop_id", shopID),
		zap.Int("pool", len(pool)),
		zap.Int("candidates", len(out)),
	)
	return out, nil
}

func sortMatches(m []model.DuplicateMatch) {
	sort.SliceStable(m, func(i, j int) bool {
		if m[i].ExactPrefix != m[j].ExactPrefix {
			return m[i].ExactPrefix
		}
		if m[i].Similarity != m[j].Similarity {
			return m[i].Similarity > m[j].Similarity
		}
		return m[i].Product.ID < m[j].Product.ID
	})
}
