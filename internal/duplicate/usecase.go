package duplicate

import (
	"context"
	"errors"

	"github.com/fekuna/pricewatch-service/internal/model"
)

var ErrInvalidScope = errors.New("duplicate: category and shop are required")

type UseCase interface {
	FindCandidates(ctx context.Context, categoryID, shopID int64, excludeIDs []int64) ([]model.DuplicateCandidate, error)
}
