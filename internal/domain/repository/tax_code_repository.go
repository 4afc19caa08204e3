package repository

import (
	"context"

	"github.com/rently/rently-api/internal/domain/entity"
)

// TaxCodeRepository read-side port for VAT percentages.
type TaxCodeRepository interface {
	GetByID(ctx context.Context, id string) (*entity.TaxCode, error)
	List(ctx context.Context) ([]*entity.TaxCode, error)
}
