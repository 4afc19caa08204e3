package repository

import (
	"context"

	"github.com/rently/rently-api/internal/domain/entity"
)

// RenterRepository read-side port for renters.
type RenterRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Renter, error)
}
