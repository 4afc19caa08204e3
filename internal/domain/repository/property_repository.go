package repository

import (
	"context"

	"github.com/rently/rently-api/internal/domain/entity"
)

// PropertyRepository read-side port for properties.
type PropertyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Property, error)
}
