package repository

import (
	"context"
	"time"

	"github.com/rently/rently-api/internal/domain/entity"
)

// MortgageLineRepository is the persistence port for mortgage tranches.
type MortgageLineRepository interface {
	Create(ctx context.Context, line *entity.MortgageLine) error
	GetByID(ctx context.Context, id string) (*entity.MortgageLine, error)
	ListByProperty(ctx context.Context, tenantID, propertyID string) ([]*entity.MortgageLine, error)
	// ListRunning returns lines whose [startDate, endDate] window contains at.
	ListRunning(ctx context.Context, at time.Time) ([]*entity.MortgageLine, error)
}
