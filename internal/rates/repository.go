package rates

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/perfdash-backend/internal/repo"
	"github.com/angelmondragon/perfdash-backend/pkg/db/models"
)

// Repository persists currency rates.
type Repository struct {
	repo.Base
}

// NewRepository binds a GORM DB to rate operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Upsert inserts or refreshes the given rows keyed by currency.
func (r *Repository) Upsert(ctx context.Context, rows []models.CurrencyRate) error {
	if len(rows) == 0 {
		return nil
	}
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "currency"}},
		DoUpdates: clause.AssignmentColumns([]string{"per_usd", "as_of", "updated_at"}),
	}).Create(&rows).Error
}

// All returns every stored rate ordered by currency.
func (r *Repository) All(ctx context.Context) ([]models.CurrencyRate, error) {
	var rows []models.CurrencyRate
	if err := r.DB(ctx).Order("currency ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
