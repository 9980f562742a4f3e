package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/perfdash-backend/internal/repo"
	"github.com/angelmondragon/perfdash-backend/pkg/db"
	"github.com/angelmondragon/perfdash-backend/pkg/db/models"
	"github.com/angelmondragon/perfdash-backend/pkg/pagination"
)

// Repository handles account persistence.
type Repository struct {
	repo.Base
}

// NewRepository binds the database client to account operations.
func NewRepository(client *db.Client) *Repository {
	return &Repository{Base: repo.NewBase(client.DB())}
}

func preloadSources(tx *gorm.DB) *gorm.DB {
	return tx.Order("kind ASC")
}

// Create persists the account together with its sources.
func (r *Repository) Create(ctx context.Context, account *models.Account) error {
	if account == nil {
		return fmt.Errorf("account is required")
	}
	return r.DB(ctx).Create(account).Error
}

// FindByID loads an account and its sources.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.DB(ctx).
		Preload("Sources", preloadSources).
		Where("id = ?", id).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindBySlug loads an account by its unique slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Account, error) {
	var account models.Account
	if err := r.DB(ctx).
		Preload("Sources", preloadSources).
		Where("slug = ?", strings.TrimSpace(slug)).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// List returns accounts newest first with cursor pagination.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.Account, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := r.DB(ctx).Model(&models.Account{}).Preload("Sources", preloadSources)

	var rows []models.Account
	if err := repo.NewestFirst(query, cursor).
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error; err != nil {
		return nil, "", err
	}

	page, next := pagination.NextCursor(rows, params.Limit, func(a models.Account) pagination.Cursor {
		return pagination.Cursor{CreatedAt: a.CreatedAt, ID: a.ID}
	})
	return page, next, nil
}

// Update saves the account columns. Sources are left untouched.
func (r *Repository) Update(ctx context.Context, account *models.Account) error {
	if account == nil {
		return fmt.Errorf("account is required")
	}
	return r.DB(ctx).Omit(clause.Associations).Save(account).Error
}

// ReplaceSources swaps every source of the account in one transaction.
func (r *Repository) ReplaceSources(ctx context.Context, accountID uuid.UUID, sources []models.AccountSource) error {
	return r.Tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", accountID).Delete(&models.AccountSource{}).Error; err != nil {
			return fmt.Errorf("delete sources: %w", err)
		}
		for i := range sources {
			sources[i].ID = uuid.Nil
			sources[i].AccountID = accountID
		}
		if len(sources) > 0 {
			if err := tx.Create(&sources).Error; err != nil {
				return fmt.Errorf("insert sources: %w", err)
			}
		}
		return tx.Model(&models.Account{}).
			Where("id = ?", accountID).
			Update("updated_at", time.Now().UTC()).Error
	})
}
