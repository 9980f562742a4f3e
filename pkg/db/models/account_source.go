package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/perfdash-backend/pkg/enums"
)

// AccountSource binds an upstream source to an account. Currency is the
// currency the source reports monetary values in.
type AccountSource struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	AccountID uuid.UUID        `gorm:"column:account_id;type:uuid;not null;index:account_sources_account_id_idx;uniqueIndex:account_sources_account_kind_key"`
	Kind      enums.SourceKind `gorm:"column:kind;not null;uniqueIndex:account_sources_account_kind_key"`
	Currency  enums.Currency   `gorm:"column:currency;not null"`
	Table     string           `gorm:"column:table_name"`
	Enabled   bool             `gorm:"column:enabled;not null"`
	Labels    pq.StringArray   `gorm:"column:labels;type:text[]"`
}

func (s *AccountSource) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
