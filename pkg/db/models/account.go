package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/perfdash-backend/pkg/enums"
)

// Account is the tenant whose sources feed the dashboards.
type Account struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	Name              string                  `gorm:"column:name;not null"`
	Slug              string                  `gorm:"column:slug;not null;uniqueIndex:accounts_slug_key"`
	DisplayCurrency   enums.Currency          `gorm:"column:display_currency;not null;default:'DKK'"`
	RevenuePreference enums.RevenuePreference `gorm:"column:revenue_preference;not null;default:'gross'"`
	BigQueryProject   string                  `gorm:"column:bigquery_project"`
	BigQueryDataset   string                  `gorm:"column:bigquery_dataset"`
	GA4PropertyID     string                  `gorm:"column:ga4_property_id"`
	Timezone          string                  `gorm:"column:timezone;not null;default:'Europe/Copenhagen'"`
	Sources           []AccountSource         `gorm:"foreignKey:AccountID"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Account) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// EnabledSources returns the sources that currently feed reports.
func (a Account) EnabledSources() []AccountSource {
	out := make([]AccountSource, 0, len(a.Sources))
	for _, src := range a.Sources {
		if src.Enabled {
			out = append(out, src)
		}
	}
	return out
}

// Source returns the enabled source of the given kind.
func (a Account) Source(kind enums.SourceKind) (AccountSource, bool) {
	for _, src := range a.Sources {
		if src.Enabled && src.Kind == kind {
			return src, true
		}
	}
	return AccountSource{}, false
}
