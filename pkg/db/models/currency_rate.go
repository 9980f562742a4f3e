package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/perfdash-backend/pkg/enums"
)

// CurrencyRate stores how many units of Currency one USD buys.
type CurrencyRate struct {
	Currency  enums.Currency  `gorm:"column:currency;primaryKey"`
	PerUSD    decimal.Decimal `gorm:"column:per_usd;type:numeric(20,10);not null"`
	AsOf      time.Time       `gorm:"column:as_of;type:date;not null"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
