package accounts

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/perfdash-backend/pkg/db/models"
	"github.com/angelmondragon/perfdash-backend/pkg/enums"
)

// AccountDTO is the API view of an account.
type AccountDTO struct {
	ID                uuid.UUID               `json:"id"`
	Name              string                  `json:"name"`
	Slug              string                  `json:"slug"`
	DisplayCurrency   enums.Currency          `json:"display_currency"`
	RevenuePreference enums.RevenuePreference `json:"revenue_preference"`
	BigQueryProject   string                  `json:"bigquery_project,omitempty"`
	BigQueryDataset   string                  `json:"bigquery_dataset,omitempty"`
	GA4PropertyID     string                  `json:"ga4_property_id,omitempty"`
	Timezone          string                  `json:"timezone"`
	Sources           []SourceDTO             `json:"sources"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

// SourceDTO is the API view of an account source binding.
type SourceDTO struct {
	ID       uuid.UUID        `json:"id"`
	Kind     enums.SourceKind `json:"kind"`
	Currency enums.Currency   `json:"currency"`
	Table    string           `json:"table,omitempty"`
	Enabled  bool             `json:"enabled"`
	Labels   []string         `json:"labels,omitempty"`
}

// AccountList is one cursor page of accounts.
type AccountList struct {
	Items      []AccountDTO `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// CreateAccountInput carries the fields accepted on creation.
type CreateAccountInput struct {
	Name              string
	Slug              string
	DisplayCurrency   string
	RevenuePreference string
	BigQueryProject   string
	BigQueryDataset   string
	GA4PropertyID     string
	Timezone          string
	Sources           []SourceInput
}

// UpdateAccountInput carries optional updates. A non-nil Sources replaces
// every source of the account.
type UpdateAccountInput struct {
	Name              *string
	DisplayCurrency   *string
	RevenuePreference *string
	BigQueryProject   *string
	BigQueryDataset   *string
	GA4PropertyID     *string
	Timezone          *string
	Sources           *[]SourceInput
}

// SourceInput describes one source binding.
type SourceInput struct {
	Kind     string
	Currency string
	Table    string
	Enabled  *bool
	Labels   []string
}

// FromModel maps the persisted account into a DTO.
func FromModel(m *models.Account) *AccountDTO {
	if m == nil {
		return nil
	}
	dto := &AccountDTO{
		ID:                m.ID,
		Name:              m.Name,
		Slug:              m.Slug,
		DisplayCurrency:   m.DisplayCurrency,
		RevenuePreference: m.RevenuePreference,
		BigQueryProject:   m.BigQueryProject,
		BigQueryDataset:   m.BigQueryDataset,
		GA4PropertyID:     m.GA4PropertyID,
		Timezone:          m.Timezone,
		Sources:           make([]SourceDTO, 0, len(m.Sources)),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	for _, src := range m.Sources {
		dto.Sources = append(dto.Sources, SourceDTO{
			ID:       src.ID,
			Kind:     src.Kind,
			Currency: src.Currency,
			Table:    src.Table,
			Enabled:  src.Enabled,
			Labels:   append([]string(nil), src.Labels...),
		})
	}
	return dto
}
