package accounts

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/angelmondragon/perfdash-backend/pkg/db"
	"github.com/angelmondragon/perfdash-backend/pkg/db/models"
	"github.com/angelmondragon/perfdash-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/perfdash-backend/pkg/errors"
	"github.com/angelmondragon/perfdash-backend/pkg/pagination"
)

const defaultTimezone = "Europe/Copenhagen"

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type accountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindBySlug(ctx context.Context, slug string) (*models.Account, error)
	List(ctx context.Context, params pagination.Params) ([]models.Account, string, error)
	Update(ctx context.Context, account *models.Account) error
	ReplaceSources(ctx context.Context, accountID uuid.UUID, sources []models.AccountSource) error
}

// Service exposes account operations.
type Service interface {
	Create(ctx context.Context, input CreateAccountInput) (*AccountDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*AccountDTO, error)
	GetBySlug(ctx context.Context, slug string) (*AccountDTO, error)
	Load(ctx context.Context, id uuid.UUID) (*models.Account, error)
	List(ctx context.Context, params pagination.Params) (*AccountList, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateAccountInput) (*AccountDTO, error)
}

type service struct {
	repo            accountRepository
	defaultCurrency enums.Currency
}

// NewService builds the account service. defaultCurrency is used when an
// account is created without a display currency.
func NewService(repo accountRepository, defaultCurrency enums.Currency) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("account repository required")
	}
	if !defaultCurrency.IsValid() {
		defaultCurrency = enums.CurrencyDKK
	}
	return &service{repo: repo, defaultCurrency: defaultCurrency}, nil
}

func (s *service) Create(ctx context.Context, input CreateAccountInput) (*AccountDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if !slugPattern.MatchString(slug) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug must be lowercase letters, digits and dashes")
	}

	currency := s.defaultCurrency
	if strings.TrimSpace(input.DisplayCurrency) != "" {
		parsed, err := enums.ParseCurrency(input.DisplayCurrency)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid display currency")
		}
		currency = parsed
	}

	preference := enums.RevenueGross
	if strings.TrimSpace(input.RevenuePreference) != "" {
		parsed, err := enums.ParseRevenuePreference(strings.TrimSpace(input.RevenuePreference))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid revenue preference")
		}
		preference = parsed
	}

	timezone, err := normalizeTimezone(input.Timezone)
	if err != nil {
		return nil, err
	}

	sources, err := buildSources(input.Sources, currency)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Name:              name,
		Slug:              slug,
		DisplayCurrency:   currency,
		RevenuePreference: preference,
		BigQueryProject:   strings.TrimSpace(input.BigQueryProject),
		BigQueryDataset:   strings.TrimSpace(input.BigQueryDataset),
		GA4PropertyID:     strings.TrimSpace(input.GA4PropertyID),
		Timezone:          timezone,
		Sources:           sources,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "account slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
	}
	return s.Get(ctx, account.ID)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*AccountDTO, error) {
	account, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromModel(account), nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*AccountDTO, error) {
	account, err := s.repo.FindBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		return nil, mapLoadError(err)
	}
	return FromModel(account), nil
}

// Load returns the persisted account with its sources for internal callers.
func (s *service) Load(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return account, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*AccountList, error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list accounts")
	}
	out := &AccountList{Items: make([]AccountDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		out.Items = append(out.Items, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateAccountInput) (*AccountDTO, error) {
	account, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		account.Name = name
	}
	if input.DisplayCurrency != nil {
		currency, err := enums.ParseCurrency(*input.DisplayCurrency)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid display currency")
		}
		account.DisplayCurrency = currency
	}
	if input.RevenuePreference != nil {
		preference, err := enums.ParseRevenuePreference(strings.TrimSpace(*input.RevenuePreference))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid revenue preference")
		}
		account.RevenuePreference = preference
	}
	if input.BigQueryProject != nil {
		account.BigQueryProject = strings.TrimSpace(*input.BigQueryProject)
	}
	if input.BigQueryDataset != nil {
		account.BigQueryDataset = strings.TrimSpace(*input.BigQueryDataset)
	}
	if input.GA4PropertyID != nil {
		account.GA4PropertyID = strings.TrimSpace(*input.GA4PropertyID)
	}
	if input.Timezone != nil {
		timezone, err := normalizeTimezone(*input.Timezone)
		if err != nil {
			return nil, err
		}
		account.Timezone = timezone
	}

	var sources []models.AccountSource
	if input.Sources != nil {
		sources, err = buildSources(*input.Sources, account.DisplayCurrency)
		if err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, account); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update account")
	}
	if input.Sources != nil {
		if err := s.repo.ReplaceSources(ctx, account.ID, sources); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace account sources")
		}
	}
	return s.Get(ctx, account.ID)
}

func mapLoadError(err error) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
}

func normalizeTimezone(value string) (string, error) {
	tz := strings.TrimSpace(value)
	if tz == "" {
		return defaultTimezone, nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid timezone")
	}
	return tz, nil
}

// buildSources validates the bindings. A source without a currency reports
// in the account display currency.
func buildSources(inputs []SourceInput, fallback enums.Currency) ([]models.AccountSource, error) {
	out := make([]models.AccountSource, 0, len(inputs))
	seen := make(map[enums.SourceKind]struct{}, len(inputs))
	for _, in := range inputs {
		kind, err := enums.ParseSourceKind(strings.TrimSpace(in.Kind))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid source kind")
		}
		if _, dup := seen[kind]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("source %s listed twice", kind))
		}
		seen[kind] = struct{}{}

		currency := fallback
		if strings.TrimSpace(in.Currency) != "" {
			currency, err = enums.ParseCurrency(in.Currency)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid source currency")
			}
		}

		enabled := true
		if in.Enabled != nil {
			enabled = *in.Enabled
		}
		labels := make(pq.StringArray, 0, len(in.Labels))
		for _, l := range in.Labels {
			if l = strings.TrimSpace(l); l != "" {
				labels = append(labels, l)
			}
		}

		out = append(out, models.AccountSource{
			Kind:     kind,
			Currency: currency,
			Table:    strings.TrimSpace(in.Table),
			Enabled:  enabled,
			Labels:   labels,
		})
	}
	return out, nil
}
