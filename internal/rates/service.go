package rates

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/perfdash-backend/pkg/db/models"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
)

const defaultReloadTTL = 15 * time.Minute

type rateRepository interface {
	Upsert(ctx context.Context, rows []models.CurrencyRate) error
	All(ctx context.Context) ([]models.CurrencyRate, error)
}

// ImportResult summarizes one snapshot import.
type ImportResult struct {
	AsOf     string `json:"as_of"`
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
}

// Service serves the current rate table and imports snapshots.
type Service struct {
	repo     rateRepository
	logg     *logger.Logger
	ttl      time.Duration
	fallback *Table
	now      func() time.Time

	mu       sync.RWMutex
	table    *Table
	loadedAt time.Time
}

// NewService builds the rate service. A nil repository serves the embedded
// snapshot only.
func NewService(repo rateRepository, ttl time.Duration, logg *logger.Logger) (*Service, error) {
	if ttl <= 0 {
		ttl = defaultReloadTTL
	}
	rows, err := EmbeddedSnapshot().Rows()
	if err != nil {
		return nil, fmt.Errorf("embedded rate snapshot: %w", err)
	}
	return &Service{
		repo:     repo,
		logg:     logg,
		ttl:      ttl,
		fallback: NewTable(rows),
		now:      time.Now,
	}, nil
}

// Current returns the cached table, reloading it from the repository once
// the TTL has passed. An empty or failing repository yields the embedded
// snapshot.
func (s *Service) Current(ctx context.Context) *Table {
	now := s.now()
	s.mu.RLock()
	table, loadedAt := s.table, s.loadedAt
	s.mu.RUnlock()
	if table != nil && now.Sub(loadedAt) < s.ttl {
		return table
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table != nil && now.Sub(s.loadedAt) < s.ttl {
		return s.table
	}
	s.table = s.load(ctx)
	s.loadedAt = now
	return s.table
}

func (s *Service) load(ctx context.Context) *Table {
	if s.repo == nil {
		return s.fallback
	}
	rows, err := s.repo.All(ctx)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "rates.load_failed", err)
		}
		if s.table != nil {
			return s.table
		}
		return s.fallback
	}
	if len(rows) == 0 {
		if s.logg != nil {
			s.logg.Warn(ctx, "rates.empty_table_using_embedded")
		}
		return s.fallback
	}
	return NewTable(rows)
}

// Import stores every valid rate of snap. Invalid entries and failed rows are
// combined into the returned error; the valid rows are still stored.
func (s *Service) Import(ctx context.Context, snap Snapshot) (ImportResult, error) {
	result := ImportResult{AsOf: snap.AsOf}
	if s.repo == nil {
		return result, fmt.Errorf("rate repository not configured")
	}

	rows, errs := snap.Rows()
	result.Skipped = len(multierr.Errors(errs))
	if len(rows) == 0 && errs != nil {
		return result, errs
	}

	for _, row := range rows {
		if err := s.repo.Upsert(ctx, []models.CurrencyRate{row}); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("upsert %s: %w", row.Currency, err))
			result.Skipped++
			continue
		}
		result.Imported++
	}

	s.mu.Lock()
	s.table = nil
	s.mu.Unlock()

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"as_of":    result.AsOf,
			"imported": result.Imported,
			"skipped":  result.Skipped,
		}), "rates.import")
	}
	return result, errs
}
