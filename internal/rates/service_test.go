package rates

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/perfdash-backend/pkg/db/models"
	"github.com/angelmondragon/perfdash-backend/pkg/enums"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
)

type fakeRateRepo struct {
	mu        sync.Mutex
	rows      map[enums.Currency]models.CurrencyRate
	allErr    error
	upsertErr map[enums.Currency]error
	allCalls  int
}

func newFakeRateRepo() *fakeRateRepo {
	return &fakeRateRepo{rows: map[enums.Currency]models.CurrencyRate{}, upsertErr: map[enums.Currency]error{}}
}

func (f *fakeRateRepo) Upsert(_ context.Context, rows []models.CurrencyRate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range rows {
		if err := f.upsertErr[r.Currency]; err != nil {
			return err
		}
		f.rows[r.Currency] = r
	}
	return nil
}

func (f *fakeRateRepo) All(context.Context) ([]models.CurrencyRate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allCalls++
	if f.allErr != nil {
		return nil, f.allErr
	}
	out := make([]models.CurrencyRate, 0, len(f.rows))
	for _, r := range f.rows {
		out = append(out, r)
	}
	return out, nil
}

func newRateService(t *testing.T, repo rateRepository) *Service {
	t.Helper()
	svc, err := NewService(repo, time.Minute, logger.New(logger.Options{ServiceName: "test"}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestServiceCurrentFallsBackToEmbedded(t *testing.T) {
	repo := newFakeRateRepo()
	svc := newRateService(t, repo)

	table := svc.Current(context.Background())
	if r, ok := table.Rate(enums.CurrencyDKK); !ok || r <= 0 {
		t.Fatalf("expected embedded DKK rate, got %v %v", r, ok)
	}

	repo.allErr = errors.New("db down")
	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	if _, ok := svc.Current(context.Background()).Rate(enums.CurrencyDKK); !ok {
		t.Fatal("expected last good table on repository failure")
	}

	noRepo := newRateService(t, nil)
	if _, ok := noRepo.Current(context.Background()).Rate(enums.CurrencyEUR); !ok {
		t.Fatal("expected embedded table without repository")
	}
}

func TestServiceCurrentCachesUntilTTL(t *testing.T) {
	repo := newFakeRateRepo()
	repo.rows[enums.CurrencyDKK] = models.CurrencyRate{Currency: enums.CurrencyDKK, PerUSD: mustDecimal(t, "7"), AsOf: time.Now()}
	svc := newRateService(t, repo)
	now := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if r, _ := svc.Current(context.Background()).Rate(enums.CurrencyDKK); r != 7 {
		t.Fatalf("expected stored rate 7, got %v", r)
	}
	repo.rows[enums.CurrencyDKK] = models.CurrencyRate{Currency: enums.CurrencyDKK, PerUSD: mustDecimal(t, "8"), AsOf: time.Now()}

	now = now.Add(30 * time.Second)
	if r, _ := svc.Current(context.Background()).Rate(enums.CurrencyDKK); r != 7 {
		t.Fatalf("expected cached rate within ttl, got %v", r)
	}
	now = now.Add(time.Minute)
	if r, _ := svc.Current(context.Background()).Rate(enums.CurrencyDKK); r != 8 {
		t.Fatalf("expected reload after ttl, got %v", r)
	}
	if repo.allCalls != 2 {
		t.Fatalf("expected 2 repository loads, got %d", repo.allCalls)
	}
}

func TestServiceImport(t *testing.T) {
	repo := newFakeRateRepo()
	repo.upsertErr[enums.CurrencySEK] = errors.New("constraint")
	svc := newRateService(t, repo)
	svc.Current(context.Background())

	snap, err := ParseSnapshot([]byte(`{"as_of":"2024-03-01","rates":{"DKK":6.8,"SEK":10.4,"XYZ":1}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	result, err := svc.Import(context.Background(), snap)
	if err == nil {
		t.Fatal("expected combined row errors")
	}
	if result.Imported != 1 || result.Skipped != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if r, _ := svc.Current(context.Background()).Rate(enums.CurrencyDKK); r != 6.8 {
		t.Fatalf("import should invalidate the cached table, got DKK %v", r)
	}

	if _, err := newRateService(t, nil).Import(context.Background(), snap); err == nil {
		t.Fatal("expected error without repository")
	}
}
