package sources

import (
	"context"
	"sort"
	"strings"

	"github.com/angelmondragon/perfdash-backend/internal/engine"
	"github.com/angelmondragon/perfdash-backend/pkg/enums"
)

// Target identifies where one account keeps the data of one source.
// Empty warehouse fields fall back to the fetcher defaults.
type Target struct {
	AccountID  string
	Project    string
	Dataset    string
	Table      string
	PropertyID string
	Currency   enums.Currency
}

// Location names the table or property the rows come from. It is blank when
// every field falls back to the fetcher defaults.
func (t Target) Location() string {
	parts := make([]string, 0, 4)
	for _, part := range []string{t.Project, t.Dataset, t.Table, t.PropertyID} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ".")
}

// Fetcher loads the daily rows of one source kind for a window.
type Fetcher interface {
	Kind() enums.SourceKind
	Fetch(ctx context.Context, target Target, window engine.Window) (engine.Series, error)
}

// Registry maps source kinds to their fetchers.
type Registry struct {
	fetchers map[enums.SourceKind]Fetcher
}

// NewRegistry indexes fetchers by kind. A later fetcher replaces an earlier
// one of the same kind.
func NewRegistry(fetchers ...Fetcher) *Registry {
	r := &Registry{fetchers: make(map[enums.SourceKind]Fetcher, len(fetchers))}
	for _, f := range fetchers {
		if f != nil {
			r.fetchers[f.Kind()] = f
		}
	}
	return r
}

// Get returns the fetcher of kind.
func (r *Registry) Get(kind enums.SourceKind) (Fetcher, bool) {
	if r == nil {
		return nil, false
	}
	f, ok := r.fetchers[kind]
	return f, ok
}

// Kinds lists the registered kinds in a stable order.
func (r *Registry) Kinds() []enums.SourceKind {
	if r == nil {
		return nil
	}
	out := make([]enums.SourceKind, 0, len(r.fetchers))
	for k := range r.fetchers {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Wrap returns a registry whose fetchers are decorated by wrap.
func (r *Registry) Wrap(wrap func(Fetcher) Fetcher) *Registry {
	out := &Registry{fetchers: make(map[enums.SourceKind]Fetcher, len(r.fetchers))}
	for k, f := range r.fetchers {
		out.fetchers[k] = wrap(f)
	}
	return out
}

// WarehouseKinds lists the kinds read from BigQuery export tables, sorted.
func WarehouseKinds() []enums.SourceKind {
	out := make([]enums.SourceKind, 0, len(warehouseSQL))
	for k := range warehouseSQL {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
