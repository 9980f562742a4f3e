package sources

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	cloudbigquery "cloud.google.com/go/bigquery"
	"github.com/angelmondragon/perfdash-backend/internal/engine"
	"github.com/angelmondragon/perfdash-backend/pkg/bigquery"
	"github.com/angelmondragon/perfdash-backend/pkg/enums"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
	"google.golang.org/api/iterator"
)

func testWindow(t *testing.T, start, end string) engine.Window {
	t.Helper()
	w, err := engine.NewWindow(mustParse(t, start), mustParse(t, end))
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	return w
}

func mustParse(t *testing.T, value string) engine.Date {
	t.Helper()
	d, err := engine.ParseDate(value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return d
}

func bufferedLogger() (*logger.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return logger.New(logger.Options{ServiceName: "test", Output: buf}), buf
}

type fakeIterator struct {
	rows []map[string]cloudbigquery.Value
	err  error
}

func (it *fakeIterator) Next(dst any) error {
	if it.err != nil {
		return it.err
	}
	if len(it.rows) == 0 {
		return iterator.Done
	}
	target, ok := dst.(*map[string]cloudbigquery.Value)
	if !ok {
		return errors.New("unexpected destination")
	}
	*target = it.rows[0]
	it.rows = it.rows[1:]
	return nil
}

type fakeQuerier struct {
	rows    []map[string]cloudbigquery.Value
	err     error
	iterErr error
	sql     string
	params  []cloudbigquery.QueryParameter
}

func (q *fakeQuerier) Query(_ context.Context, sql string, params []cloudbigquery.QueryParameter) (bigquery.RowIterator, error) {
	q.sql = sql
	q.params = params
	if q.err != nil {
		return nil, q.err
	}
	return &fakeIterator{rows: q.rows, err: q.iterErr}, nil
}

type stubFetcher struct {
	kind   enums.SourceKind
	series engine.Series
	err    error
	calls  int
}

func (s *stubFetcher) Kind() enums.SourceKind { return s.kind }

func (s *stubFetcher) Fetch(context.Context, Target, engine.Window) (engine.Series, error) {
	s.calls++
	return s.series, s.err
}

type memoryStore struct {
	data    map[string]string
	getErr  error
	setErr  error
	lastTTL time.Duration
	deleted []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return "", redisNil
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.lastTTL = ttl
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
		m.deleted = append(m.deleted, key)
	}
	return nil
}

func (m *memoryStore) SourceKey(accountID, kind, location, start, end string) string {
	parts := []string{"pd:sources"}
	for _, part := range []string{accountID, kind, location, start, end} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ":")
}
