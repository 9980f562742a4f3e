package sources

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/perfdash-backend/pkg/ga4"
)

type fakeSessions struct {
	enabled bool
	rows    []ga4.ChannelSessions
	err     error
	calls   int
}

func (f *fakeSessions) Enabled() bool { return f.enabled }

func (f *fakeSessions) SessionsByChannel(context.Context, string, string, string) ([]ga4.ChannelSessions, error) {
	f.calls++
	return f.rows, f.err
}

func TestGA4FetchSplitsChannels(t *testing.T) {
	client := &fakeSessions{enabled: true, rows: []ga4.ChannelSessions{
		{Date: "2024-01-01", Channel: "Organic Search", Sessions: 100},
		{Date: "2024-01-01", Channel: "Paid Social", Sessions: 20},
		{Date: "2024-01-02", Channel: "Organic Search", Sessions: 80},
	}}
	series, err := NewGA4Fetcher(client).Fetch(context.Background(), Target{PropertyID: "123"}, testWindow(t, "2024-01-01", "2024-01-02"))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(series.Rows) != 2 {
		t.Fatalf("expected one row per date, got %d", len(series.Rows))
	}
	day := series.Rows[0].Fields
	if day["sessions"] != 120 || day["sessions_organic_search"] != 100 || day["sessions_paid_social"] != 20 {
		t.Fatalf("unexpected first day fields %+v", day)
	}
}

func TestGA4FetchSkipsWhenDisabledOrUnconfigured(t *testing.T) {
	w := testWindow(t, "2024-01-01", "2024-01-02")
	disabled := &fakeSessions{}
	series, err := NewGA4Fetcher(disabled).Fetch(context.Background(), Target{PropertyID: "1"}, w)
	if err != nil || len(series.Rows) != 0 || disabled.calls != 0 {
		t.Fatalf("disabled client should yield empty series, got %+v err=%v", series, err)
	}

	enabled := &fakeSessions{enabled: true}
	series, err = NewGA4Fetcher(enabled).Fetch(context.Background(), Target{}, w)
	if err != nil || len(series.Rows) != 0 || enabled.calls != 0 {
		t.Fatalf("missing property should yield empty series, got %+v err=%v", series, err)
	}

	failing := &fakeSessions{enabled: true, err: errors.New("permission denied")}
	if _, err := NewGA4Fetcher(failing).Fetch(context.Background(), Target{PropertyID: "1"}, w); err == nil {
		t.Fatal("expected client error to propagate")
	}
}

func TestChannelField(t *testing.T) {
	cases := map[string]string{
		"Organic Search": "sessions_organic_search",
		"Cross-network":  "sessions_cross_network",
		"(Other)":        "sessions_other",
		"":               "sessions_unassigned",
	}
	for in, want := range cases {
		if got := ChannelField(in); got != want {
			t.Fatalf("ChannelField(%q) = %q, want %q", in, got, want)
		}
	}
}
