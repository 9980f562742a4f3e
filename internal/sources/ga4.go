package sources

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/angelmondragon/perfdash-backend/internal/engine"
	"github.com/angelmondragon/perfdash-backend/pkg/enums"
	"github.com/angelmondragon/perfdash-backend/pkg/ga4"
)

var channelSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// SessionsClient is the GA4 surface used by the fetcher.
type SessionsClient interface {
	Enabled() bool
	SessionsByChannel(ctx context.Context, propertyID, start, end string) ([]ga4.ChannelSessions, error)
}

// GA4Fetcher emits daily sessions plus one sessions_<channel> field per
// default channel group.
type GA4Fetcher struct {
	client SessionsClient
}

func NewGA4Fetcher(client SessionsClient) *GA4Fetcher {
	return &GA4Fetcher{client: client}
}

func (f *GA4Fetcher) Kind() enums.SourceKind { return enums.SourceGA4 }

func (f *GA4Fetcher) Fetch(ctx context.Context, target Target, window engine.Window) (engine.Series, error) {
	series := engine.Series{Name: string(enums.SourceGA4), Rows: []engine.RawRow{}}
	if f.client == nil || !f.client.Enabled() || strings.TrimSpace(target.PropertyID) == "" {
		return series, nil
	}

	rows, err := f.client.SessionsByChannel(ctx, target.PropertyID, window.Start.String(), window.End.String())
	if err != nil {
		return engine.Series{}, fmt.Errorf("fetch ga4 sessions: %w", err)
	}

	byDate := map[string]map[string]float64{}
	var order []string
	for _, r := range rows {
		fields, ok := byDate[r.Date]
		if !ok {
			fields = map[string]float64{}
			byDate[r.Date] = fields
			order = append(order, r.Date)
		}
		fields[engine.FieldSessions] += r.Sessions
		fields[ChannelField(r.Channel)] += r.Sessions
	}
	for _, date := range order {
		series.Rows = append(series.Rows, engine.RawRow{Date: date, Fields: byDate[date]})
	}
	return series, nil
}

// ChannelField names the sessions field of a GA4 channel group, e.g.
// "Organic Search" becomes sessions_organic_search.
func ChannelField(channel string) string {
	slug := strings.Trim(channelSlugRe.ReplaceAllString(strings.ToLower(channel), "_"), "_")
	if slug == "" {
		slug = "unassigned"
	}
	return "sessions_" + slug
}
