package ga4

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/perfdash-backend/pkg/config"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"
)

const (
	ga4DateLayout = "20060102"
	dateLayout    = "2006-01-02"
	pageSize      = 10000
)

var errPropertyRequired = errors.New("ga4 property id is required")

// ChannelSessions is one day of sessions for one default channel group.
type ChannelSessions struct {
	Date     string
	Channel  string
	Sessions float64
}

type reportRunner interface {
	RunReport(ctx context.Context, property string, req *analyticsdata.RunReportRequest) (*analyticsdata.RunReportResponse, error)
}

type serviceRunner struct {
	service *analyticsdata.Service
}

func (s serviceRunner) RunReport(ctx context.Context, property string, req *analyticsdata.RunReportRequest) (*analyticsdata.RunReportResponse, error) {
	return s.service.Properties.RunReport(property, req).Context(ctx).Do()
}

// Client wraps the GA4 Data API. A disabled client returns no rows.
type Client struct {
	runner  reportRunner
	enabled bool
	timeout time.Duration
	logg    *logger.Logger
}

// NewClient creates a GA4 Data API client. Credentials may be raw JSON or a
// path to a service account file.
func NewClient(ctx context.Context, cfg config.GA4Config, logg *logger.Logger) (*Client, error) {
	if !cfg.Enabled {
		if logg != nil {
			logg.Info(ctx, "ga4 analytics disabled")
		}
		return &Client{logg: logg}, nil
	}

	service, err := analyticsdata.NewService(ctx, clientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("creating ga4 service: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "ga4 analytics client initialized")
	}
	return &Client{
		runner:  serviceRunner{service: service},
		enabled: true,
		timeout: cfg.Timeout,
		logg:    logg,
	}, nil
}

func clientOptions(cfg config.GA4Config) []option.ClientOption {
	creds := strings.TrimSpace(cfg.CredentialsJSON)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

// Enabled reports whether the client talks to GA4.
func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

// SessionsByChannel returns daily sessions split by default channel group for
// the inclusive range start..end (YYYY-MM-DD).
func (c *Client) SessionsByChannel(ctx context.Context, propertyID, start, end string) ([]ChannelSessions, error) {
	if !c.Enabled() {
		return nil, nil
	}
	propertyID = strings.TrimPrefix(strings.TrimSpace(propertyID), "properties/")
	if propertyID == "" {
		return nil, errPropertyRequired
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	property := "properties/" + propertyID
	var out []ChannelSessions
	for offset := int64(0); ; offset += pageSize {
		resp, err := c.runner.RunReport(ctx, property, sessionsRequest(start, end, offset))
		if err != nil {
			return nil, fmt.Errorf("running ga4 sessions report: %w", err)
		}
		out = append(out, c.parseRows(ctx, resp)...)
		if resp == nil || int64(len(resp.Rows)) < pageSize || offset+pageSize >= resp.RowCount {
			break
		}
	}
	return out, nil
}

func sessionsRequest(start, end string, offset int64) *analyticsdata.RunReportRequest {
	return &analyticsdata.RunReportRequest{
		DateRanges: []*analyticsdata.DateRange{{StartDate: start, EndDate: end}},
		Dimensions: []*analyticsdata.Dimension{
			{Name: "date"},
			{Name: "sessionDefaultChannelGroup"},
		},
		Metrics: []*analyticsdata.Metric{{Name: "sessions"}},
		OrderBys: []*analyticsdata.OrderBy{
			{Dimension: &analyticsdata.DimensionOrderBy{DimensionName: "date"}},
		},
		Limit:  pageSize,
		Offset: offset,
	}
}

func (c *Client) parseRows(ctx context.Context, resp *analyticsdata.RunReportResponse) []ChannelSessions {
	if resp == nil {
		return nil
	}
	out := make([]ChannelSessions, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		if row == nil || len(row.DimensionValues) < 2 || len(row.MetricValues) < 1 {
			continue
		}
		raw := row.DimensionValues[0].Value
		date, err := time.Parse(ga4DateLayout, raw)
		if err != nil {
			if c.logg != nil {
				c.logg.Warn(c.logg.WithField(ctx, "date", raw), "ga4.invalid_date")
			}
			continue
		}
		sessions, err := strconv.ParseFloat(row.MetricValues[0].Value, 64)
		if err != nil {
			sessions = 0
		}
		out = append(out, ChannelSessions{
			Date:     date.Format(dateLayout),
			Channel:  row.DimensionValues[1].Value,
			Sessions: sessions,
		})
	}
	return out
}
