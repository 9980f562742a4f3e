package bigquery

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/angelmondragon/perfdash-backend/pkg/config"
	"google.golang.org/api/googleapi"
)

func TestConfiguredTables(t *testing.T) {
	cfg := config.BigQueryConfig{
		ShopifyTable:   " shopify_orders_daily ",
		GoogleAdsTable: "google_ads_daily",
		MetaAdsTable:   "",
	}

	tables := configuredTables(cfg)

	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
	if tables[0] != "shopify_orders_daily" || tables[1] != "google_ads_daily" {
		t.Fatalf("unexpected tables %v", tables)
	}
}

func TestClientOptionsPrioritizesJSON(t *testing.T) {
	gcp := config.GCPConfig{
		CredentialsJSON:        `{"dummy": "value"}`,
		ApplicationCredentials: "/tmp/creds",
	}

	opts := clientOptions(gcp)
	if len(opts) != 1 {
		t.Fatalf("expected 1 option, got %d", len(opts))
	}
}

func TestClientOptionsWithFile(t *testing.T) {
	opts := clientOptions(config.GCPConfig{ApplicationCredentials: "/tmp/creds"})
	if len(opts) != 1 {
		t.Fatalf("expected 1 option when using credentials file, got %d", len(opts))
	}
}

func TestClientOptionsEmpty(t *testing.T) {
	opts := clientOptions(config.GCPConfig{})
	if len(opts) != 0 {
		t.Fatalf("expected 0 options when no credentials provided, got %d", len(opts))
	}
}

func TestNewClientValidatesInputs(t *testing.T) {
	ctx := context.Background()
	if _, err := NewClient(ctx, config.GCPConfig{}, config.BigQueryConfig{Dataset: "ds"}, nil); err != errProjectIDRequired {
		t.Fatalf("expected project error, got %v", err)
	}
	if _, err := NewClient(ctx, config.GCPConfig{ProjectID: "p"}, config.BigQueryConfig{}, nil); err != errDatasetRequired {
		t.Fatalf("expected dataset error, got %v", err)
	}
	if _, err := NewClient(ctx, config.GCPConfig{ProjectID: "p"}, config.BigQueryConfig{Dataset: "ds"}, nil); err != errTableNameRequired {
		t.Fatalf("expected table error, got %v", err)
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if err := c.Ping(context.Background()); err != errClientNotInitialized {
		t.Fatalf("expected not initialized, got %v", err)
	}
	if _, err := c.Query(context.Background(), "SELECT 1", nil); err != errClientNotInitialized {
		t.Fatalf("expected not initialized, got %v", err)
	}
	if c.Close() != nil || c.ProjectID() != "" || c.DefaultDataset() != "" {
		t.Fatal("expected nil client accessors to be empty")
	}
}

func TestQualifiedTable(t *testing.T) {
	ref, err := QualifiedTable("proj-1", "shop_ds", "orders_daily")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref != "`proj-1.shop_ds.orders_daily`" {
		t.Fatalf("unexpected ref %s", ref)
	}
	if _, err := QualifiedTable("proj", "ds", "orders`; DROP"); err == nil {
		t.Fatal("expected invalid identifier to be rejected")
	}
	if _, err := QualifiedTable("", "ds", "t"); err == nil {
		t.Fatal("expected empty project to be rejected")
	}
}

func TestIsNotFound(t *testing.T) {
	err := fmt.Errorf("metadata: %w", &googleapi.Error{Code: http.StatusNotFound})
	if !IsNotFound(err) {
		t.Fatal("expected not found")
	}
	if IsNotFound(&googleapi.Error{Code: http.StatusForbidden}) {
		t.Fatal("403 is not a not found")
	}
}
