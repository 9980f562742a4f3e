package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/perfdash-backend/pkg/errors"
)

type sourceBody struct {
	Kind     string `json:"kind" validate:"required,source_kind"`
	Currency string `json:"currency" validate:"omitempty,currency"`
}

type accountBody struct {
	Slug     string       `json:"slug" validate:"required,slug,max=64"`
	Timezone string       `json:"timezone" validate:"omitempty,timezone"`
	Sources  []sourceBody `json:"sources" validate:"dive"`
}

func TestDecodeJSONBodyReportsNestedFields(t *testing.T) {
	body := `{"slug":"Bad Slug","timezone":"Mars/Olympus","sources":[{"kind":"tiktok","currency":"xyz"}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var dest accountBody
	err := DecodeJSONBody(req, &dest)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected string details, got %T", typed.Details())
	}
	want := map[string]string{
		"slug":                "must be lowercase letters, digits and single dashes",
		"timezone":            "must be an IANA timezone",
		"sources[0].kind":     "must be a supported source kind",
		"sources[0].currency": "must be a supported currency code",
	}
	for field, msg := range want {
		if details[field] != msg {
			t.Fatalf("field %s: expected %q, got %q (all: %v)", field, msg, details[field], details)
		}
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"slug":"ok","extra":true}`))
	var dest accountBody
	if err := DecodeJSONBody(req, &dest); pkgerrors.As(err) == nil {
		t.Fatalf("expected validation error for unknown field, got %v", err)
	}
}

func TestDecodeJSONBodyAccepts(t *testing.T) {
	body := `{"slug":"acme-shop","timezone":"Europe/Copenhagen","sources":[{"kind":"shopify","currency":"dkk"}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dest accountBody
	if err := DecodeJSONBody(req, &dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dest.Slug != "acme-shop" || len(dest.Sources) != 1 {
		t.Fatalf("unexpected decode %+v", dest)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&bad=x", nil)
	if v, err := ParseQueryInt(req, "missing", 25, 1, 100); err != nil || v != 25 {
		t.Fatalf("expected default 25, got %d %v", v, err)
	}
	if _, err := ParseQueryInt(req, "limit", 25, 1, 100); err == nil {
		t.Fatal("expected range error")
	}
	if _, err := ParseQueryInt(req, "bad", 25, 1, 100); err == nil {
		t.Fatal("expected numeric error")
	}
}

func TestParseQueryDecimal(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?amount=12.50&bad=abc", nil)
	v, err := ParseQueryDecimal(req, "amount")
	if err != nil || v.String() != "12.5" {
		t.Fatalf("expected 12.5, got %s %v", v, err)
	}
	if _, err := ParseQueryDecimal(req, "bad"); err == nil {
		t.Fatal("expected decimal error")
	}
	if _, err := ParseQueryDecimal(req, "missing"); err == nil {
		t.Fatal("expected required error")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello world ", 5); got != "hello" {
		t.Fatalf("expected truncated value, got %q", got)
	}
	if got := SanitizeString("K\u00f8benhavn\x00 Shop", 9); got != "K\u00f8benhavn" {
		t.Fatalf("expected rune-safe truncation without control chars, got %q", got)
	}
	if got := SanitizeString("\tplain\n", 0); got != "plain" {
		t.Fatalf("expected uncapped trim, got %q", got)
	}
}
