package enums

import "fmt"

// SourceKind identifies an upstream data source feeding the dashboards.
type SourceKind string

const (
	SourceShopify       SourceKind = "shopify"
	SourceWooCommerce   SourceKind = "woocommerce"
	SourceGoogleAds     SourceKind = "google_ads"
	SourceMetaAds       SourceKind = "meta_ads"
	SourceSearchConsole SourceKind = "search_console"
	SourceGA4           SourceKind = "ga4"
)

var validSourceKinds = []SourceKind{
	SourceShopify,
	SourceWooCommerce,
	SourceGoogleAds,
	SourceMetaAds,
	SourceSearchConsole,
	SourceGA4,
}

// String implements fmt.Stringer.
func (k SourceKind) String() string {
	return string(k)
}

// IsValid reports whether the kind is recognized.
func (k SourceKind) IsValid() bool {
	for _, candidate := range validSourceKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// IsShop reports whether the source carries order data.
func (k SourceKind) IsShop() bool {
	return k == SourceShopify || k == SourceWooCommerce
}

// ParseSourceKind converts raw input into a SourceKind.
func ParseSourceKind(value string) (SourceKind, error) {
	for _, candidate := range validSourceKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid source kind %q", value)
}
