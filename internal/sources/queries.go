package sources

import "github.com/angelmondragon/perfdash-backend/pkg/enums"

// Warehouse tables hold one row per day (and per campaign or store where the
// export is finer grained). Every template reads a window with @start and @end
// and yields a day column plus numeric columns named after the export.
const (
	shopifySQL = `
SELECT
  FORMAT_DATE('%%F', date) AS day,
  SUM(COALESCE(orders, 0)) AS orders,
  SUM(COALESCE(total_sales, 0)) AS total_sales,
  SUM(COALESCE(net_sales, 0)) AS net_sales,
  SUM(COALESCE(total_sales, 0) - COALESCE(taxes, 0)) AS revenue_ex_tax,
  SUM(COALESCE(units, 0)) AS units,
  SUM(COALESCE(returns, 0)) AS refunds
FROM %s
WHERE date BETWEEN DATE(@start) AND DATE(@end)
GROUP BY day
ORDER BY day ASC
`

	wooCommerceSQL = `
SELECT
  FORMAT_DATE('%%F', DATE(order_date)) AS day,
  COUNT(DISTINCT order_id) AS orders,
  SUM(COALESCE(total, 0)) AS total_sales,
  SUM(COALESCE(net_total, 0)) AS net_sales,
  SUM(COALESCE(total, 0) - COALESCE(total_tax, 0)) AS revenue_ex_tax,
  SUM(COALESCE(items_count, 0)) AS units,
  SUM(COALESCE(refunded, 0)) AS refunds
FROM %s
WHERE DATE(order_date) BETWEEN DATE(@start) AND DATE(@end)
  AND status IN ('completed', 'processing')
GROUP BY day
ORDER BY day ASC
`

	googleAdsSQL = `
SELECT
  FORMAT_DATE('%%F', segments_date) AS day,
  SUM(COALESCE(metrics_cost_micros, 0)) / 1000000 AS cost,
  SUM(COALESCE(metrics_clicks, 0)) AS clicks,
  SUM(COALESCE(metrics_impressions, 0)) AS impressions,
  SUM(COALESCE(metrics_conversions, 0)) AS conversions,
  SUM(COALESCE(metrics_conversions_value, 0)) AS conversions_value
FROM %s
WHERE segments_date BETWEEN DATE(@start) AND DATE(@end)
GROUP BY day
ORDER BY day ASC
`

	metaAdsSQL = `
SELECT
  FORMAT_DATE('%%F', date_start) AS day,
  SUM(COALESCE(spend, 0)) AS spend,
  SUM(COALESCE(clicks, 0)) AS clicks,
  SUM(COALESCE(impressions, 0)) AS impressions,
  SUM(COALESCE(purchases, 0)) AS purchases,
  SUM(COALESCE(purchase_value, 0)) AS purchase_value
FROM %s
WHERE date_start BETWEEN DATE(@start) AND DATE(@end)
GROUP BY day
ORDER BY day ASC
`

	searchConsoleSQL = `
SELECT
  FORMAT_DATE('%%F', data_date) AS day,
  SUM(COALESCE(clicks, 0)) AS clicks,
  SUM(COALESCE(impressions, 0)) AS impressions,
  SUM(COALESCE(sum_position, 0)) AS position_weighted
FROM %s
WHERE data_date BETWEEN DATE(@start) AND DATE(@end)
GROUP BY day
ORDER BY day ASC
`
)

var warehouseSQL = map[enums.SourceKind]string{
	enums.SourceShopify:       shopifySQL,
	enums.SourceWooCommerce:   wooCommerceSQL,
	enums.SourceGoogleAds:     googleAdsSQL,
	enums.SourceMetaAds:       metaAdsSQL,
	enums.SourceSearchConsole: searchConsoleSQL,
}
