// Package config provides configuration defaults and utilities
// for the feedlog application.
//
// This package defines all configurable constants with documented defaults.
// Users can override these values via config.yaml or environment variables.
package config

import "time"

// =============================================================================
// Storage Defaults
// =============================================================================

const (
	// DefaultDataDir is where tables and the name cache live.
	// Override via config: data_dir
	DefaultDataDir = "data"

	// DefaultNameCacheFile is the name cache file, relative to the data dir.
	// Override via config: names.path
	DefaultNameCacheFile = "names.yaml"

	// TableFileExt is appended to a table name to form its file name.
	TableFileExt = ".csv"

	// DefaultFilePerm is used for tables and the name cache.
	DefaultFilePerm = 0644

	// DefaultDirPerm is used when the data dir has to be created.
	DefaultDirPerm = 0755
)

// =============================================================================
// HTTP Defaults
// =============================================================================

const (
	// DefaultHTTPTimeout bounds every outbound call, including name lookups.
	// Override via config: http.timeout
	DefaultHTTPTimeout = 10 * time.Second

	// DefaultUserAgent is sent with every request.
	// Override via config: http.user_agent
	DefaultUserAgent = "feedlog/1.0 (+https://github.com/xtxerr/feedlog)"
)

// =============================================================================
// Prices (CoinGecko)
// =============================================================================

const (
	// DefaultPricesURL is the CoinGecko API base.
	// Override via config: sources.prices.url
	DefaultPricesURL = "https://api.coingecko.com/api/v3"

	// DefaultPricesTable is the table the prices source appends to.
	DefaultPricesTable = "crypto_data"

	// DefaultVsCurrency is the quote currency.
	// Override via config: sources.prices.vs_currency
	DefaultVsCurrency = "eur"
)

// DefaultCoins is the coin id list requested in one batched call.
// Override via config: sources.prices.coins
var DefaultCoins = []string{
	"bitcoin", "ethereum", "cardano", "solana",
	"polkadot", "ripple", "litecoin", "dogecoin",
}

// =============================================================================
// Rankings (Steam)
// =============================================================================

const (
	// DefaultRankingsURL is the Steam Web API base.
	// Override via config: sources.rankings.url
	DefaultRankingsURL = "https://api.steampowered.com"

	// DefaultAppDetailsURL is the Steam store API base used for name lookups.
	// Override via config: sources.rankings.details_url
	DefaultAppDetailsURL = "https://store.steampowered.com"

	// DefaultRankingsTable is the table the rankings source appends to.
	DefaultRankingsTable = "steam_data"

	// DefaultStoreCountry and DefaultStoreLanguage localize looked-up names.
	// Override via config: sources.rankings.country / sources.rankings.language
	DefaultStoreCountry  = "fr"
	DefaultStoreLanguage = "fr"
)

// =============================================================================
// Statistics (YouTube Data API)
// =============================================================================

const (
	// DefaultStatisticsURL is the YouTube Data API base.
	// Override via config: sources.statistics.url
	DefaultStatisticsURL = "https://www.googleapis.com"

	// DefaultStatisticsTable is the table the statistics source appends to.
	DefaultStatisticsTable = "youtube_data"

	// DefaultRegionCode selects the mostPopular chart.
	// Override via config: sources.statistics.region
	DefaultRegionCode = "FR"

	// DefaultMaxResults is the page size of the mostPopular chart (API max 50).
	// Override via config: sources.statistics.max_results
	DefaultMaxResults = 25
)

// =============================================================================
// Export Defaults
// =============================================================================

const (
	// DefaultParquetCompression is used by the export command.
	DefaultParquetCompression = "zstd"
)
