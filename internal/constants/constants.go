// Package constants provides the domain names shared across packages:
// source names and run result labels.
package constants

// =============================================================================
// Sources
// =============================================================================

const (
	// SourcePrices collects coin market data.
	SourcePrices = "prices"

	// SourceRankings collects the most-played games chart.
	SourceRankings = "rankings"

	// SourceStatistics collects popular video statistics.
	SourceStatistics = "statistics"
)

// Sources lists every source in registration order. Runs follow this order.
var Sources = []string{SourcePrices, SourceRankings, SourceStatistics}

// IsValidSource checks if name is a known source.
func IsValidSource(name string) bool {
	for _, s := range Sources {
		if s == name {
			return true
		}
	}
	return false
}

// =============================================================================
// Results - outcome of one source in one run
// =============================================================================

const (
	// ResultOK means the records were appended.
	ResultOK = "ok"

	// ResultUpstream means the fetch failed.
	ResultUpstream = "upstream"

	// ResultPersistence means the append failed.
	ResultPersistence = "persistence"

	// ResultInternal is anything else, including recovered panics.
	ResultInternal = "internal"
)
