package port

// MarketRange is an expected [low, high] interval for a numeric field in the
// current market.
type MarketRange struct {
	Low  float64
	High float64
}

// MarketDataProvider supplies expected market ranges for extracted fields.
// Implementations return (range, true) when data is available for the field;
// absence degrades market-alignment scoring to neutral.
type MarketDataProvider interface {
	RangeFor(field string) (MarketRange, bool)
}
