package extractor

import (
	"fmt"
	"log"

	"underwriter/internal/port"
)

// Dispatcher runs every registered extractor whose CanHandle clears the
// applicability threshold and collects one Result per applicable extractor.
// One extractor failing never prevents the others from running.
type Dispatcher struct {
	extractors []Extractor
}

// NewDispatcher builds a dispatcher over an explicit extractor list.
func NewDispatcher(extractors ...Extractor) *Dispatcher {
	return &Dispatcher{extractors: extractors}
}

// NewDefaultDispatcher wires the four standard extractors.
func NewDefaultDispatcher(market port.MarketDataProvider) *Dispatcher {
	if market == nil {
		market = NoopMarketData{}
	}
	return NewDispatcher(
		NewRentRoll(market),
		NewPLStatement(market),
		NewOperatingStatement(market),
		NewLease(market),
	)
}

// Run dispatches the document text to every applicable extractor. The
// returned slice is ordered by registration order and may be empty when no
// extractor claims the document; consumers must not assume exactly one
// result.
func (d *Dispatcher) Run(content, filename string) []*Result {
	var results []*Result
	for _, ex := range d.extractors {
		ok, confidence := ex.CanHandle(content, filename)
		if !ok {
			continue
		}
		log.Printf("extractor.Dispatcher: running %s (applicability %.3f) on %s",
			ex.Name(), confidence, filename)
		results = append(results, runIsolated(ex, content))
	}
	if len(results) == 0 {
		log.Printf("extractor.Dispatcher: no applicable extractor for %s", filename)
	}
	return results
}

// runIsolated shields the dispatcher from a panicking extractor; a panic
// becomes a failed Result for that extractor only.
func runIsolated(ex Extractor, content string) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("extractor.Dispatcher: %s panicked: %v", ex.Name(), r)
			res = newResult(ex.Name()).fail(fmt.Sprintf("extraction error: %v", r))
		}
	}()
	return ex.Extract(content)
}
