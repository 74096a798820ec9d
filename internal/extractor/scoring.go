package extractor

import (
	"fmt"
	"regexp"

	"underwriter/internal/domain"
	"underwriter/internal/port"
)

// Weights for combining field confidence components. When no market range is
// available the remaining weights are renormalized to sum to 1.
const (
	weightBase   = 0.3
	weightFormat = 0.2
	weightRange  = 0.2
	weightMarket = 0.3
)

// Weights for combining the four risk factors into one scalar.
const (
	riskWeightMarket    = 0.3
	riskWeightProperty  = 0.2
	riskWeightFinancial = 0.3
	riskWeightTenant    = 0.2
)

// fieldRule bundles the per-field format and range checks used by field
// confidence scoring.
type fieldRule struct {
	format   *regexp.Regexp
	min, max float64
	hasRange bool
}

// fieldConfidence scores one extracted value in [0,1] from four signals:
// presence, format-regex match, numeric range fit (linear falloff outside the
// range), and market alignment against the provider's expected range.
func fieldConfidence(field string, value any, rule fieldRule, market port.MarketDataProvider) float64 {
	if value == nil {
		return 0
	}

	base := 1.0
	switch v := value.(type) {
	case string:
		if v == "" {
			return 0
		}
	case float64:
		if v == 0 {
			base = 0.5
		}
	}

	format := 0.0
	if rule.format != nil && rule.format.MatchString(fmt.Sprint(value)) {
		format = 1.0
	}

	num, isNum := value.(float64)

	rangeScore := 0.0
	if rule.hasRange && isNum {
		rangeScore = rangeFit(num, rule.min, rule.max)
	}

	marketRange, hasMarket := port.MarketRange{}, false
	if market != nil {
		marketRange, hasMarket = market.RangeFor(field)
	}

	if !hasMarket || !isNum {
		// Renormalize without the market component.
		total := weightBase + weightFormat + weightRange
		return (base*weightBase + format*weightFormat + rangeScore*weightRange) / total
	}

	marketScore := rangeFit(num, marketRange.Low, marketRange.High)
	return base*weightBase + format*weightFormat + rangeScore*weightRange + marketScore*weightMarket
}

// rangeFit is 1.0 inside [min,max] and falls off linearly with the distance
// outside, proportional to the range width, floored at 0.
func rangeFit(v, min, max float64) float64 {
	if v >= min && v <= max {
		return 1.0
	}
	width := max - min
	if width <= 0 {
		return 0
	}
	var distance float64
	if v < min {
		distance = min - v
	} else {
		distance = v - max
	}
	if score := 1 - distance/width; score > 0 {
		return score
	}
	return 0
}

// riskFactors are the four [0,1] risk inputs each extractor estimates for its
// document. 0.5 is neutral when a factor cannot be assessed.
type riskFactors struct {
	market    float64
	property  float64
	financial float64
	tenant    float64
}

func neutralRisk() riskFactors {
	return riskFactors{market: 0.5, property: 0.5, financial: 0.5, tenant: 0.5}
}

// combine collapses the factors into a scalar via the fixed weights.
func (r riskFactors) combine() float64 {
	return r.market*riskWeightMarket +
		r.property*riskWeightProperty +
		r.financial*riskWeightFinancial +
		r.tenant*riskWeightTenant
}

// riskProfile maps a combined risk score to the coarse classification.
func riskProfile(score float64) domain.RiskProfile {
	switch {
	case score < 0.3:
		return domain.RiskProfileCore
	case score < 0.6:
		return domain.RiskProfileValueAdd
	default:
		return domain.RiskProfileOpportunistic
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
