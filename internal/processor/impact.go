package processor

// ImpactEstimator estimates the percentage price impact of a whale
// transaction from its size in display units.
type ImpactEstimator interface {
	Estimate(token string, amount float64) float64
}

// TieredImpact maps transaction size onto fixed impact bands. The bands are
// deliberately coarse; a real orderbook model can replace this without
// touching the processor.
type TieredImpact struct{}

func (TieredImpact) Estimate(_ string, amount float64) float64 {
	switch {
	case amount >= 1000:
		return 5
	case amount >= 500:
		return 2
	case amount >= 100:
		return 0.5
	default:
		return 0.1
	}
}
