// Package model defines the core domain types shared across the whale
// tracking pipeline.
package model

import "time"

// Chain identifies a monitored blockchain.
type Chain string

var (
	Ethereum Chain = "ethereum"
	Bitcoin  Chain = "bitcoin"
	XRPL     Chain = "xrpl"
)

// Divisor returns the base-unit divisor used to convert raw on-chain values
// into display units (wei, satoshi, drops).
func (c Chain) Divisor() float64 {
	switch c {
	case Ethereum:
		return 1e18
	case Bitcoin:
		return 1e8
	case XRPL:
		return 1e6
	default:
		return 1
	}
}

// Token returns the native token symbol of the chain.
func (c Chain) Token() string {
	switch c {
	case Ethereum:
		return "ETH"
	case Bitcoin:
		return "BTC"
	case XRPL:
		return "XRP"
	default:
		return string(c)
	}
}

// TxType classifies a whale transaction relative to known exchange wallets.
type TxType string

var (
	TxDeposit    TxType = "deposit"
	TxWithdrawal TxType = "withdrawal"
	TxTransfer   TxType = "transfer"
)

// WhaleTransaction is a processed above-threshold transaction. Records are
// immutable once created and are only ever appended to the transaction log.
type WhaleTransaction struct {
	Chain          Chain
	FromAddress    string
	ToAddress      string
	Token          string
	Amount         float64
	USDValue       float64
	Type           TxType
	PriceImpactPct float64
	TxHash         string
	Timestamp      time.Time
}

// Severity grades a whale transaction for downstream alerting.
type Severity string

var (
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

const (
	highUSDValue     = 1_000_000
	criticalUSDValue = 5_000_000
)

// Rank orders severities for threshold comparisons. Unknown values rank
// below MEDIUM.
func (s Severity) Rank() int {
	switch s {
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 0
	}
}

// SeverityFor maps a USD value to an alert severity.
func SeverityFor(usdValue float64) Severity {
	switch {
	case usdValue >= criticalUSDValue:
		return SeverityCritical
	case usdValue >= highUSDValue:
		return SeverityHigh
	default:
		return SeverityMedium
	}
}
