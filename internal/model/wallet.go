package model

import "time"

// WalletCategory labels what kind of entity controls an address.
type WalletCategory string

var (
	CategoryExchange WalletCategory = "exchange"
	CategoryTreasury WalletCategory = "treasury"
	CategoryToken    WalletCategory = "token"
	CategoryUnknown  WalletCategory = "unknown"
)

// WalletRecord is the registry entry for a tracked address. Counters are
// updated on every observed transaction touching the address.
type WalletRecord struct {
	Address           string         `json:"-"`
	Chain             Chain          `json:"chain"`
	Label             string         `json:"label"`
	Category          WalletCategory `json:"category"`
	FirstSeen         time.Time      `json:"first_seen"`
	LastActive        time.Time      `json:"last_active"`
	TotalTransactions uint64         `json:"total_transactions"`
	TotalVolume       float64        `json:"total_volume"`
}
