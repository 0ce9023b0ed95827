// Package config holds the strongly-typed runtime settings for the whale
// tracker. Settings are resolved once at startup; a chain with invalid
// settings is disabled without affecting the others.
package config

import (
	"fmt"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/model"
)

// ConfigError marks a per-chain configuration problem. It is fatal for the
// affected chain only.
type ConfigError struct {
	Chain  model.Chain
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: chain %s: %s", e.Chain, e.Reason)
}

// EthereumConfig configures the Etherscan-backed Ethereum poller.
type EthereumConfig struct {
	Enabled        bool
	APIKey         string
	Endpoint       string
	WatchAddresses []string
	WhaleThreshold float64 // ETH
}

// BitcoinConfig configures the RPC-backed Bitcoin poller.
type BitcoinConfig struct {
	Enabled        bool
	RPCURL         string
	RPCUser        string
	RPCPassword    string
	WhaleThreshold float64 // BTC
}

// XRPLConfig configures the XRPL websocket stream.
type XRPLConfig struct {
	Enabled        bool
	WebsocketURL   string
	WhaleThreshold float64 // XRP
}

// ArchiveConfig configures the optional ClickHouse archive sink.
type ArchiveConfig struct {
	DSN           string
	FlushSize     int
	FlushInterval time.Duration
}

// AlertsConfig configures outbound notification channels.
type AlertsConfig struct {
	TelegramBotToken string
	TelegramChatID   string
	WebhookURLs      []string
}

// RiskConfig tunes the trading-risk collaborator.
type RiskConfig struct {
	HighImpactPct float64
	PauseDuration time.Duration
}

// Config is the root settings object handed to every component constructor.
type Config struct {
	DataDir         string
	TransactionLog  string
	OverflowLog     string
	WalletFile      string
	PollInterval    time.Duration
	RequestCooldown time.Duration
	SeenCacheSize   int

	Ethereum EthereumConfig
	Bitcoin  BitcoinConfig
	XRPL     XRPLConfig
	Archive  ArchiveConfig
	Alerts   AlertsConfig
	Risk     RiskConfig
}

// Default returns the baseline settings before flag/env overrides.
func Default() Config {
	return Config{
		DataDir:         "data",
		TransactionLog:  "data/whale_transactions.csv",
		OverflowLog:     "data/whale_transactions.overflow.csv",
		WalletFile:      "data/wallets.json",
		PollInterval:    60 * time.Second,
		RequestCooldown: 200 * time.Millisecond,
		SeenCacheSize:   10_000,
		Ethereum: EthereumConfig{
			Endpoint:       "https://api.etherscan.io/api",
			WhaleThreshold: 100,
		},
		Bitcoin: BitcoinConfig{
			RPCURL:         "http://127.0.0.1:8332",
			WhaleThreshold: 10,
		},
		XRPL: XRPLConfig{
			WebsocketURL:   "wss://s1.ripple.com",
			WhaleThreshold: 1_000_000,
		},
		Archive: ArchiveConfig{
			FlushSize:     500,
			FlushInterval: 30 * time.Second,
		},
		Risk: RiskConfig{
			HighImpactPct: 25,
			PauseDuration: 30 * time.Minute,
		},
	}
}

// ValidateChain checks the settings of a single chain. A nil result means the
// chain may start.
func (c Config) ValidateChain(chain model.Chain) error {
	switch chain {
	case model.Ethereum:
		if c.Ethereum.APIKey == "" {
			return &ConfigError{Chain: chain, Reason: "missing etherscan api key"}
		}
		if c.Ethereum.Endpoint == "" {
			return &ConfigError{Chain: chain, Reason: "missing etherscan endpoint"}
		}
		if len(c.Ethereum.WatchAddresses) == 0 {
			return &ConfigError{Chain: chain, Reason: "no watch addresses configured"}
		}
		if c.Ethereum.WhaleThreshold <= 0 {
			return &ConfigError{Chain: chain, Reason: "whale threshold must be positive"}
		}
	case model.Bitcoin:
		if c.Bitcoin.RPCURL == "" {
			return &ConfigError{Chain: chain, Reason: "missing rpc url"}
		}
		if c.Bitcoin.WhaleThreshold <= 0 {
			return &ConfigError{Chain: chain, Reason: "whale threshold must be positive"}
		}
	case model.XRPL:
		if c.XRPL.WebsocketURL == "" {
			return &ConfigError{Chain: chain, Reason: "missing websocket url"}
		}
		if c.XRPL.WhaleThreshold <= 0 {
			return &ConfigError{Chain: chain, Reason: "whale threshold must be positive"}
		}
	default:
		return &ConfigError{Chain: chain, Reason: "unsupported chain"}
	}
	return nil
}

// Threshold returns the native-unit whale threshold for a chain.
func (c Config) Threshold(chain model.Chain) float64 {
	switch chain {
	case model.Ethereum:
		return c.Ethereum.WhaleThreshold
	case model.Bitcoin:
		return c.Bitcoin.WhaleThreshold
	case model.XRPL:
		return c.XRPL.WhaleThreshold
	default:
		return 0
	}
}
