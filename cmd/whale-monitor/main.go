package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/estimatebot/whaletracker-backend/internal/alert"
	archive "github.com/estimatebot/whaletracker-backend/internal/archive/clickhouse"
	"github.com/estimatebot/whaletracker-backend/internal/chain"
	"github.com/estimatebot/whaletracker-backend/internal/chain/bitcoin"
	"github.com/estimatebot/whaletracker-backend/internal/chain/etherscan"
	"github.com/estimatebot/whaletracker-backend/internal/chain/xrpl"
	"github.com/estimatebot/whaletracker-backend/internal/coldstorage"
	"github.com/estimatebot/whaletracker-backend/internal/config"
	"github.com/estimatebot/whaletracker-backend/internal/filter"
	"github.com/estimatebot/whaletracker-backend/internal/influence"
	"github.com/estimatebot/whaletracker-backend/internal/metrics"
	"github.com/estimatebot/whaletracker-backend/internal/model"
	"github.com/estimatebot/whaletracker-backend/internal/monitor"
	"github.com/estimatebot/whaletracker-backend/internal/price"
	"github.com/estimatebot/whaletracker-backend/internal/processor"
	"github.com/estimatebot/whaletracker-backend/internal/risk"
	"github.com/estimatebot/whaletracker-backend/internal/transport"
	"github.com/estimatebot/whaletracker-backend/internal/txlog"
	"github.com/estimatebot/whaletracker-backend/internal/wallets"
)

// xrplStreamBuffer absorbs ledger bursts between stream reads.
const xrplStreamBuffer = 256

type flagConfig struct {
	DataDir         string        `long:"data-dir" env:"WHALE_MONITOR_DATA_DIR" description:"directory for the transaction log and wallet registry" default:"data"`
	PollInterval    time.Duration `long:"poll-interval" env:"WHALE_MONITOR_POLL_INTERVAL" description:"per-chain poll interval" default:"60s"`
	RequestCooldown time.Duration `long:"request-cooldown" env:"WHALE_MONITOR_REQUEST_COOLDOWN" description:"minimum delay between explorer API requests" default:"200ms"`
	SeenCacheSize   int           `long:"seen-cache-size" env:"WHALE_MONITOR_SEEN_CACHE_SIZE" description:"dedup cache capacity per chain" default:"10000"`
	MetricsAddr     string        `long:"metrics-addr" env:"WHALE_MONITOR_METRICS_ADDR" description:"listen address for metrics and the read API" default:":2112"`

	EthEnabled   bool     `long:"eth-enabled" env:"WHALE_MONITOR_ETH_ENABLED" description:"enable the Ethereum poller"`
	EthAPIKey    string   `long:"eth-api-key" env:"WHALE_MONITOR_ETH_API_KEY" description:"Etherscan API key"`
	EthEndpoint  string   `long:"eth-endpoint" env:"WHALE_MONITOR_ETH_ENDPOINT" description:"Etherscan API endpoint" default:"https://api.etherscan.io/api"`
	EthAddresses []string `long:"eth-address" env:"WHALE_MONITOR_ETH_ADDRESSES" env-delim:"," description:"watched Ethereum addresses"`
	EthThreshold float64  `long:"eth-threshold" env:"WHALE_MONITOR_ETH_THRESHOLD" description:"whale threshold in ETH" default:"100"`

	BtcEnabled     bool    `long:"btc-enabled" env:"WHALE_MONITOR_BTC_ENABLED" description:"enable the Bitcoin poller"`
	BtcRPCURL      string  `long:"btc-rpc-url" env:"WHALE_MONITOR_BTC_RPC_URL" description:"Bitcoin RPC URL" default:"http://127.0.0.1:8332"`
	BtcRPCUser     string  `long:"btc-rpc-user" env:"WHALE_MONITOR_BTC_RPC_USER" description:"Bitcoin RPC username"`
	BtcRPCPassword string  `long:"btc-rpc-password" env:"WHALE_MONITOR_BTC_RPC_PASSWORD" description:"Bitcoin RPC password"`
	BtcThreshold   float64 `long:"btc-threshold" env:"WHALE_MONITOR_BTC_THRESHOLD" description:"whale threshold in BTC" default:"10"`

	XrplEnabled   bool    `long:"xrpl-enabled" env:"WHALE_MONITOR_XRPL_ENABLED" description:"enable the XRPL stream"`
	XrplURL       string  `long:"xrpl-url" env:"WHALE_MONITOR_XRPL_URL" description:"XRPL websocket URL" default:"wss://s1.ripple.com"`
	XrplThreshold float64 `long:"xrpl-threshold" env:"WHALE_MONITOR_XRPL_THRESHOLD" description:"whale threshold in XRP" default:"1000000"`

	ArchiveDSN           string        `long:"archive-dsn" env:"WHALE_MONITOR_ARCHIVE_DSN" description:"ClickHouse DSN for the archive sink (empty disables archiving)"`
	ArchiveFlushSize     int           `long:"archive-flush-size" env:"WHALE_MONITOR_ARCHIVE_FLUSH_SIZE" description:"archive batch size" default:"500"`
	ArchiveFlushInterval time.Duration `long:"archive-flush-interval" env:"WHALE_MONITOR_ARCHIVE_FLUSH_INTERVAL" description:"archive flush interval" default:"30s"`

	TelegramBotToken string   `long:"telegram-bot-token" env:"WHALE_MONITOR_TELEGRAM_BOT_TOKEN" description:"Telegram bot token for alerts"`
	TelegramChatID   string   `long:"telegram-chat-id" env:"WHALE_MONITOR_TELEGRAM_CHAT_ID" description:"Telegram chat for alerts"`
	WebhookURLs      []string `long:"webhook-url" env:"WHALE_MONITOR_WEBHOOK_URLS" env-delim:"," description:"webhook alert destinations"`

	HighImpactPct float64       `long:"high-impact-pct" env:"WHALE_MONITOR_HIGH_IMPACT_PCT" description:"price impact treated as a high-impact event" default:"25"`
	PauseDuration time.Duration `long:"pause-duration" env:"WHALE_MONITOR_PAUSE_DURATION" description:"trading pause after consecutive high-impact events" default:"30m"`

	ColdEthAddress   string  `long:"cold-eth-address" env:"WHALE_MONITOR_COLD_ETH_ADDRESS" description:"ETH cold wallet address"`
	ColdEthThreshold float64 `long:"cold-eth-threshold" env:"WHALE_MONITOR_COLD_ETH_THRESHOLD" description:"ETH hot balance sweep threshold" default:"500"`
	ColdBtcAddress   string  `long:"cold-btc-address" env:"WHALE_MONITOR_COLD_BTC_ADDRESS" description:"BTC cold wallet address"`
	ColdBtcThreshold float64 `long:"cold-btc-threshold" env:"WHALE_MONITOR_COLD_BTC_THRESHOLD" description:"BTC hot balance sweep threshold" default:"50"`
}

func main() {
	cfg := flagConfig{}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("can't initialize zap logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync()
	}()

	_ = godotenv.Load()
	if _, err := flags.ParseArgs(&cfg, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	if err := run(ctx, buildConfig(cfg), cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("whale monitor failed", zap.Error(err))
	}
}

func buildConfig(cfg flagConfig) config.Config {
	c := config.Default()
	c.DataDir = cfg.DataDir
	c.TransactionLog = cfg.DataDir + "/whale_transactions.csv"
	c.OverflowLog = cfg.DataDir + "/whale_transactions.overflow.csv"
	c.WalletFile = cfg.DataDir + "/wallets.json"
	c.PollInterval = cfg.PollInterval
	c.RequestCooldown = cfg.RequestCooldown
	c.SeenCacheSize = cfg.SeenCacheSize

	c.Ethereum = config.EthereumConfig{
		Enabled:        cfg.EthEnabled,
		APIKey:         cfg.EthAPIKey,
		Endpoint:       cfg.EthEndpoint,
		WatchAddresses: cfg.EthAddresses,
		WhaleThreshold: cfg.EthThreshold,
	}
	c.Bitcoin = config.BitcoinConfig{
		Enabled:        cfg.BtcEnabled,
		RPCURL:         cfg.BtcRPCURL,
		RPCUser:        cfg.BtcRPCUser,
		RPCPassword:    cfg.BtcRPCPassword,
		WhaleThreshold: cfg.BtcThreshold,
	}
	c.XRPL = config.XRPLConfig{
		Enabled:        cfg.XrplEnabled,
		WebsocketURL:   cfg.XrplURL,
		WhaleThreshold: cfg.XrplThreshold,
	}
	c.Archive = config.ArchiveConfig{
		DSN:           cfg.ArchiveDSN,
		FlushSize:     cfg.ArchiveFlushSize,
		FlushInterval: cfg.ArchiveFlushInterval,
	}
	c.Alerts = config.AlertsConfig{
		TelegramBotToken: cfg.TelegramBotToken,
		TelegramChatID:   cfg.TelegramChatID,
		WebhookURLs:      cfg.WebhookURLs,
	}
	c.Risk = config.RiskConfig{
		HighImpactPct: cfg.HighImpactPct,
		PauseDuration: cfg.PauseDuration,
	}
	return c
}

func run(ctx context.Context, cfg config.Config, raw flagConfig, logger *zap.Logger) error {
	if err := wallets.EnsureDir(cfg.DataDir); err != nil {
		return fmt.Errorf("prepare data dir: %w", err)
	}

	registry, err := wallets.Load(cfg.WalletFile, metrics.NewStore("wallets"), logger)
	if err != nil {
		return fmt.Errorf("load wallet registry: %w", err)
	}
	log, err := txlog.Open(cfg.TransactionLog, cfg.OverflowLog, metrics.NewStore("txlog"), logger)
	if err != nil {
		return fmt.Errorf("open transaction log: %w", err)
	}

	prices := price.NewCoinGecko(logger)
	estimator := influence.New(thresholdByToken(cfg))

	crash := risk.NewCrashProtection(logger)
	riskManager := risk.NewManager(cfg.Risk, crash, estimator, logger)

	var archiveSink processor.ArchiveSink
	if cfg.Archive.DSN != "" {
		repo, repoErr := archive.NewRepository(cfg.Archive.DSN, metrics.NewClickhouseRepository())
		if repoErr != nil {
			return fmt.Errorf("init archive repository: %w", repoErr)
		}
		sink := archive.NewSink(repo, cfg.Archive.FlushSize, cfg.Archive.FlushInterval, logger)
		sink.Start(ctx)
		defer sink.Stop()
		archiveSink = sink
	}

	var deposits processor.DepositObserver
	if coldWallets := coldWalletsFromFlags(raw); len(coldWallets) > 0 {
		deposits = coldstorage.NewTracker(coldstorage.NewPlanner(coldWallets, logger), logger)
	}

	history := alert.NewHistory(registry.IsKnown)

	proc := processor.New(
		registry,
		log,
		estimator,
		buildDispatcher(cfg.Alerts, history, logger),
		processor.TieredImpact{},
		riskManager,
		archiveSink,
		deposits,
		metrics.NewProcessor(),
		logger,
	)

	// The monitor serves metrics and the read API, alert history included,
	// on one listener.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	transport.NewAPIHandler(log, registry, estimator, history, logger).Register(mux)
	startHTTPServer(ctx, raw.MetricsAddr, mux, logger)

	workers := buildWorkers(cfg, prices, crash, proc, logger)
	return monitor.NewSupervisor(workers, logger).Run(ctx)
}

func buildWorkers(
	cfg config.Config,
	prices chain.PriceSource,
	crash *risk.CrashProtection,
	proc *processor.Processor,
	logger *zap.Logger,
) []monitor.Worker {
	var workers []monitor.Worker

	if cfg.Ethereum.Enabled {
		if err := cfg.ValidateChain(model.Ethereum); err != nil {
			logger.Warn("ethereum disabled", zap.Error(err))
		} else {
			poller := etherscan.NewPoller(
				cfg.Ethereum.Endpoint,
				cfg.Ethereum.APIKey,
				cfg.Ethereum.WatchAddresses,
				cfg.RequestCooldown,
				prices,
				metrics.NewPoller(),
				logger,
			)
			f := filter.New(model.Ethereum, cfg.Ethereum.WhaleThreshold, cfg.SeenCacheSize, logger)
			workers = append(workers, monitor.NewChainWorker(poller, f, proc, cfg.PollInterval, logger))
		}
	}

	if cfg.Bitcoin.Enabled {
		if err := btcWorker(cfg, prices, proc, logger, &workers); err != nil {
			logger.Warn("bitcoin disabled", zap.Error(err))
		}
	}

	if cfg.XRPL.Enabled {
		if err := cfg.ValidateChain(model.XRPL); err != nil {
			logger.Warn("xrpl disabled", zap.Error(err))
		} else {
			out := make(chan chain.RawTransaction, xrplStreamBuffer)
			stream := xrpl.NewStream(cfg.XRPL.WebsocketURL, out, prices, metrics.NewStream(), logger)
			f := filter.New(model.XRPL, cfg.XRPL.WhaleThreshold, cfg.SeenCacheSize, logger)
			workers = append(workers,
				stream,
				monitor.NewStreamWorker(model.XRPL, out, f, proc, logger),
			)
		}
	}

	if len(workers) > 0 {
		workers = append(workers, risk.NewMarketWatcher(prices, crash, cfg.PollInterval, logger))
	}
	return workers
}

func btcWorker(
	cfg config.Config,
	prices chain.PriceSource,
	proc *processor.Processor,
	logger *zap.Logger,
	workers *[]monitor.Worker,
) error {
	if err := cfg.ValidateChain(model.Bitcoin); err != nil {
		return err
	}
	client, err := newBtcRPCClient(cfg.Bitcoin.RPCURL, cfg.Bitcoin.RPCUser, cfg.Bitcoin.RPCPassword)
	if err != nil {
		return fmt.Errorf("init bitcoin rpc client: %w", err)
	}

	rpc := bitcoin.NewRPCClient(client, metrics.NewRPCClient("bitcoin"))
	poller := bitcoin.NewPoller(rpc, prices, metrics.NewPoller(), logger)
	f := filter.New(model.Bitcoin, cfg.Bitcoin.WhaleThreshold, cfg.SeenCacheSize, logger)
	*workers = append(*workers, monitor.NewChainWorker(poller, f, proc, cfg.PollInterval, logger))
	return nil
}

func buildDispatcher(cfg config.AlertsConfig, history *alert.History, logger *zap.Logger) *alert.Dispatcher {
	notifiers := []alert.Notifier{
		alert.NewLogNotifier(logger),
		history,
	}
	if len(cfg.WebhookURLs) > 0 {
		notifiers = append(notifiers, alert.NewWebhookNotifier(cfg.WebhookURLs))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifiers = append(notifiers, alert.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	return alert.NewDispatcher(nil, notifiers, logger)
}

func thresholdByToken(cfg config.Config) func(token string) float64 {
	return func(token string) float64 {
		for _, c := range []model.Chain{model.Ethereum, model.Bitcoin, model.XRPL} {
			if c.Token() == token {
				return cfg.Threshold(c)
			}
		}
		return 0
	}
}

func coldWalletsFromFlags(cfg flagConfig) map[string]coldstorage.Wallet {
	wallets := make(map[string]coldstorage.Wallet)
	if cfg.ColdEthAddress != "" {
		wallets["ETH"] = coldstorage.Wallet{Address: cfg.ColdEthAddress, Threshold: cfg.ColdEthThreshold}
	}
	if cfg.ColdBtcAddress != "" {
		wallets["BTC"] = coldstorage.Wallet{Address: cfg.ColdBtcAddress, Threshold: cfg.ColdBtcThreshold}
	}
	return wallets
}

func startHTTPServer(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting http server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown http server", zap.Error(err))
		}
	}()
}

func newBtcRPCClient(rawURL, user, password string) (*rpcclient.Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse rpc url: %w", err)
	}
	if parsed.Scheme != "http" {
		return nil, fmt.Errorf("rpc url scheme %q not supported, use http", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("rpc url missing host")
	}

	cfg := &rpcclient.ConnConfig{
		Host:         parsed.Host,
		User:         user,
		Pass:         password,
		HTTPPostMode: true,
		DisableTLS:   true,
	}
	return rpcclient.New(cfg, nil)
}
