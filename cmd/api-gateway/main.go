package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/estimatebot/whaletracker-backend/internal/influence"
	"github.com/estimatebot/whaletracker-backend/internal/metrics"
	"github.com/estimatebot/whaletracker-backend/internal/model"
	"github.com/estimatebot/whaletracker-backend/internal/transport"
	"github.com/estimatebot/whaletracker-backend/internal/txlog"
	"github.com/estimatebot/whaletracker-backend/internal/wallets"
)

var config struct {
	Addr    string `long:"addr" env:"API_GATEWAY_ADDR" description:"listen address" default:":8001"`
	DataDir string `long:"data-dir" env:"API_GATEWAY_DATA_DIR" description:"monitor data directory" default:"data"`

	EthThreshold  float64 `long:"eth-threshold" env:"API_GATEWAY_ETH_THRESHOLD" description:"whale threshold in ETH" default:"100"`
	BtcThreshold  float64 `long:"btc-threshold" env:"API_GATEWAY_BTC_THRESHOLD" description:"whale threshold in BTC" default:"10"`
	XrplThreshold float64 `long:"xrpl-threshold" env:"API_GATEWAY_XRPL_THRESHOLD" description:"whale threshold in XRP" default:"1000000"`
}

func main() {
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
	if _, err := flags.ParseArgs(&config, os.Args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return
		}
		logger.Fatal("failed to parse flags", zap.Error(err))
	}

	log, err := txlog.Open(
		config.DataDir+"/whale_transactions.csv",
		config.DataDir+"/whale_transactions.overflow.csv",
		metrics.NewStore("txlog"),
		logger,
	)
	if err != nil {
		logger.Fatal("open transaction log", zap.Error(err))
	}
	registry, err := wallets.Load(config.DataDir+"/wallets.json", metrics.NewStore("wallets"), logger)
	if err != nil {
		logger.Fatal("load wallet registry", zap.Error(err))
	}
	scorer := influence.NewLogBacked(log, func(token string) float64 {
		switch token {
		case model.Ethereum.Token():
			return config.EthThreshold
		case model.Bitcoin.Token():
			return config.BtcThreshold
		case model.XRPL.Token():
			return config.XrplThreshold
		default:
			return 0
		}
	})

	mux := http.NewServeMux()
	// The alert history lives in the monitor process, so no alert source here.
	transport.NewAPIHandler(log, registry, scorer, nil, logger).Register(mux)
	mux.Handle("/metrics", promhttp.Handler())

	s := &http.Server{
		Addr:              config.Addr,
		Handler:           cors.Default().Handler(mux),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down the http server")
		if err := s.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shutdown http server", zap.Error(err))
		}
	}()

	logger.Info("Starting HTTP server", zap.String("addr", config.Addr))
	if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Failed to listen and serve", zap.Error(err))
	}
}
