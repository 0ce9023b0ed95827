// Package etherscan implements the Ethereum chain poller on top of the
// Etherscan account API.
package etherscan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/chain"
	"github.com/estimatebot/whaletracker-backend/internal/model"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

const fetchOffset = 100 // transactions per watched address per scan

type (
	// Metrics records fetch outcomes for the poller.
	Metrics interface {
		ObserveFetch(chain model.Chain, err error, started time.Time)
	}
)

// Poller fetches recent transactions for a set of watched addresses. Requests
// are spaced by the configured cooldown so the free-tier rate limit holds.
type Poller struct {
	endpoint  string
	apiKey    string
	addresses []string
	client    *http.Client
	limiter   ratelimit.Limiter
	prices    chain.PriceSource
	metrics   Metrics
	logger    *zap.Logger
}

// NewPoller builds an Etherscan poller. cooldown is the minimum delay between
// outbound requests.
func NewPoller(
	endpoint, apiKey string,
	addresses []string,
	cooldown time.Duration,
	prices chain.PriceSource,
	metrics Metrics,
	logger *zap.Logger,
) *Poller {
	rps := 1
	if cooldown > 0 && cooldown < time.Second {
		rps = int(time.Second / cooldown)
	}
	return &Poller{
		endpoint:  endpoint,
		apiKey:    apiKey,
		addresses: addresses,
		client:    &http.Client{Timeout: 15 * time.Second},
		limiter:   ratelimit.New(rps),
		prices:    prices,
		metrics:   metrics,
		logger:    logger.Named("etherscan"),
	}
}

// Chain reports the chain this poller serves.
func (p *Poller) Chain() model.Chain { return model.Ethereum }

// FetchLatest returns recent transactions across all watched addresses,
// newest first. A transport or API failure yields a *chain.FetchError;
// malformed records are skipped and logged.
func (p *Poller) FetchLatest(ctx context.Context) (txs []chain.RawTransaction, err error) {
	started := time.Now()
	defer func() {
		p.metrics.ObserveFetch(model.Ethereum, err, started)
	}()

	ethPrice := p.prices.Price(ctx, "ETH")

	for _, addr := range p.addresses {
		page, fetchErr := p.fetchAddress(ctx, addr)
		if fetchErr != nil {
			return nil, &chain.FetchError{Chain: model.Ethereum, Err: fetchErr}
		}
		for _, raw := range page {
			tx, parseErr := p.convert(raw, ethPrice)
			if parseErr != nil {
				p.logger.Warn("skipping malformed transaction", zap.Error(parseErr))
				continue
			}
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

type accountTx struct {
	Hash      string `json:"hash"`
	From      string `json:"from"`
	To        string `json:"to"`
	Value     string `json:"value"`
	IsError   string `json:"isError"`
	TimeStamp string `json:"timeStamp"`
}

type txListResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Result  []accountTx `json:"result"`
}

func (p *Poller) fetchAddress(ctx context.Context, address string) ([]accountTx, error) {
	p.limiter.Take()

	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", "txlist")
	q.Set("address", address)
	q.Set("startblock", "0")
	q.Set("endblock", "99999999")
	q.Set("page", "1")
	q.Set("offset", strconv.Itoa(fetchOffset))
	q.Set("sort", "desc")
	q.Set("apikey", p.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build txlist request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("txlist request for %s: %w", address, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("txlist request for %s: http %d", address, resp.StatusCode)
	}

	var payload txListResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode txlist response: %w", err)
	}
	// Etherscan reports "No transactions found" as status 0; that is an empty
	// result, not a failure.
	if payload.Status != "1" && len(payload.Result) > 0 {
		return nil, fmt.Errorf("etherscan api: %s", payload.Message)
	}
	return payload.Result, nil
}

func (p *Poller) convert(raw accountTx, ethPrice float64) (chain.RawTransaction, error) {
	if raw.Hash == "" {
		return chain.RawTransaction{}, &chain.ParseError{
			Chain: model.Ethereum, Err: fmt.Errorf("missing tx hash"),
		}
	}
	ts, err := strconv.ParseInt(raw.TimeStamp, 10, 64)
	if err != nil {
		return chain.RawTransaction{}, &chain.ParseError{
			Chain: model.Ethereum, TxHash: raw.Hash,
			Err: fmt.Errorf("bad timestamp %q: %w", raw.TimeStamp, err),
		}
	}
	return chain.RawTransaction{
		Chain:     model.Ethereum,
		TxHash:    raw.Hash,
		From:      raw.From,
		To:        raw.To,
		Value:     raw.Value,
		PriceUSD:  ethPrice,
		Failed:    raw.IsError == "1",
		Timestamp: time.Unix(ts, 0).UTC(),
	}, nil
}
