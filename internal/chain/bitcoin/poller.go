package bitcoin

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/estimatebot/whaletracker-backend/internal/chain"
	"github.com/estimatebot/whaletracker-backend/internal/model"
	"go.uber.org/zap"
)

// blocksPerScan bounds how far a single poll will catch up after downtime.
const blocksPerScan = 3

type (
	// NodeClient is the subset of RPC calls the poller needs.
	NodeClient interface {
		GetBlockCount() (int64, error)
		GetBlockHash(blockHeight int64) (*chainhash.Hash, error)
		GetBlockVerboseTx(blockHash *chainhash.Hash) (*btcjson.GetBlockVerboseTxResult, error)
	}

	// Metrics records fetch outcomes for the poller.
	Metrics interface {
		ObserveFetch(chain model.Chain, err error, started time.Time)
	}
)

// Poller walks new blocks on a Bitcoin node and reports their transactions as
// whale candidates. Coinbase transactions are skipped.
type Poller struct {
	rpc        NodeClient
	prices     chain.PriceSource
	metrics    Metrics
	logger     *zap.Logger
	lastHeight int64
}

// NewPoller builds a Bitcoin poller starting at the node's current tip.
func NewPoller(rpc NodeClient, prices chain.PriceSource, metrics Metrics, logger *zap.Logger) *Poller {
	return &Poller{
		rpc:     rpc,
		prices:  prices,
		metrics: metrics,
		logger:  logger.Named("bitcoin"),
	}
}

// Chain reports the chain this poller serves.
func (p *Poller) Chain() model.Chain { return model.Bitcoin }

// FetchLatest returns the transactions of blocks mined since the previous
// scan, newest first. RPC failures yield a *chain.FetchError.
func (p *Poller) FetchLatest(ctx context.Context) (txs []chain.RawTransaction, err error) {
	started := time.Now()
	defer func() {
		p.metrics.ObserveFetch(model.Bitcoin, err, started)
	}()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	tip, rpcErr := p.rpc.GetBlockCount()
	if rpcErr != nil {
		return nil, &chain.FetchError{Chain: model.Bitcoin, Err: fmt.Errorf("get block count: %w", rpcErr)}
	}
	if p.lastHeight == 0 {
		// First scan: start from the tip rather than replaying history.
		p.lastHeight = tip - 1
	}
	from := p.lastHeight + 1
	if tip-from >= blocksPerScan {
		from = tip - blocksPerScan + 1
	}

	btcPrice := p.prices.Price(ctx, "BTC")

	for height := tip; height >= from; height-- {
		blockTxs, blockErr := p.fetchBlock(height, btcPrice)
		if blockErr != nil {
			return nil, &chain.FetchError{Chain: model.Bitcoin, Err: blockErr}
		}
		txs = append(txs, blockTxs...)
	}
	p.lastHeight = tip
	return txs, nil
}

func (p *Poller) fetchBlock(height int64, btcPrice float64) ([]chain.RawTransaction, error) {
	hash, err := p.rpc.GetBlockHash(height)
	if err != nil {
		return nil, fmt.Errorf("get block hash at height %d: %w", height, err)
	}
	block, err := p.rpc.GetBlockVerboseTx(hash)
	if err != nil {
		return nil, fmt.Errorf("get block %s: %w", hash, err)
	}

	timestamp := time.Unix(block.Time, 0).UTC()
	txs := make([]chain.RawTransaction, 0, len(block.RawTx))
	for _, tx := range block.RawTx {
		if isCoinbase(tx) {
			continue
		}
		raw, convErr := convertTx(tx, timestamp, btcPrice)
		if convErr != nil {
			p.logger.Warn("skipping malformed transaction",
				zap.String("txid", tx.Txid), zap.Error(convErr))
			continue
		}
		txs = append(txs, raw)
	}
	return txs, nil
}

func isCoinbase(tx btcjson.TxRawResult) bool {
	return len(tx.Vin) > 0 && tx.Vin[0].IsCoinBase()
}

// convertTx flattens a verbose transaction into a raw candidate: the value is
// the sum of all outputs in satoshis, the receiver is the address of the
// largest output. The spender is not resolvable from a verbose block without
// previous-output lookups, so it is reported as the first input reference.
func convertTx(tx btcjson.TxRawResult, timestamp time.Time, btcPrice float64) (chain.RawTransaction, error) {
	var total, largest btcutil.Amount
	to := ""
	for _, vout := range tx.Vout {
		amt, err := btcutil.NewAmount(vout.Value)
		if err != nil {
			return chain.RawTransaction{}, &chain.ParseError{
				Chain: model.Bitcoin, TxHash: tx.Txid,
				Err: fmt.Errorf("output %d value %v: %w", vout.N, vout.Value, err),
			}
		}
		total += amt
		if amt > largest {
			largest = amt
			to = outputAddress(vout)
		}
	}

	from := "unknown"
	if len(tx.Vin) > 0 && tx.Vin[0].Txid != "" {
		from = fmt.Sprintf("%s:%d", tx.Vin[0].Txid, tx.Vin[0].Vout)
	}

	return chain.RawTransaction{
		Chain:     model.Bitcoin,
		TxHash:    tx.Txid,
		From:      from,
		To:        to,
		Value:     strconv.FormatInt(int64(total), 10),
		PriceUSD:  btcPrice,
		Timestamp: timestamp,
	}, nil
}

func outputAddress(vout btcjson.Vout) string {
	if vout.ScriptPubKey.Address != "" {
		return vout.ScriptPubKey.Address
	}
	if len(vout.ScriptPubKey.Addresses) > 0 {
		return vout.ScriptPubKey.Addresses[0]
	}
	return ""
}
