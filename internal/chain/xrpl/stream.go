// Package xrpl consumes the XRPL transaction stream over websocket and feeds
// Payment transactions into the whale pipeline as raw candidates.
package xrpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/chain"
	"github.com/estimatebot/whaletracker-backend/internal/clock"
	"github.com/estimatebot/whaletracker-backend/internal/model"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 60 * time.Second

	handshakeTimeout = 10 * time.Second
	writeTimeout     = 10 * time.Second
)

// rippleEpochOffset converts the XRPL epoch (2000-01-01) to Unix seconds.
const rippleEpochOffset = 946684800

type (
	// Metrics records stream outcomes.
	Metrics interface {
		ObserveMessage(chain model.Chain, err error, started time.Time)
		ObserveReconnect(chain model.Chain)
	}
)

// Stream maintains a persistent subscription to the XRPL transactions stream.
// On disconnect it reconnects immediately once, then with exponential backoff.
type Stream struct {
	url     string
	out     chan<- chain.RawTransaction
	prices  chain.PriceSource
	metrics Metrics
	logger  *zap.Logger
	dialer  *websocket.Dialer
}

// NewStream builds an XRPL stream writing raw candidates to out.
func NewStream(
	url string,
	out chan<- chain.RawTransaction,
	prices chain.PriceSource,
	metrics Metrics,
	logger *zap.Logger,
) *Stream {
	return &Stream{
		url:     url,
		out:     out,
		prices:  prices,
		metrics: metrics,
		logger:  logger.Named("xrpl"),
		dialer:  &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
	}
}

// Run consumes the stream until the context is canceled.
func (s *Stream) Run(ctx context.Context) error {
	backoff := clock.NewBackoff(initialBackoff, maxBackoff)
	failures := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		read, err := s.consume(ctx)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if read {
			// A healthy session makes the next drop reconnect immediately.
			failures = 0
			backoff.Reset()
		}

		s.metrics.ObserveReconnect(model.XRPL)
		failures++
		if failures == 1 {
			// First drop reconnects immediately.
			s.logger.Warn("stream dropped, reconnecting", zap.Error(err))
			continue
		}
		wait := backoff.Next()
		s.logger.Warn("stream dropped, backing off", zap.Error(err), zap.Duration("wait", wait))
		if sleepErr := clock.SleepWithContext(ctx, wait); sleepErr != nil {
			return sleepErr
		}
	}
}

// consume dials, subscribes, and reads messages until the connection fails or
// the context ends. It reports whether at least one message was read, so the
// caller can tell a healthy session from a connection that never came up.
func (s *Stream) consume(ctx context.Context) (bool, error) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return false, &chain.FetchError{Chain: model.XRPL, Err: fmt.Errorf("dial %s: %w", s.url, err)}
	}
	defer func() {
		_ = conn.Close()
	}()

	// Close the socket when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	sub := map[string]any{"command": "subscribe", "streams": []string{"transactions"}}
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return false, fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteJSON(sub); err != nil {
		return false, &chain.FetchError{Chain: model.XRPL, Err: fmt.Errorf("subscribe: %w", err)}
	}
	s.logger.Info("subscribed to transaction stream", zap.String("url", s.url))

	read := false
	for {
		if err := ctx.Err(); err != nil {
			return read, err
		}
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return read, ctx.Err()
			}
			return read, &chain.FetchError{Chain: model.XRPL, Err: fmt.Errorf("read: %w", err)}
		}
		read = true
		s.handleMessage(ctx, payload)
	}
}

type streamMessage struct {
	Type         string `json:"type"`
	EngineResult string `json:"engine_result"`
	Validated    bool   `json:"validated"`
	Transaction  struct {
		TransactionType string          `json:"TransactionType"`
		Account         string          `json:"Account"`
		Destination     string          `json:"Destination"`
		Amount          json.RawMessage `json:"Amount"`
		Hash            string          `json:"hash"`
		Date            int64           `json:"date"`
	} `json:"transaction"`
}

func (s *Stream) handleMessage(ctx context.Context, payload []byte) {
	started := time.Now()
	raw, err := s.parse(payload)
	s.metrics.ObserveMessage(model.XRPL, err, started)
	if err != nil {
		s.logger.Debug("skipping stream message", zap.Error(err))
		return
	}
	if raw == nil {
		return
	}
	raw.PriceUSD = s.prices.Price(ctx, "XRP")

	select {
	case s.out <- *raw:
	case <-ctx.Done():
	}
}

// parse returns nil without error for messages that are valid but not XRP
// payments (other transaction types, issued-currency amounts).
func (s *Stream) parse(payload []byte) (*chain.RawTransaction, error) {
	var msg streamMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, &chain.ParseError{Chain: model.XRPL, Err: err}
	}
	if msg.Type != "transaction" || msg.Transaction.TransactionType != "Payment" {
		return nil, nil
	}

	// Issued-currency amounts arrive as JSON objects; native XRP is a string
	// of drops.
	var drops string
	if err := json.Unmarshal(msg.Transaction.Amount, &drops); err != nil {
		return nil, nil
	}

	return &chain.RawTransaction{
		Chain:     model.XRPL,
		TxHash:    msg.Transaction.Hash,
		From:      msg.Transaction.Account,
		To:        msg.Transaction.Destination,
		Value:     drops,
		Failed:    msg.EngineResult != "" && msg.EngineResult != "tesSUCCESS",
		Timestamp: time.Unix(msg.Transaction.Date+rippleEpochOffset, 0).UTC(),
	}, nil
}
