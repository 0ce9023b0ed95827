package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/model"
	"go.uber.org/zap"
)

const notifyTimeout = 10 * time.Second

// LogNotifier writes alerts to the structured log. Always configured so an
// operator sees every alert even with no external channels set up.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("whale_alert")}
}

func (n *LogNotifier) Notify(_ context.Context, tx model.WhaleTransaction, severity model.Severity) error {
	n.logger.Info("whale transaction",
		zap.String("severity", string(severity)),
		zap.String("chain", string(tx.Chain)),
		zap.String("token", tx.Token),
		zap.Float64("amount", tx.Amount),
		zap.Float64("usd_value", tx.USDValue),
		zap.String("type", string(tx.Type)),
		zap.String("from", tx.FromAddress),
		zap.String("to", tx.ToAddress),
		zap.String("tx_hash", tx.TxHash),
	)
	return nil
}

// WebhookNotifier POSTs the alert as JSON to each configured URL.
type WebhookNotifier struct {
	urls   []string
	client *http.Client
}

func NewWebhookNotifier(urls []string) *WebhookNotifier {
	return &WebhookNotifier{
		urls:   urls,
		client: &http.Client{Timeout: notifyTimeout},
	}
}

type webhookPayload struct {
	Severity    string    `json:"severity"`
	Blockchain  string    `json:"blockchain"`
	Token       string    `json:"token"`
	Amount      float64   `json:"amount"`
	USDValue    float64   `json:"usd_value"`
	Type        string    `json:"type"`
	FromAddress string    `json:"from_address"`
	ToAddress   string    `json:"to_address"`
	TxHash      string    `json:"tx_hash"`
	Timestamp   time.Time `json:"timestamp"`
}

func (n *WebhookNotifier) Notify(ctx context.Context, tx model.WhaleTransaction, severity model.Severity) error {
	body, err := json.Marshal(webhookPayload{
		Severity:    string(severity),
		Blockchain:  string(tx.Chain),
		Token:       tx.Token,
		Amount:      tx.Amount,
		USDValue:    tx.USDValue,
		Type:        string(tx.Type),
		FromAddress: tx.FromAddress,
		ToAddress:   tx.ToAddress,
		TxHash:      tx.TxHash,
		Timestamp:   tx.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	for _, u := range n.urls {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			return fmt.Errorf("post webhook: %w", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("webhook %s returned status %d", u, resp.StatusCode)
		}
	}
	return nil
}

// TelegramNotifier sends a formatted message through the Bot API.
type TelegramNotifier struct {
	endpoint string
	chatID   string
	client   *http.Client
}

func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		endpoint: fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", botToken),
		chatID:   chatID,
		client:   &http.Client{Timeout: notifyTimeout},
	}
}

func (n *TelegramNotifier) Notify(ctx context.Context, tx model.WhaleTransaction, severity model.Severity) error {
	text := fmt.Sprintf("[%s] %s whale %s: %.4f %s ($%.0f)\nfrom %s\nto %s\ntx %s",
		severity, strings.ToUpper(string(tx.Chain)), tx.Type,
		tx.Amount, tx.Token, tx.USDValue,
		tx.FromAddress, tx.ToAddress, tx.TxHash)

	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}
