// Package transport exposes the read-only HTTP API over the whale tracker's
// stores.
package transport

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/model"
	"go.uber.org/zap"
)

const (
	defaultLimit = 50
	maxLimit     = 500

	influenceWindow = time.Hour
)

type (
	// TransactionSource reads the transaction log.
	TransactionSource interface {
		Recent(limit int) []model.WhaleTransaction
		ByAddress(address string, limit int) []model.WhaleTransaction
	}

	// WalletSource reads the wallet registry.
	WalletSource interface {
		Get(address string) (model.WalletRecord, bool)
	}

	// InfluenceSource scores token influence.
	InfluenceSource interface {
		Influence(token string, window time.Duration) float64
		ShouldAdjust(token string, window time.Duration) bool
	}

	// AlertSource reads the in-memory alert history. Only the monitor process
	// holds one; the gateway passes nil and the route is not mounted.
	AlertSource interface {
		Recent(limit int) []model.AlertRecord
	}
)

// APIHandler serves the JSON API.
type APIHandler struct {
	transactions TransactionSource
	wallets      WalletSource
	influence    InfluenceSource
	alerts       AlertSource
	logger       *zap.Logger
}

func NewAPIHandler(
	transactions TransactionSource,
	wallets WalletSource,
	influence InfluenceSource,
	alerts AlertSource,
	logger *zap.Logger,
) *APIHandler {
	return &APIHandler{
		transactions: transactions,
		wallets:      wallets,
		influence:    influence,
		alerts:       alerts,
		logger:       logger.Named("api"),
	}
}

// Register mounts all routes on mux.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("GET /v1/transactions/recent", h.recentTransactions)
	mux.HandleFunc("GET /v1/transactions/address/{address}", h.transactionsByAddress)
	mux.HandleFunc("GET /v1/wallets/{address}", h.wallet)
	mux.HandleFunc("GET /v1/influence/{token}", h.tokenInfluence)
	if h.alerts != nil {
		mux.HandleFunc("GET /v1/alerts/recent", h.recentAlerts)
	}
}

func (h *APIHandler) health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type transactionResponse struct {
	Timestamp      time.Time `json:"timestamp"`
	Blockchain     string    `json:"blockchain"`
	FromAddress    string    `json:"from_address"`
	ToAddress      string    `json:"to_address"`
	Token          string    `json:"token"`
	Amount         float64   `json:"amount"`
	USDValue       float64   `json:"usd_value"`
	Type           string    `json:"type"`
	PriceImpactPct float64   `json:"price_impact_pct"`
	TxHash         string    `json:"tx_hash"`
}

func toTransactionResponses(txs []model.WhaleTransaction) []transactionResponse {
	out := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		out[i] = transactionResponse{
			Timestamp:      tx.Timestamp,
			Blockchain:     string(tx.Chain),
			FromAddress:    tx.FromAddress,
			ToAddress:      tx.ToAddress,
			Token:          tx.Token,
			Amount:         tx.Amount,
			USDValue:       tx.USDValue,
			Type:           string(tx.Type),
			PriceImpactPct: tx.PriceImpactPct,
			TxHash:         tx.TxHash,
		}
	}
	return out
}

func (h *APIHandler) recentTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	txs := h.transactions.Recent(limit)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"transactions": toTransactionResponses(txs),
	})
}

func (h *APIHandler) transactionsByAddress(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if address == "" {
		h.writeError(w, http.StatusBadRequest, "address is required")
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	txs := h.transactions.ByAddress(address, limit)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"address":      address,
		"transactions": toTransactionResponses(txs),
	})
}

type walletResponse struct {
	Address string `json:"address"`
	model.WalletRecord
}

func (h *APIHandler) wallet(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	rec, ok := h.wallets.Get(address)
	if !ok {
		h.writeError(w, http.StatusNotFound, "wallet not found")
		return
	}
	h.writeJSON(w, http.StatusOK, walletResponse{Address: address, WalletRecord: rec})
}

func (h *APIHandler) tokenInfluence(w http.ResponseWriter, r *http.Request) {
	token := strings.ToUpper(r.PathValue("token"))
	score := h.influence.Influence(token, influenceWindow)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"token":         token,
		"influence":     score,
		"should_adjust": h.influence.ShouldAdjust(token, influenceWindow),
		"window":        influenceWindow.String(),
	})
}

type alertResponse struct {
	Timestamp   time.Time `json:"timestamp"`
	Blockchain  string    `json:"blockchain"`
	Token       string    `json:"token"`
	FromAddress string    `json:"from_address"`
	ToAddress   string    `json:"to_address"`
	Value       float64   `json:"value"`
	USDValue    float64   `json:"usd_value"`
	TxHash      string    `json:"tx_hash"`
	FromWhale   bool      `json:"from_whale"`
	ToWhale     bool      `json:"to_whale"`
}

func (h *APIHandler) recentAlerts(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	records := h.alerts.Recent(limit)
	out := make([]alertResponse, len(records))
	for i, rec := range records {
		out[i] = alertResponse{
			Timestamp:   rec.Timestamp,
			Blockchain:  string(rec.Chain),
			Token:       rec.Token,
			FromAddress: rec.FromAddress,
			ToAddress:   rec.ToAddress,
			Value:       rec.Value,
			USDValue:    rec.USDValue,
			TxHash:      rec.TxHash,
			FromWhale:   rec.FromWhale,
			ToWhale:     rec.ToWhale,
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"alerts": out})
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, strconv.ErrSyntax
	}
	if limit == 0 || limit > maxLimit {
		return maxLimit, nil
	}
	return limit, nil
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("write response", zap.Error(err))
	}
}

func (h *APIHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
