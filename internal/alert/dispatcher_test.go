package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/estimatebot/whaletracker-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu         sync.Mutex
	delivered  []model.WhaleTransaction
	severities []model.Severity
	err        error
}

func (n *recordingNotifier) Notify(_ context.Context, tx model.WhaleTransaction, severity model.Severity) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.delivered = append(n.delivered, tx)
	n.severities = append(n.severities, severity)
	return n.err
}

func ethTx(amount, usd float64) model.WhaleTransaction {
	return model.WhaleTransaction{
		Chain:    model.Ethereum,
		Token:    "ETH",
		Amount:   amount,
		USDValue: usd,
		Type:     model.TxTransfer,
		TxHash:   "0xabc",
	}
}

func TestDispatchRules(t *testing.T) {
	tests := map[string]struct {
		rules         []Rule
		tx            model.WhaleTransaction
		wantDelivered bool
	}{
		"no rules alerts everything": {
			tx:            ethTx(150, 525_000),
			wantDelivered: true,
		},
		"token rule matches": {
			rules:         []Rule{{Token: "ETH"}},
			tx:            ethTx(150, 525_000),
			wantDelivered: true,
		},
		"token rule rejects other token": {
			rules:         []Rule{{Token: "BTC"}},
			tx:            ethTx(150, 525_000),
			wantDelivered: false,
		},
		"min amount gates": {
			rules:         []Rule{{MinAmount: 200}},
			tx:            ethTx(150, 525_000),
			wantDelivered: false,
		},
		"min usd gates": {
			rules:         []Rule{{MinUSDValue: 1_000_000}},
			tx:            ethTx(150, 525_000),
			wantDelivered: false,
		},
		"severity gate passes critical": {
			rules:         []Rule{{MinSeverity: model.SeverityHigh}},
			tx:            ethTx(2000, 7_000_000),
			wantDelivered: true,
		},
		"severity gate rejects medium": {
			rules:         []Rule{{MinSeverity: model.SeverityHigh}},
			tx:            ethTx(150, 525_000),
			wantDelivered: false,
		},
		"any matching rule suffices": {
			rules:         []Rule{{Token: "BTC"}, {MinAmount: 100}},
			tx:            ethTx(150, 525_000),
			wantDelivered: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			n := &recordingNotifier{}
			d := NewDispatcher(tt.rules, []Notifier{n}, zap.NewNop())
			d.Dispatch(context.Background(), tt.tx)

			if tt.wantDelivered {
				require.Len(t, n.delivered, 1)
			} else {
				assert.Empty(t, n.delivered)
			}
		})
	}
}

func TestDispatchFansOutAndSurvivesFailures(t *testing.T) {
	failing := &recordingNotifier{err: assert.AnError}
	ok := &recordingNotifier{}
	d := NewDispatcher(nil, []Notifier{failing, ok}, zap.NewNop())

	d.Dispatch(context.Background(), ethTx(2000, 7_000_000))

	require.Len(t, ok.delivered, 1)
	assert.Equal(t, model.SeverityCritical, ok.severities[0])
	assert.Len(t, failing.delivered, 1)
}

func TestWebhookNotifier(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	n := NewWebhookNotifier([]string{srv.URL})
	err := n.Notify(context.Background(), ethTx(150, 525_000), model.SeverityMedium)
	require.NoError(t, err)

	assert.Equal(t, "MEDIUM", got.Severity)
	assert.Equal(t, "ethereum", got.Blockchain)
	assert.Equal(t, 150.0, got.Amount)
	assert.Equal(t, "0xabc", got.TxHash)
}

func TestWebhookNotifierErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewWebhookNotifier([]string{srv.URL})
	err := n.Notify(context.Background(), ethTx(150, 525_000), model.SeverityMedium)
	assert.ErrorContains(t, err, "status 500")
}
