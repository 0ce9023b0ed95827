package clickhouse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/estimatebot/whaletracker-backend/internal/model"
)

func TestRepository_InsertWhaleTransactions(t *testing.T) {
	ctx := context.Background()
	tx := model.WhaleTransaction{
		Chain:          model.Ethereum,
		FromAddress:    "0xfrom",
		ToAddress:      "0xto",
		Token:          "ETH",
		Amount:         150,
		USDValue:       525_000,
		Type:           model.TxWithdrawal,
		PriceImpactPct: 0.5,
		TxHash:         "0xdeadbeef",
		Timestamp:      time.Unix(1_756_380_000, 0).UTC(),
	}

	tests := []struct {
		name    string
		txs     []model.WhaleTransaction
		setup   func(t *testing.T) *Repository
		wantErr bool
	}{
		{
			name: "empty input still records metrics",
			txs:  nil,
			setup: func(t *testing.T) *Repository {
				ctrl := gomock.NewController(t)
				t.Cleanup(ctrl.Finish)

				mockMetrics := NewMockMetrics(ctrl)
				mockMetrics.EXPECT().
					Observe("insert_whale_transactions", nil, gomock.AssignableToTypeOf(time.Time{}))

				return &Repository{conn: nil, metrics: mockMetrics}
			},
		},
		{
			name: "prepare batch error",
			txs:  []model.WhaleTransaction{tx},
			setup: func(t *testing.T) *Repository {
				ctrl := gomock.NewController(t)
				t.Cleanup(ctrl.Finish)

				mockConn := NewMockConn(ctrl)
				mockMetrics := NewMockMetrics(ctrl)
				prepareErr := errors.New("prepare failed")

				gomock.InOrder(
					mockConn.EXPECT().
						PrepareBatch(ctx, insertWhaleTransactionsQuery()).
						Return(nil, prepareErr),
					mockMetrics.EXPECT().
						Observe("insert_whale_transactions", gomock.Any(), gomock.AssignableToTypeOf(time.Time{})).
						Do(func(_ string, err error, _ time.Time) {
							if !errors.Is(err, prepareErr) {
								t.Fatalf("unexpected error in metrics: %v", err)
							}
						}),
				)

				return &Repository{conn: mockConn, metrics: mockMetrics}
			},
			wantErr: true,
		},
		{
			name: "append error",
			txs:  []model.WhaleTransaction{tx},
			setup: func(t *testing.T) *Repository {
				ctrl := gomock.NewController(t)
				t.Cleanup(ctrl.Finish)

				mockConn := NewMockConn(ctrl)
				mockBatch := NewMockBatch(ctrl)
				mockMetrics := NewMockMetrics(ctrl)
				appendErr := errors.New("append failed")

				gomock.InOrder(
					mockConn.EXPECT().
						PrepareBatch(ctx, insertWhaleTransactionsQuery()).
						Return(mockBatch, nil),
					mockBatch.EXPECT().
						Append(
							string(tx.Chain),
							tx.TxHash,
							tx.FromAddress,
							tx.ToAddress,
							tx.Token,
							tx.Amount,
							tx.USDValue,
							string(tx.Type),
							tx.PriceImpactPct,
							tx.Timestamp,
						).
						Return(appendErr),
					mockMetrics.EXPECT().
						Observe("insert_whale_transactions", gomock.Any(), gomock.AssignableToTypeOf(time.Time{})).
						Do(func(_ string, err error, _ time.Time) {
							if !errors.Is(err, appendErr) {
								t.Fatalf("unexpected error in metrics: %v", err)
							}
						}),
				)

				return &Repository{conn: mockConn, metrics: mockMetrics}
			},
			wantErr: true,
		},
		{
			name: "send error",
			txs:  []model.WhaleTransaction{tx},
			setup: func(t *testing.T) *Repository {
				ctrl := gomock.NewController(t)
				t.Cleanup(ctrl.Finish)

				mockConn := NewMockConn(ctrl)
				mockBatch := NewMockBatch(ctrl)
				mockMetrics := NewMockMetrics(ctrl)
				sendErr := errors.New("send failed")

				gomock.InOrder(
					mockConn.EXPECT().
						PrepareBatch(ctx, insertWhaleTransactionsQuery()).
						Return(mockBatch, nil),
					mockBatch.EXPECT().
						Append(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(),
							gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
						Return(nil),
					mockBatch.EXPECT().
						Send().
						Return(sendErr),
					mockMetrics.EXPECT().
						Observe("insert_whale_transactions", gomock.Any(), gomock.AssignableToTypeOf(time.Time{})).
						Do(func(_ string, err error, _ time.Time) {
							if !errors.Is(err, sendErr) {
								t.Fatalf("unexpected error in metrics: %v", err)
							}
						}),
				)

				return &Repository{conn: mockConn, metrics: mockMetrics}
			},
			wantErr: true,
		},
		{
			name: "success",
			txs:  []model.WhaleTransaction{tx},
			setup: func(t *testing.T) *Repository {
				ctrl := gomock.NewController(t)
				t.Cleanup(ctrl.Finish)

				mockConn := NewMockConn(ctrl)
				mockBatch := NewMockBatch(ctrl)
				mockMetrics := NewMockMetrics(ctrl)

				gomock.InOrder(
					mockConn.EXPECT().
						PrepareBatch(ctx, insertWhaleTransactionsQuery()).
						Return(mockBatch, nil),
					mockBatch.EXPECT().
						Append(
							string(tx.Chain),
							tx.TxHash,
							tx.FromAddress,
							tx.ToAddress,
							tx.Token,
							tx.Amount,
							tx.USDValue,
							string(tx.Type),
							tx.PriceImpactPct,
							tx.Timestamp,
						).
						Return(nil),
					mockBatch.EXPECT().
						Send().
						Return(nil),
					mockMetrics.EXPECT().
						Observe("insert_whale_transactions", nil, gomock.AssignableToTypeOf(time.Time{})),
				)

				return &Repository{conn: mockConn, metrics: mockMetrics}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.setup(t)
			if err := r.InsertWhaleTransactions(ctx, tt.txs); (err != nil) != tt.wantErr {
				t.Fatalf("InsertWhaleTransactions() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func insertWhaleTransactionsQuery() string {
	return `
INSERT INTO whale_transactions (
	chain,
	tx_hash,
	from_address,
	to_address,
	token,
	amount,
	usd_value,
	type,
	price_impact_pct,
	timestamp
) VALUES`
}
