package txlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type nopMetrics struct{}

func (nopMetrics) Observe(string, error, time.Time) {}

func sampleTx(hash string, ts time.Time) model.WhaleTransaction {
	return model.WhaleTransaction{
		Chain:          model.Ethereum,
		FromAddress:    "0xfrom",
		ToAddress:      "0xto",
		Token:          "ETH",
		Amount:         150,
		USDValue:       525000,
		Type:           model.TxWithdrawal,
		PriceImpactPct: 0.5,
		TxHash:         hash,
		Timestamp:      ts,
	}
}

func openTestLog(t *testing.T, dir string) *Log {
	t.Helper()
	l, err := Open(filepath.Join(dir, "transactions.csv"), filepath.Join(dir, "overflow.csv"), nopMetrics{}, zap.NewNop())
	require.NoError(t, err)
	return l
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	l := openTestLog(t, t.TempDir())
	assert.Zero(t, l.Len())
}

func TestAppendRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := openTestLog(t, dir)

	ts := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	require.NoError(t, l.Append(sampleTx("0xaaa", ts)))
	require.NoError(t, l.Append(sampleTx("0xbbb", ts.Add(time.Minute))))

	reloaded := openTestLog(t, dir)
	records := reloaded.All()
	require.Len(t, records, 2)
	assert.Equal(t, "0xaaa", records[0].TxHash)
	assert.Equal(t, "0xbbb", records[1].TxHash)
	assert.Equal(t, 150.0, records[0].Amount)
	assert.Equal(t, 525000.0, records[0].USDValue)
	assert.Equal(t, model.TxWithdrawal, records[0].Type)
	assert.Equal(t, ts, records[0].Timestamp)
}

func TestOpenCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte("not,a,valid\nlog"), 0o644))

	l, err := Open(path, filepath.Join(dir, "overflow.csv"), nopMetrics{}, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, l.Len())

	// the corrupt file is replaced with a valid empty store
	require.NoError(t, l.Append(sampleTx("0xccc", time.Now().UTC().Truncate(time.Second))))
	assert.Equal(t, 1, openTestLog(t, dir).Len())
}

func TestRecent(t *testing.T) {
	l := openTestLog(t, t.TempDir())
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	for _, hash := range []string{"0x1", "0x2", "0x3"} {
		require.NoError(t, l.Append(sampleTx(hash, base)))
	}

	recent := l.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "0x2", recent[0].TxHash)
	assert.Equal(t, "0x3", recent[1].TxHash)

	assert.Len(t, l.Recent(0), 3)
	assert.Len(t, l.Recent(10), 3)
}

func TestByAddress(t *testing.T) {
	l := openTestLog(t, t.TempDir())
	base := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	tx1 := sampleTx("0x1", base)
	tx2 := sampleTx("0x2", base)
	tx2.FromAddress = "0xother"
	tx2.ToAddress = "0xfrom"
	tx3 := sampleTx("0x3", base)
	tx3.FromAddress = "0xother"
	tx3.ToAddress = "0xelse"

	for _, tx := range []model.WhaleTransaction{tx1, tx2, tx3} {
		require.NoError(t, l.Append(tx))
	}

	matched := l.ByAddress("0xfrom", 0)
	require.Len(t, matched, 2)
	assert.Equal(t, "0x1", matched[0].TxHash)
	assert.Equal(t, "0x2", matched[1].TxHash)

	limited := l.ByAddress("0xfrom", 1)
	require.Len(t, limited, 1)
	assert.Equal(t, "0x2", limited[0].TxHash)

	assert.Empty(t, l.ByAddress("0xmissing", 0))
}

func TestAppendOverflow(t *testing.T) {
	dir := t.TempDir()
	l := openTestLog(t, dir)

	ts := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	require.NoError(t, l.AppendOverflow(sampleTx("0xov1", ts)))
	require.NoError(t, l.AppendOverflow(sampleTx("0xov2", ts)))

	raw, err := os.ReadFile(filepath.Join(dir, "overflow.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "timestamp,blockchain")
	assert.Contains(t, string(raw), "0xov1")
	assert.Contains(t, string(raw), "0xov2")

	// primary store untouched
	assert.Zero(t, l.Len())
}
