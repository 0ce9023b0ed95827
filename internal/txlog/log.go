// Package txlog is the durable append-only record of processed whale
// transactions, backed by a flat CSV file with a fixed column schema.
package txlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/estimatebot/whaletracker-backend/internal/model"
	"go.uber.org/zap"
)

// header is the fixed CSV schema. Changing it is a breaking change for every
// consumer of the log file.
var header = []string{
	"timestamp", "blockchain", "from_address", "to_address", "token",
	"amount", "usd_value", "type", "price_impact", "tx_hash",
}

type (
	// Metrics records log store operations.
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}
)

// Log owns the transaction store. Appends rewrite the whole file, which is
// acceptable at whale-transaction volume; writes are serialized behind one
// lock and reads copy under an RLock so they observe a consistent snapshot.
type Log struct {
	path         string
	overflowPath string
	metrics      Metrics
	logger       *zap.Logger

	mu      sync.RWMutex
	records []model.WhaleTransaction
}

// Open loads the log at path, creating an empty store with the correct schema
// when the file is missing or corrupt. An unwritable directory is the only
// fatal condition.
func Open(path, overflowPath string, metrics Metrics, logger *zap.Logger) (*Log, error) {
	l := &Log{
		path:         path,
		overflowPath: overflowPath,
		metrics:      metrics,
		logger:       logger.Named("txlog"),
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	started := time.Now()
	records, err := l.read()
	if err != nil {
		l.logger.Warn("could not read transaction log, initializing empty",
			zap.String("path", path), zap.Error(err))
		if initErr := l.rewrite(nil); initErr != nil {
			l.metrics.Observe("load", initErr, started)
			return nil, fmt.Errorf("initialize transaction log: %w", initErr)
		}
		records = nil
	}
	l.records = records
	l.metrics.Observe("load", nil, started)
	l.logger.Info("transaction log loaded", zap.Int("records", len(records)))
	return l, nil
}

// Append adds a transaction and persists the store.
func (l *Log) Append(tx model.WhaleTransaction) (err error) {
	started := time.Now()
	defer func() {
		l.metrics.Observe("append", err, started)
	}()

	l.mu.Lock()
	defer l.mu.Unlock()

	next := append(l.records, tx)
	if err = l.rewrite(next); err != nil {
		return fmt.Errorf("persist transaction log: %w", err)
	}
	l.records = next
	return nil
}

// AppendOverflow writes a single record to the secondary overflow log. Used
// when the primary store fails so the record is not lost.
func (l *Log) AppendOverflow(tx model.WhaleTransaction) (err error) {
	started := time.Now()
	defer func() {
		l.metrics.Observe("append_overflow", err, started)
	}()

	_, statErr := os.Stat(l.overflowPath)
	writeHeader := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(l.overflowPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open overflow log: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close overflow log: %w", cerr)
		}
	}()

	w := csv.NewWriter(f)
	if writeHeader {
		if err = w.Write(header); err != nil {
			return fmt.Errorf("write overflow header: %w", err)
		}
	}
	if err = w.Write(toRow(tx)); err != nil {
		return fmt.Errorf("write overflow record: %w", err)
	}
	w.Flush()
	return w.Error()
}

// All returns a copy of every record in insertion order.
func (l *Log) All() []model.WhaleTransaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.WhaleTransaction, len(l.records))
	copy(out, l.records)
	return out
}

// Recent returns the newest records, up to limit, oldest first.
func (l *Log) Recent(limit int) []model.WhaleTransaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if limit <= 0 || limit > len(l.records) {
		limit = len(l.records)
	}
	out := make([]model.WhaleTransaction, limit)
	copy(out, l.records[len(l.records)-limit:])
	return out
}

// ByAddress returns records where the address appears as sender or receiver,
// up to limit, oldest first.
func (l *Log) ByAddress(address string, limit int) []model.WhaleTransaction {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var matched []model.WhaleTransaction
	for _, tx := range l.records {
		if tx.FromAddress == address || tx.ToAddress == address {
			matched = append(matched, tx)
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched
}

// Len returns the number of stored records.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

func (l *Log) read() ([]model.WhaleTransaction, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("log file missing: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("open transaction log: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse transaction log: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("transaction log missing header")
	}
	if len(rows[0]) != len(header) {
		return nil, fmt.Errorf("unexpected schema: %d columns", len(rows[0]))
	}

	records := make([]model.WhaleTransaction, 0, len(rows)-1)
	for i, row := range rows[1:] {
		tx, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		records = append(records, tx)
	}
	return records, nil
}

// rewrite persists the full record set atomically via a temp file.
func (l *Log) rewrite(records []model.WhaleTransaction) error {
	tmp := l.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}

	w := csv.NewWriter(f)
	writeErr := w.Write(header)
	for _, tx := range records {
		if writeErr != nil {
			break
		}
		writeErr = w.Write(toRow(tx))
	}
	w.Flush()
	if writeErr == nil {
		writeErr = w.Error()
	}
	if cerr := f.Close(); cerr != nil && writeErr == nil {
		writeErr = cerr
	}
	if writeErr != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write log records: %w", writeErr)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace transaction log: %w", err)
	}
	return nil
}

func toRow(tx model.WhaleTransaction) []string {
	return []string{
		tx.Timestamp.UTC().Format(time.RFC3339),
		string(tx.Chain),
		tx.FromAddress,
		tx.ToAddress,
		tx.Token,
		strconv.FormatFloat(tx.Amount, 'f', -1, 64),
		strconv.FormatFloat(tx.USDValue, 'f', -1, 64),
		string(tx.Type),
		strconv.FormatFloat(tx.PriceImpactPct, 'f', -1, 64),
		tx.TxHash,
	}
}

func fromRow(row []string) (model.WhaleTransaction, error) {
	if len(row) != len(header) {
		return model.WhaleTransaction{}, fmt.Errorf("expected %d fields, got %d", len(header), len(row))
	}
	ts, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return model.WhaleTransaction{}, fmt.Errorf("timestamp: %w", err)
	}
	amount, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return model.WhaleTransaction{}, fmt.Errorf("amount: %w", err)
	}
	usd, err := strconv.ParseFloat(row[6], 64)
	if err != nil {
		return model.WhaleTransaction{}, fmt.Errorf("usd_value: %w", err)
	}
	impact, err := strconv.ParseFloat(row[8], 64)
	if err != nil {
		return model.WhaleTransaction{}, fmt.Errorf("price_impact: %w", err)
	}
	return model.WhaleTransaction{
		Timestamp:      ts,
		Chain:          model.Chain(row[1]),
		FromAddress:    row[2],
		ToAddress:      row[3],
		Token:          row[4],
		Amount:         amount,
		USDValue:       usd,
		Type:           model.TxType(row[7]),
		PriceImpactPct: impact,
		TxHash:         row[9],
	}, nil
}
