package chain

import (
	"fmt"

	"github.com/estimatebot/whaletracker-backend/internal/model"
)

// FetchError marks a transient network/API failure. The polling loop retries
// with backoff; it is never fatal.
type FetchError struct {
	Chain model.Chain
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Chain, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError marks a malformed upstream payload. The affected record is
// skipped and logged; processing continues.
type ParseError struct {
	Chain  model.Chain
	TxHash string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s tx %s: %v", e.Chain, e.TxHash, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
