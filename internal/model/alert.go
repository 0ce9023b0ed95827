package model

import "time"

// AlertRecord is the ephemeral in-memory record kept for the trailing
// influence window. It is never persisted.
type AlertRecord struct {
	Timestamp   time.Time
	Chain       Chain
	Token       string
	FromAddress string
	ToAddress   string
	Value       float64
	USDValue    float64
	TxHash      string
	FromWhale   bool
	ToWhale     bool
}
