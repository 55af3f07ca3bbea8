package models

import (
	"encoding/json"
	"strings"
)

const (
	TransactionPending  = "PENDING"
	TransactionApproved = "APPROVED"
	TransactionDeclined = "DECLINED"
)

type Transaction struct {
	ID              int64       `json:"id"`
	TransactionType string      `json:"transaction_type"`
	Amount          json.Number `json:"amount"`
	StartDate       string      `json:"start_date"`
	Status          string      `json:"status"`
}

// AmountLabel keeps the decimal exactly as the backend sent it.
func (t Transaction) AmountLabel() string {
	if t.Amount == "" {
		return "0.00"
	}
	return t.Amount.String()
}

// StatusBadge maps the transaction status to a short marker.
func (t Transaction) StatusBadge() string {
	switch strings.ToUpper(strings.TrimSpace(t.Status)) {
	case TransactionApproved:
		return "✅"
	case TransactionDeclined:
		return "❌"
	case TransactionPending:
		return "⏳"
	default:
		return "•"
	}
}
