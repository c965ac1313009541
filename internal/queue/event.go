// Package queue defines message payloads exchanged over the message broker.
package queue

// PaymentCapturedEvent is published when a gateway webhook marks an order
// PAID. It carries enough for downstream consumers to log or reconcile
// without querying the primary database.
type PaymentCapturedEvent struct {
	OrderID     string  `json:"order_id"`
	UserID      *uint64 `json:"user_id,omitempty"`
	OfferingID  string  `json:"offering_id"`
	AmountPaise int64   `json:"amount_paise"`
	Status      string  `json:"status"`
	CapturedAt  string  `json:"captured_at"`
}
