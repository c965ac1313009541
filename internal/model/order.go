package model

import "time"

// Order status values. The lifecycle is strictly monotonic:
// PENDING -> PAID or PENDING -> FAILED, never backwards. The webhook
// handler relies on the repository enforcing this with conditional updates.
const (
	OrderStatusPending = "PENDING"
	OrderStatusPaid    = "PAID"
	OrderStatusFailed  = "FAILED"
)

// Order records one payment attempt against the gateway. The primary key
// for lookups is the gateway-assigned order id (cf_order_id column) because
// webhook events reference only that identifier.
//
// Fields:
//  ID          – internal primary key.
//  CfOrderID   – gateway-assigned order identifier, unique.
//  UserID      – paying principal; nil for guest checkout.
//  OfferingID  – internship/course the payment unlocks.
//  AmountPaise – amount in paise (INR minor units); integers avoid
//                float drift on money.
//  Status      – PENDING, PAID or FAILED.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Order struct {
	ID          uint64    // orders.id
	CfOrderID   string    // orders.cf_order_id
	UserID      *uint64   // orders.user_id (nullable)
	OfferingID  string    // orders.offering_id
	AmountPaise int64     // orders.amount_paise
	Status      string    // orders.status
	CreatedAt   time.Time // orders.created_at
	UpdatedAt   time.Time // orders.updated_at
}
