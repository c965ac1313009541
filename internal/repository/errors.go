// Package repository defines error values shared across repositories.
// Sentinels let handlers map failure scenarios to HTTP responses without
// inspecting driver-specific errors.
package repository

import "errors"

// ErrOrderNotFound is returned when no order exists for a gateway order id.
// Webhook handling treats this as a persistence-level failure so the
// gateway retries once the order row lands.
var ErrOrderNotFound = errors.New("order not found")

// ErrOfferingNotFound is returned when an offering id has no catalog row.
var ErrOfferingNotFound = errors.New("offering not found")
