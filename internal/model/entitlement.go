package model

import "time"

// Entitlement is the durable fact "this user may sit this offering's
// assessment". Rows are written by the webhook handler on a verified PAID
// transition, or when a bypass-token start is made durable for a signed-in
// user. There is no automatic revocation; RevokedAt is only ever set by an
// administrative action.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – entitled principal.
//  OfferingID – offering the grant applies to.
//  OrderID    – gateway order that produced the grant, when known.
//  GrantedAt  – when access was first granted.
//  RevokedAt  – administrative revocation timestamp (null when active).
type Entitlement struct {
	ID         uint64     // entitlements.id
	UserID     uint64     // entitlements.user_id
	OfferingID string     // entitlements.offering_id
	OrderID    *string    // entitlements.cf_order_id (nullable)
	GrantedAt  time.Time  // entitlements.granted_at
	RevokedAt  *time.Time // entitlements.revoked_at (nullable)
}
