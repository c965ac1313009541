package repository

import (
	"context"
	"database/sql"

	"github.com/interna-ai/assessment-service/internal/model"
)

// EntitlementRepo stores durable access grants keyed by (user, offering).
// Grant is an idempotent upsert: re-delivered webhooks and the bypass-token
// convergence path may both grant the same pair and the row must end up the
// same regardless of how many times or in which order they fire.
type EntitlementRepo struct{ DB *sql.DB }

func NewEntitlementRepo(db *sql.DB) *EntitlementRepo { return &EntitlementRepo{DB: db} }

// Grant records that userID may access offeringID's assessment. A repeat
// grant refreshes the order reference and clears any revocation, so a
// re-purchase after an administrative revoke restores access.
func (r *EntitlementRepo) Grant(ctx context.Context, userID uint64, offeringID string, cfOrderID *string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO entitlements (user_id, offering_id, cf_order_id, granted_at)
		 VALUES (?,?,?,NOW())
		 ON DUPLICATE KEY UPDATE cf_order_id=VALUES(cf_order_id), revoked_at=NULL`,
		userID, offeringID, cfOrderID)
	return err
}

// Has reports whether an active (non-revoked) grant exists.
func (r *EntitlementRepo) Has(ctx context.Context, userID uint64, offeringID string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM entitlements WHERE user_id=? AND offering_id=? AND revoked_at IS NULL LIMIT 1",
		userID, offeringID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Revoke marks a grant as revoked. Administrative use only; nothing in the
// payment or assessment flow calls this.
func (r *EntitlementRepo) Revoke(ctx context.Context, userID uint64, offeringID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE entitlements SET revoked_at=NOW() WHERE user_id=? AND offering_id=? AND revoked_at IS NULL",
		userID, offeringID)
	return err
}

// ListByUser returns all active grants for a user.
func (r *EntitlementRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Entitlement, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, user_id, offering_id, cf_order_id, granted_at, revoked_at FROM entitlements WHERE user_id=? AND revoked_at IS NULL ORDER BY granted_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ents := make([]model.Entitlement, 0)
	for rows.Next() {
		var (
			e       model.Entitlement
			orderID sql.NullString
			revoked sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.OfferingID, &orderID, &e.GrantedAt, &revoked); err != nil {
			return nil, err
		}
		if orderID.Valid {
			oid := orderID.String
			e.OrderID = &oid
		}
		if revoked.Valid {
			t := revoked.Time
			e.RevokedAt = &t
		}
		ents = append(ents, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ents, nil
}
