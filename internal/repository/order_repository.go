package repository

import (
	"context"
	"database/sql"

	"github.com/interna-ai/assessment-service/internal/model"
)

// OrderRepo persists payment orders keyed by the gateway-assigned order id.
// Status transitions are enforced in SQL with conditional updates so that
// concurrent or duplicate webhook deliveries cannot double-transition a
// row: an UPDATE guarded by status='PENDING' that matches zero rows is
// either "already done" (idempotent success) or "unknown order" and the two
// are told apart with a follow-up read.
type OrderRepo struct{ DB *sql.DB }

func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{DB: db} }

// Create inserts a PENDING order for a freshly created gateway order.
func (r *OrderRepo) Create(ctx context.Context, cfOrderID string, userID *uint64, offeringID string, amountPaise int64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO orders (cf_order_id, user_id, offering_id, amount_paise, status) VALUES (?,?,?,?,?)",
		cfOrderID, userID, offeringID, amountPaise, model.OrderStatusPending)
	return err
}

// GetByCfOrderID fetches an order by its gateway order id. Returns
// ErrOrderNotFound when no row exists.
func (r *OrderRepo) GetByCfOrderID(ctx context.Context, cfOrderID string) (model.Order, error) {
	var (
		o      model.Order
		userID sql.NullInt64
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, cf_order_id, user_id, offering_id, amount_paise, status, created_at, updated_at FROM orders WHERE cf_order_id=? LIMIT 1",
		cfOrderID).Scan(&o.ID, &o.CfOrderID, &userID, &o.OfferingID, &o.AmountPaise, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	if userID.Valid {
		uid := uint64(userID.Int64)
		o.UserID = &uid
	}
	return o, nil
}

// MarkPaid transitions a PENDING order to PAID and returns the resulting
// order. Applying it to an already PAID order is a no-op success, which
// makes webhook retries harmless. A FAILED order stays FAILED: terminal
// states never reverse.
func (r *OrderRepo) MarkPaid(ctx context.Context, cfOrderID string) (model.Order, error) {
	return r.transition(ctx, cfOrderID, model.OrderStatusPaid)
}

// MarkFailed transitions a PENDING order to FAILED with the same idempotent
// semantics as MarkPaid.
func (r *OrderRepo) MarkFailed(ctx context.Context, cfOrderID string) (model.Order, error) {
	return r.transition(ctx, cfOrderID, model.OrderStatusFailed)
}

func (r *OrderRepo) transition(ctx context.Context, cfOrderID, to string) (model.Order, error) {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE orders SET status=?, updated_at=NOW() WHERE cf_order_id=? AND status=?",
		to, cfOrderID, model.OrderStatusPending)
	if err != nil {
		return model.Order{}, err
	}
	// Zero rows affected means either the order is already terminal or it
	// does not exist; GetByCfOrderID distinguishes the two.
	return r.GetByCfOrderID(ctx, cfOrderID)
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, cf_order_id, user_id, offering_id, amount_paise, status, created_at, updated_at FROM orders WHERE user_id=? ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]model.Order, 0)
	for rows.Next() {
		var (
			o   model.Order
			uid sql.NullInt64
		)
		if err := rows.Scan(&o.ID, &o.CfOrderID, &uid, &o.OfferingID, &o.AmountPaise, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		if uid.Valid {
			u := uint64(uid.Int64)
			o.UserID = &u
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}
