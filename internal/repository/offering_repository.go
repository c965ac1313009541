package repository

import (
	"context"
	"database/sql"

	"github.com/interna-ai/assessment-service/internal/model"
)

// OfferingRepo reads the offering catalog. The API never writes offerings;
// seeding happens out of band, so this repo is query-only.
type OfferingRepo struct{ DB *sql.DB }

func NewOfferingRepo(db *sql.DB) *OfferingRepo { return &OfferingRepo{DB: db} }

const offeringCols = "id, title, category, description, price_paise, is_active, created_at, updated_at"

// GetByID returns one offering or ErrOfferingNotFound.
func (r *OfferingRepo) GetByID(ctx context.Context, id string) (model.Offering, error) {
	var o model.Offering
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+offeringCols+" FROM offerings WHERE id=? LIMIT 1",
		id).Scan(&o.ID, &o.Title, &o.Category, &o.Description, &o.PricePaise, &o.IsActive, &o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Offering{}, ErrOfferingNotFound
	}
	if err != nil {
		return model.Offering{}, err
	}
	return o, nil
}

// List returns active offerings, optionally filtered by category.
func (r *OfferingRepo) List(ctx context.Context, category string) ([]model.Offering, error) {
	q := "SELECT " + offeringCols + " FROM offerings WHERE is_active=1"
	args := []interface{}{}
	if category != "" {
		q += " AND category=?"
		args = append(args, category)
	}
	q += " ORDER BY title"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Offering, 0)
	for rows.Next() {
		var o model.Offering
		if err := rows.Scan(&o.ID, &o.Title, &o.Category, &o.Description, &o.PricePaise, &o.IsActive, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
