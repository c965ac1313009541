package model

import "time"

// Offering is a purchasable internship or course assessment slot. The
// catalog is read-only from the API's point of view; rows are seeded out of
// band.
//
// Fields:
//  ID          – external string identifier used in URLs ("7", "ml-intern").
//  Title       – display title.
//  Category    – coarse grouping (e.g. "internship", "course").
//  Description – short marketing copy.
//  PricePaise  – enrollment price in paise.
//  IsActive    – whether the offering is currently purchasable.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Offering struct {
	ID          string    // offerings.id
	Title       string    // offerings.title
	Category    string    // offerings.category
	Description string    // offerings.description
	PricePaise  int64     // offerings.price_paise
	IsActive    bool      // offerings.is_active
	CreatedAt   time.Time // offerings.created_at
	UpdatedAt   time.Time // offerings.updated_at
}
