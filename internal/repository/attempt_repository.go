package repository

import (
	"context"
	"database/sql"

	"github.com/interna-ai/assessment-service/internal/model"
)

// AttemptRepo persists finished assessment attempts. Only terminal
// outcomes are stored; in-flight sessions are memory-only and abandoning
// one leaves no row.
type AttemptRepo struct{ DB *sql.DB }

func NewAttemptRepo(db *sql.DB) *AttemptRepo { return &AttemptRepo{DB: db} }

// Create inserts a finished attempt and fills in its generated ID.
func (r *AttemptRepo) Create(ctx context.Context, a *model.Attempt) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO attempts (user_id, offering_id, score, question_count, percentage, passed, termination_reason, violation_count, started_at, finished_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		a.UserID, a.OfferingID, a.Score, a.QuestionCount, a.Percentage, a.Passed, a.TerminationReason, a.ViolationCount, a.StartedAt, a.FinishedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// ListByUser returns a user's attempts, newest first.
func (r *AttemptRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Attempt, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, offering_id, score, question_count, percentage, passed, termination_reason, violation_count, started_at, finished_at
		 FROM attempts WHERE user_id=? ORDER BY finished_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := make([]model.Attempt, 0)
	for rows.Next() {
		var (
			a   model.Attempt
			uid sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &uid, &a.OfferingID, &a.Score, &a.QuestionCount, &a.Percentage, &a.Passed, &a.TerminationReason, &a.ViolationCount, &a.StartedAt, &a.FinishedAt); err != nil {
			return nil, err
		}
		if uid.Valid {
			u := uint64(uid.Int64)
			a.UserID = &u
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attempts, nil
}
