package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/interna-ai/assessment-service/internal/model"
)

// QuestionRepo loads the question bank for an offering. Options are stored
// as a JSON array column; the correct option index lives in its own column
// and never travels past the assessment engine.
type QuestionRepo struct{ DB *sql.DB }

func NewQuestionRepo(db *sql.DB) *QuestionRepo { return &QuestionRepo{DB: db} }

// ListByOffering returns the offering's questions in exam order. An empty
// slice means the offering has no assessment configured.
func (r *QuestionRepo) ListByOffering(ctx context.Context, offeringID string) ([]model.Question, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, offering_id, position, prompt, options, correct_option FROM questions WHERE offering_id=? ORDER BY position",
		offeringID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	qs := make([]model.Question, 0)
	for rows.Next() {
		var (
			q       model.Question
			options []byte
		)
		if err := rows.Scan(&q.ID, &q.OfferingID, &q.Position, &q.Prompt, &options, &q.CorrectOption); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, err
		}
		qs = append(qs, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return qs, nil
}
