package model

// Question is one multiple-choice item of an offering's assessment.
// CorrectOption is server-side only: it must never appear in any JSON
// returned to a client, which is why this struct carries no json tags and
// handlers expose a separate view type without the answer key.
type Question struct {
	ID            uint64   // questions.id
	OfferingID    string   // questions.offering_id
	Position      uint32   // questions.position, 0-based order within the exam
	Prompt        string   // questions.prompt
	Options       []string // questions.options (JSON column)
	CorrectOption int      // questions.correct_option, index into Options
}
