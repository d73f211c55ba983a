package answer

import (
	"time"

	"github.com/trezcool/graderly/core"
	"github.com/trezcool/graderly/core/question"
)

// Grading categories returned by the oracle. The set is open.
const (
	CategoryCorrect          = "Correct"
	CategoryPartiallyCorrect = "Partially Correct"
	CategoryIncorrect        = "Incorrect"
)

type Answer struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"question"`
	StudentID  string    `json:"student"`
	Text       string    `json:"text"`
	Score      *float64  `json:"score"` // within [0, 1]
	Category   *string   `json:"category"`
	Feedback   *string   `json:"feedback"`
	CreatedAt  time.Time `json:"created_at"` // UTC
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

// Detail is an Answer joined with its Question.
type Detail struct {
	Answer
	Question *question.Question `json:"question"` // shadows Answer.QuestionID
}

// Override carries teacher-supplied grading values.
type Override struct {
	Score    *float64 `json:"score" validate:"omitempty,score"`
	Category *string  `json:"category"`
	Feedback *string  `json:"feedback"`
}

// Grades reports whether o replaces the oracle's verdict.
func (o *Override) Grades() bool {
	return o != nil && (o.Score != nil || o.Category != nil)
}

func (o *Override) empty() bool {
	return o.Score == nil && o.Category == nil && o.Feedback == nil
}

func (o *Override) clean() {
	o.Category = core.CleanStringPtr(o.Category)
	o.Feedback = core.CleanStringPtr(o.Feedback)
}

func (o *Override) Validate(v *core.Validator) error {
	o.clean()
	return v.Check(o)
}

// apply replaces the fields set on o.
func (o Override) apply(ans *Answer) {
	if o.Score != nil {
		ans.Score = o.Score
	}
	if o.Category != nil {
		ans.Category = o.Category
	}
	if o.Feedback != nil {
		ans.Feedback = o.Feedback
	}
}

type NewAnswer struct {
	QuestionID string    `json:"question_id" validate:"required"`
	Text       string    `json:"text" validate:"required"`
	Override   *Override `json:"override,omitempty"`
}

func (na *NewAnswer) Validate(v *core.Validator) error {
	na.QuestionID = core.CleanString(na.QuestionID)
	na.Text = core.CleanString(na.Text)
	if na.Override != nil {
		na.Override.clean()
	}
	return v.Check(na)
}

type QueryFilter struct {
	StudentID string
}
