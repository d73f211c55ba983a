package question

import (
	"time"

	"github.com/trezcool/graderly/core"
)

type Question struct {
	ID              string    `json:"id"`
	Text            string    `json:"text"`
	ReferenceAnswer string    `json:"reference_answer"`
	CreatedBy       string    `json:"created_by"` // User.ID of the teacher
	CreatedAt       time.Time `json:"created_at"` // UTC
}

type NewQuestion struct {
	Text            string `json:"text" validate:"required"`
	ReferenceAnswer string `json:"reference_answer" validate:"required"`
}

func (nq *NewQuestion) Validate(v *core.Validator) error {
	nq.Text = core.CleanString(nq.Text)
	nq.ReferenceAnswer = core.CleanString(nq.ReferenceAnswer)
	return v.Check(nq)
}
