package answer

import "context"

type (
	GradeRequest struct {
		Question        string `json:"question"`
		ReferenceAnswer string `json:"reference_answer"`
		StudentAnswer   string `json:"student_answer"`
	}

	Grade struct {
		Score    float64 `json:"score"`
		Category string  `json:"category"`
	}

	// Oracle grades a student answer against the reference answer.
	// Implementations make a single, time-bounded attempt.
	Oracle interface {
		Grade(ctx context.Context, req GradeRequest) (Grade, error)
	}
)
