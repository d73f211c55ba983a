package gradingsvc

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/graderly/core/answer"
)

const (
	correctThreshold = .75
	partialThreshold = .45
)

// similarityOracle grades locally by comparing the word sequences of the reference and
// student answers. It is meant for offline development, not for real grading.
type similarityOracle struct{}

var _ answer.Oracle = similarityOracle{}

func NewSimilarityOracle() answer.Oracle {
	return similarityOracle{}
}

func (similarityOracle) Grade(ctx context.Context, req answer.GradeRequest) (answer.Grade, error) {
	if err := ctx.Err(); err != nil {
		return answer.Grade{}, err
	}
	ref, given := words(req.ReferenceAnswer), words(req.StudentAnswer)
	if len(ref) == 0 || len(given) == 0 {
		return answer.Grade{Score: 0, Category: answer.CategoryIncorrect}, nil
	}

	score := difflib.NewMatcher(ref, given).Ratio()
	score = math.Max(0, math.Min(1, score))
	score = math.Round(score*10000) / 10000
	return answer.Grade{Score: score, Category: Categorize(score)}, nil
}

// Categorize maps a score within [0, 1] to its grading category.
func Categorize(score float64) string {
	switch {
	case score >= correctThreshold:
		return answer.CategoryCorrect
	case score >= partialThreshold:
		return answer.CategoryPartiallyCorrect
	default:
		return answer.CategoryIncorrect
	}
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
