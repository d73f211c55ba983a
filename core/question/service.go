package question

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/graderly/core"
	"github.com/trezcool/graderly/core/user"
)

var ErrNotFound = core.NewNotFoundError("question")

type (
	Repository interface {
		CreateQuestion(ctx context.Context, q Question) (Question, error)
		GetQuestion(ctx context.Context, id string) (Question, error)
		// QueryQuestions returns all questions, newest first.
		QueryQuestions(ctx context.Context) ([]Question, error)
		// GetQuestionsByID skips unknown ids.
		GetQuestionsByID(ctx context.Context, ids ...string) ([]Question, error)
	}

	Service struct {
		repo      Repository
		validator *core.Validator
	}
)

func NewService(repo Repository, validator *core.Validator) *Service {
	return &Service{repo: repo, validator: validator}
}

// Create persists a Question owned by caller, who must be a teacher.
func (svc *Service) Create(ctx context.Context, caller user.Principal, nq NewQuestion) (Question, error) {
	if !caller.IsTeacher() {
		return Question{}, core.ErrForbidden
	}
	if err := nq.Validate(svc.validator); err != nil {
		return Question{}, err
	}

	q, err := svc.repo.CreateQuestion(ctx, Question{
		Text:            nq.Text,
		ReferenceAnswer: nq.ReferenceAnswer,
		CreatedBy:       caller.ID,
		CreatedAt:       time.Now().UTC(),
	})
	return q, errors.Wrap(err, "creating question")
}

func (svc *Service) QueryAll(ctx context.Context) ([]Question, error) {
	return svc.repo.QueryQuestions(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Question, error) {
	return svc.repo.GetQuestion(ctx, id)
}
