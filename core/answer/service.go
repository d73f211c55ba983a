package answer

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/graderly/core"
	"github.com/trezcool/graderly/core/question"
	"github.com/trezcool/graderly/core/user"
)

const oracleService = "grading service"

var (
	ErrNotFound      = core.NewNotFoundError("answer")
	ErrEmptyOverride = errors.New("no grading field supplied")
)

type (
	Repository interface {
		CreateAnswer(ctx context.Context, ans Answer) (Answer, error)
		UpdateAnswer(ctx context.Context, ans Answer) (Answer, error)
		GetAnswer(ctx context.Context, id string) (Answer, error)
		// QueryAnswers returns the answers matching filter, newest first.
		QueryAnswers(ctx context.Context, filter QueryFilter) ([]Answer, error)
	}

	Service struct {
		repo              Repository
		questions         question.Repository
		users             user.Repository
		oracle            Oracle
		validator         *core.Validator
		mailSvc           core.EmailService
		logger            core.Logger
		restrictOverrides bool
	}
)

func NewService(
	repo Repository,
	questions question.Repository,
	users user.Repository,
	oracle Oracle,
	validator *core.Validator,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) *Service {
	return &Service{
		repo:              repo,
		questions:         questions,
		users:             users,
		oracle:            oracle,
		validator:         validator,
		mailSvc:           mailSvc,
		logger:            logger,
		restrictOverrides: conf.Grading.RestrictOverrides,
	}
}

// RestrictsOverrides reports whether overrides are reserved to teachers.
func (svc *Service) RestrictsOverrides() bool {
	return svc.restrictOverrides
}

func (svc *Service) canOverride(caller user.Principal) bool {
	return !svc.restrictOverrides || caller.IsTeacher()
}

// Submit records caller's answer to a question.
// A grading override skips the oracle; otherwise the oracle is called once and
// no Answer is created if it fails.
func (svc *Service) Submit(ctx context.Context, caller user.Principal, na NewAnswer) (Answer, error) {
	if err := na.Validate(svc.validator); err != nil {
		return Answer{}, err
	}
	overridden := na.Override.Grades()
	if overridden && !svc.canOverride(caller) {
		return Answer{}, core.ErrForbidden
	}

	q, err := svc.questions.GetQuestion(ctx, na.QuestionID)
	if err != nil {
		if err == question.ErrNotFound {
			return Answer{}, err
		}
		return Answer{}, errors.Wrap(err, "finding question")
	}

	now := time.Now().UTC()
	ans := Answer{
		QuestionID: q.ID,
		StudentID:  caller.ID,
		Text:       na.Text,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if overridden {
		na.Override.apply(&ans)
	} else {
		grade, err := svc.grade(ctx, q, na.Text)
		if err != nil {
			return Answer{}, err
		}
		ans.Score = &grade.Score
		ans.Category = &grade.Category
		if na.Override != nil {
			ans.Feedback = na.Override.Feedback
		}
	}

	ans, err = svc.repo.CreateAnswer(ctx, ans)
	return ans, errors.Wrap(err, "creating answer")
}

func (svc *Service) grade(ctx context.Context, q question.Question, text string) (Grade, error) {
	grade, err := svc.oracle.Grade(ctx, GradeRequest{
		Question:        q.Text,
		ReferenceAnswer: q.ReferenceAnswer,
		StudentAnswer:   text,
	})
	if err != nil {
		if core.IsDependencyError(err) {
			return Grade{}, err
		}
		return Grade{}, core.NewDependencyError(oracleService, err)
	}
	if math.IsNaN(grade.Score) || grade.Score < 0 || grade.Score > 1 {
		return Grade{}, core.NewDependencyError(oracleService, fmt.Errorf("score %v out of range", grade.Score))
	}
	if grade.Category == "" {
		return Grade{}, core.NewDependencyError(oracleService, errors.New("missing category"))
	}
	return grade, nil
}

// QueryOwn returns caller's answers, newest first, joined with their questions.
func (svc *Service) QueryOwn(ctx context.Context, caller user.Principal) ([]Detail, error) {
	if caller.ID == "" { // an empty filter would match every student
		return nil, core.ErrForbidden
	}
	answers, err := svc.repo.QueryAnswers(ctx, QueryFilter{StudentID: caller.ID})
	if err != nil {
		return nil, errors.Wrap(err, "querying answers")
	}

	ids := make([]string, 0, len(answers))
	seen := make(map[string]bool, len(answers))
	for _, ans := range answers {
		if !seen[ans.QuestionID] {
			seen[ans.QuestionID] = true
			ids = append(ids, ans.QuestionID)
		}
	}
	questions, err := svc.questions.GetQuestionsByID(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "finding questions")
	}
	byID := make(map[string]question.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	details := make([]Detail, 0, len(answers))
	for _, ans := range answers {
		d := Detail{Answer: ans}
		if q, ok := byID[ans.QuestionID]; ok {
			d.Question = &q
		}
		details = append(details, d)
	}
	return details, nil
}

// Override replaces the grading fields set on ov and notifies the student.
func (svc *Service) Override(ctx context.Context, caller user.Principal, id string, ov Override) (Answer, error) {
	if !svc.canOverride(caller) {
		return Answer{}, core.ErrForbidden
	}
	if err := ov.Validate(svc.validator); err != nil {
		return Answer{}, err
	}
	if ov.empty() {
		return Answer{}, core.NewValidationError(ErrEmptyOverride)
	}

	ans, err := svc.repo.GetAnswer(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return Answer{}, err
		}
		return Answer{}, errors.Wrap(err, "finding answer")
	}

	ov.apply(&ans)
	ans.UpdatedAt = time.Now().UTC()
	if ans, err = svc.repo.UpdateAnswer(ctx, ans); err != nil {
		return Answer{}, errors.Wrap(err, "updating answer")
	}

	svc.notifyStudent(ctx, ans)
	return ans, nil
}

// notifyStudent is best effort: failures are logged and never fail the override.
func (svc *Service) notifyStudent(ctx context.Context, ans Answer) {
	if svc.mailSvc == nil {
		return
	}
	student, err := svc.users.GetUser(ctx, ans.StudentID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("grade notification: finding student %s: %v", ans.StudentID, err))
		return
	}
	q, err := svc.questions.GetQuestion(ctx, ans.QuestionID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("grade notification: finding question %s: %v", ans.QuestionID, err))
		return
	}
	svc.mailSvc.SendMessages(newGradeUpdatedMessage(student, q, ans))
}
