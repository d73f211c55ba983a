package answer_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/graderly/core"
	"github.com/trezcool/graderly/core/answer"
	"github.com/trezcool/graderly/core/question"
	"github.com/trezcool/graderly/core/user"
	emailsvc "github.com/trezcool/graderly/services/email"
	dummydb "github.com/trezcool/graderly/storage/database/dummy"
	"github.com/trezcool/graderly/tests"
)

type fixture struct {
	svc      *answer.Service
	oracle   *testutil.OracleMock
	usrRepo  user.Repository
	qRepo    question.Repository
	ansRepo  answer.Repository
	teacher  user.User
	student  user.User
	question question.Question
}

func setup(t *testing.T, restrictOverrides bool) *fixture {
	t.Helper()
	conf := testutil.NewConfig()
	conf.Grading.RestrictOverrides = restrictOverrides
	logger := testutil.NewLogger(conf)

	db := dummydb.Open()
	f := &fixture{
		oracle:  testutil.NewOracleMock(0.6, answer.CategoryPartiallyCorrect),
		usrRepo: dummydb.NewUserRepository(db),
		qRepo:   dummydb.NewQuestionRepository(db),
		ansRepo: dummydb.NewAnswerRepository(db),
	}
	f.svc = answer.NewService(
		f.ansRepo, f.qRepo, f.usrRepo, f.oracle,
		core.NewValidator(), emailsvc.NewConsoleServiceMock(conf, logger), logger, conf,
	)

	f.teacher = testutil.CreateUser(t, f.usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher)
	f.student = testutil.CreateUser(t, f.usrRepo, "Student", "student@test.cd", "", user.RoleStudent)
	f.question = testutil.CreateQuestion(t, f.qRepo, f.teacher, "Explain photosynthesis.", "Plants turn light into chemical energy.")
	emailsvc.ResetSentMessages()
	return f
}

func fPtr(f float64) *float64 { return &f }
func sPtr(s string) *string   { return &s }

func (f *fixture) ownAnswers(t *testing.T, usr user.User) []answer.Detail {
	t.Helper()
	details, err := f.svc.QueryOwn(context.Background(), usr.Principal())
	require.NoError(t, err)
	return details
}

func TestService_Submit_oracle(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()

	ans, err := f.svc.Submit(ctx, f.student.Principal(), answer.NewAnswer{
		QuestionID: f.question.ID,
		Text:       " Light becomes sugar. ",
	})
	require.NoError(t, err)

	assert.Equal(t, []answer.GradeRequest{{
		Question:        "Explain photosynthesis.",
		ReferenceAnswer: "Plants turn light into chemical energy.",
		StudentAnswer:   "Light becomes sugar.",
	}}, f.oracle.Calls())

	assert.NotEmpty(t, ans.ID)
	assert.Equal(t, f.question.ID, ans.QuestionID)
	assert.Equal(t, f.student.ID, ans.StudentID)
	assert.Equal(t, "Light becomes sugar.", ans.Text)
	assert.Equal(t, fPtr(0.6), ans.Score)
	assert.Equal(t, sPtr(answer.CategoryPartiallyCorrect), ans.Category)
	assert.Nil(t, ans.Feedback)
	assert.False(t, ans.CreatedAt.IsZero())

	stored, err := f.ansRepo.GetAnswer(ctx, ans.ID)
	require.NoError(t, err)
	assert.Equal(t, ans, stored)
}

func TestService_Submit_oracleFeedbackOnlyOverride(t *testing.T) {
	f := setup(t, true)

	// feedback alone does not replace the oracle's verdict, students may send it
	ans, err := f.svc.Submit(context.Background(), f.student.Principal(), answer.NewAnswer{
		QuestionID: f.question.ID,
		Text:       "Light becomes sugar.",
		Override:   &answer.Override{Feedback: sPtr("please review")},
	})
	require.NoError(t, err)
	assert.Len(t, f.oracle.Calls(), 1)
	assert.Equal(t, fPtr(0.6), ans.Score)
	assert.Equal(t, sPtr("please review"), ans.Feedback)
}

func TestService_Submit_oracleFailures(t *testing.T) {
	tests := []struct {
		name  string
		grade answer.Grade
		err   error
	}{
		{name: "unreachable", err: errors.New("dial tcp: connection refused")},
		{name: "timeout", err: context.DeadlineExceeded},
		{name: "dependency error", err: core.NewDependencyError("grading service", errors.New("status 500"))},
		{name: "score above range", grade: answer.Grade{Score: 1.5, Category: answer.CategoryCorrect}},
		{name: "negative score", grade: answer.Grade{Score: -0.1, Category: answer.CategoryIncorrect}},
		{name: "missing category", grade: answer.Grade{Score: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, true)
			f.oracle.Set(tt.grade, tt.err)

			_, err := f.svc.Submit(context.Background(), f.student.Principal(), answer.NewAnswer{
				QuestionID: f.question.ID,
				Text:       "Light becomes sugar.",
			})
			require.Error(t, err)
			assert.True(t, core.IsDependencyError(err), "want a dependency error, got %v", err)
			assert.Len(t, f.oracle.Calls(), 1, "the oracle is called exactly once")
			assert.Empty(t, f.ownAnswers(t, f.student), "no answer is recorded")
		})
	}
}

func TestService_Submit_override(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()

	ans, err := f.svc.Submit(ctx, f.teacher.Principal(), answer.NewAnswer{
		QuestionID: f.question.ID,
		Text:       "Light becomes sugar.",
		Override: &answer.Override{
			Score:    fPtr(0.9),
			Category: sPtr(answer.CategoryCorrect),
			Feedback: sPtr("good"),
		},
	})
	require.NoError(t, err)
	assert.Empty(t, f.oracle.Calls(), "the oracle is never called on the override path")
	assert.Equal(t, f.teacher.ID, ans.StudentID)
	assert.Equal(t, fPtr(0.9), ans.Score)
	assert.Equal(t, sPtr(answer.CategoryCorrect), ans.Category)
	assert.Equal(t, sPtr("good"), ans.Feedback)

	// category only
	ans, err = f.svc.Submit(ctx, f.teacher.Principal(), answer.NewAnswer{
		QuestionID: f.question.ID,
		Text:       "Light becomes sugar.",
		Override:   &answer.Override{Category: sPtr("Needs Review")},
	})
	require.NoError(t, err)
	assert.Empty(t, f.oracle.Calls())
	assert.Nil(t, ans.Score)
	assert.Equal(t, sPtr("Needs Review"), ans.Category)
}

func TestService_Submit_overrideRestriction(t *testing.T) {
	ov := &answer.Override{Score: fPtr(1), Category: sPtr(answer.CategoryCorrect)}

	t.Run("restricted", func(t *testing.T) {
		f := setup(t, true)
		assert.True(t, f.svc.RestrictsOverrides())

		_, err := f.svc.Submit(context.Background(), f.student.Principal(), answer.NewAnswer{
			QuestionID: f.question.ID, Text: "x", Override: ov,
		})
		assert.Equal(t, core.ErrForbidden, err)
		assert.Empty(t, f.oracle.Calls())
		assert.Empty(t, f.ownAnswers(t, f.student))
	})

	t.Run("unrestricted", func(t *testing.T) {
		f := setup(t, false)
		assert.False(t, f.svc.RestrictsOverrides())

		ans, err := f.svc.Submit(context.Background(), f.student.Principal(), answer.NewAnswer{
			QuestionID: f.question.ID, Text: "x", Override: ov,
		})
		require.NoError(t, err)
		assert.Empty(t, f.oracle.Calls())
		assert.Equal(t, fPtr(1), ans.Score)
	})
}

func TestService_Submit_invalid(t *testing.T) {
	f := setup(t, true)

	tests := []struct {
		name    string
		caller  user.User
		data    answer.NewAnswer
		wantErr error
		wantFld map[string]string
	}{
		{
			name: "required fields", caller: f.student,
			wantFld: map[string]string{"question_id": "this field is required", "text": "this field is required"},
		},
		{
			name: "blank text", caller: f.student, data: answer.NewAnswer{QuestionID: f.question.ID, Text: "  "},
			wantFld: map[string]string{"text": "this field is required"},
		},
		{
			name: "override score out of range", caller: f.teacher,
			data:    answer.NewAnswer{QuestionID: f.question.ID, Text: "x", Override: &answer.Override{Score: fPtr(2)}},
			wantFld: map[string]string{"score": "score must be between 0 and 1"},
		},
		{
			name: "unknown question", caller: f.student,
			data: answer.NewAnswer{QuestionID: "lol", Text: "x"}, wantErr: question.ErrNotFound,
		},
		{
			name: "unknown question with override", caller: f.teacher,
			data:    answer.NewAnswer{QuestionID: "lol", Text: "x", Override: &answer.Override{Score: fPtr(1)}},
			wantErr: question.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Submit(context.Background(), tt.caller.Principal(), tt.data)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
			} else {
				vErr, ok := errors.Cause(err).(*core.ValidationError)
				require.True(t, ok, "want *core.ValidationError, got %v", err)
				flds := make(map[string]string, len(vErr.Fields))
				for _, fld := range vErr.Fields {
					flds[fld.Field] = fld.Error
				}
				assert.Equal(t, tt.wantFld, flds)
			}
			assert.Empty(t, f.oracle.Calls())
		})
	}
}

func TestService_QueryOwn(t *testing.T) {
	f := setup(t, true)
	other := testutil.CreateUser(t, f.usrRepo, "Other", "other@test.cd", "", user.RoleStudent)
	q2 := testutil.CreateQuestion(t, f.qRepo, f.teacher, "2+2?", "4")

	now := time.Now()
	a1 := testutil.CreateAnswer(t, f.ansRepo, f.student, f.question, "first", 0.2, answer.CategoryIncorrect, now.Add(-2*time.Hour))
	a2 := testutil.CreateAnswer(t, f.ansRepo, f.student, q2, "4", 1, answer.CategoryCorrect, now.Add(-time.Hour))
	testutil.CreateAnswer(t, f.ansRepo, other, q2, "5", 0, answer.CategoryIncorrect, now)

	details := f.ownAnswers(t, f.student)
	require.Len(t, details, 2)
	assert.Equal(t, a2, details[0].Answer)
	assert.Equal(t, &q2, details[0].Question)
	assert.Equal(t, a1, details[1].Answer)
	assert.Equal(t, &f.question, details[1].Question)

	assert.Empty(t, f.ownAnswers(t, f.teacher))

	_, err := f.svc.QueryOwn(context.Background(), user.Principal{Role: user.RoleStudent})
	assert.Equal(t, core.ErrForbidden, err)
}

func TestService_Override(t *testing.T) {
	f := setup(t, true)
	ctx := context.Background()

	created := testutil.CreateAnswer(t, f.ansRepo, f.student, f.question, "Light becomes sugar.", 0.6, answer.CategoryPartiallyCorrect)

	_, err := f.svc.Override(ctx, f.student.Principal(), created.ID, answer.Override{Score: fPtr(1)})
	assert.Equal(t, core.ErrForbidden, err)

	_, err = f.svc.Override(ctx, f.teacher.Principal(), "lol", answer.Override{Score: fPtr(1)})
	assert.Equal(t, answer.ErrNotFound, err)

	_, err = f.svc.Override(ctx, f.teacher.Principal(), created.ID, answer.Override{Score: fPtr(-1)})
	assert.IsType(t, &core.ValidationError{}, errors.Cause(err))

	for _, ov := range []answer.Override{{}, {Category: sPtr(" "), Feedback: sPtr("")}} {
		_, err = f.svc.Override(ctx, f.teacher.Principal(), created.ID, ov)
		require.IsType(t, &core.ValidationError{}, errors.Cause(err))
		assert.Equal(t, answer.ErrEmptyOverride.Error(), err.Error())
	}
	unchanged, err := f.ansRepo.GetAnswer(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, unchanged)

	assert.Empty(t, emailsvc.GetSentMessages())

	ans, err := f.svc.Override(ctx, f.teacher.Principal(), created.ID, answer.Override{
		Score:    fPtr(0.8),
		Feedback: sPtr(" close enough "),
	})
	require.NoError(t, err)
	assert.Equal(t, fPtr(0.8), ans.Score)
	assert.Equal(t, sPtr(answer.CategoryPartiallyCorrect), ans.Category, "unsupplied fields are kept")
	assert.Equal(t, sPtr("close enough"), ans.Feedback)
	assert.True(t, ans.UpdatedAt.After(created.UpdatedAt) || ans.UpdatedAt.Equal(created.UpdatedAt))

	stored, err := f.ansRepo.GetAnswer(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, ans, stored)

	msgs := emailsvc.GetSentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, f.student.Email, msgs[0].To[0].Address)
	assert.Contains(t, msgs[0].TextContent, "Score: 0.80")
	assert.Contains(t, msgs[0].TextContent, "Feedback: close enough")
}
