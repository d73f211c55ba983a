package tests

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/graderly/core"
	"github.com/trezcool/graderly/core/answer"
	"github.com/trezcool/graderly/core/user"
	emailsvc "github.com/trezcool/graderly/services/email"
	"github.com/trezcool/graderly/tests"
)

func fPtr(f float64) *float64 { return &f }
func sPtr(s string) *string   { return &s }

func Test_answerApi_submit(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", user.RoleStudent)
	q := testutil.CreateQuestion(t, qRepo, teacher, "Explain photosynthesis.", "Plants turn light into chemical energy.")
	studentToken := getToken(t, student)

	override := &answer.Override{Score: fPtr(0.9), Category: sPtr(answer.CategoryCorrect), Feedback: sPtr("good")}

	tests := []httpTest{
		{name: "auth required", body: marchallObj(t, answer.NewAnswer{QuestionID: q.ID, Text: "x"}), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errUnauthenticated)},
		{
			name: "required fields", token: studentToken, wantCode: http.StatusBadRequest,
			wantData: []byte(`{"question_id": "this field is required", "text": "this field is required"}`),
		},
		{
			name: "unknown question", token: studentToken, wantCode: http.StatusNotFound,
			body: marchallObj(t, answer.NewAnswer{QuestionID: "lol", Text: "x"}), wantData: marchallObj(t, httpErr{Error: "question not found"}),
		},
		{
			name: "student cannot override", token: studentToken, wantCode: http.StatusForbidden,
			body: marchallObj(t, answer.NewAnswer{QuestionID: q.ID, Text: "x", Override: override}), wantData: marchallObj(t, errForbidden),
		},
		{
			name: "override score out of range", token: getToken(t, teacher), wantCode: http.StatusBadRequest,
			body:     marchallObj(t, answer.NewAnswer{QuestionID: q.ID, Text: "x", Override: &answer.Override{Score: fPtr(1.5)}}),
			wantData: []byte(`{"score": "score must be between 0 and 1"}`),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPost
		tests[i].path = "/answers"
	}
	runTests(t, app, tests)
	assert.Empty(t, oracle.Calls())

	t.Run("graded by the oracle", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/answers", studentToken, marchallObj(t, answer.NewAnswer{QuestionID: q.ID, Text: "Light becomes sugar."}))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var ans answer.Answer
		unmarshal(t, rec, &ans)
		assert.NotEmpty(t, ans.ID)
		assert.Equal(t, q.ID, ans.QuestionID)
		assert.Equal(t, student.ID, ans.StudentID)
		assert.Equal(t, fPtr(0.6), ans.Score)
		assert.Equal(t, sPtr(answer.CategoryPartiallyCorrect), ans.Category)
		assert.Nil(t, ans.Feedback)
		require.Len(t, oracle.Calls(), 1)
		assert.Equal(t, "Light becomes sugar.", oracle.Calls()[0].StudentAnswer)
	})

	t.Run("graded by a teacher", func(t *testing.T) {
		oracle.Reset()
		req, rec := newAuthRequest(http.MethodPost, "/answers", getToken(t, teacher), marchallObj(t, answer.NewAnswer{QuestionID: q.ID, Text: "x", Override: override}))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var ans answer.Answer
		unmarshal(t, rec, &ans)
		assert.Equal(t, override.Score, ans.Score)
		assert.Equal(t, override.Category, ans.Category)
		assert.Equal(t, override.Feedback, ans.Feedback)
		assert.Empty(t, oracle.Calls())
	})
}

func Test_answerApi_submit_oracleUnavailable(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", user.RoleStudent)
	q := testutil.CreateQuestion(t, qRepo, teacher, "Explain photosynthesis.", "Plants turn light into chemical energy.")
	oracle.Set(answer.Grade{}, core.NewDependencyError("grading service", errors.New("dial tcp: connection refused")))

	runTests(t, app, []httpTest{
		{
			name: "502", method: http.MethodPost, path: "/answers", token: getToken(t, student),
			body:     marchallObj(t, answer.NewAnswer{QuestionID: q.ID, Text: "Light becomes sugar."}),
			wantCode: http.StatusBadGateway, wantData: marchallObj(t, httpErr{Error: "grading service unavailable"}),
		},
		{
			name: "no record", method: http.MethodGet, path: "/answers/mine", token: getToken(t, student),
			wantData: marchallList(t),
		},
	})
}

func Test_answerApi_queryOwn(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", user.RoleStudent)
	other := testutil.CreateUser(t, usrRepo, "Other", "other@test.cd", "", user.RoleStudent)
	q1 := testutil.CreateQuestion(t, qRepo, teacher, "first", "1")
	q2 := testutil.CreateQuestion(t, qRepo, teacher, "second", "2")

	now := time.Now()
	a1 := testutil.CreateAnswer(t, ansRepo, student, q1, "1", 1, answer.CategoryCorrect, now.Add(-time.Hour))
	a2 := testutil.CreateAnswer(t, ansRepo, student, q2, "3", 0, answer.CategoryIncorrect, now)
	a3 := testutil.CreateAnswer(t, ansRepo, other, q1, "2", 0, answer.CategoryIncorrect, now)

	runTests(t, app, []httpTest{
		{name: "auth required", method: http.MethodGet, path: "/answers/mine", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errUnauthenticated)},
		{
			name: "own answers, newest first", method: http.MethodGet, path: "/answers/mine", token: getToken(t, student),
			wantData: marchallList(t, answer.Detail{Answer: a2, Question: &q2}, answer.Detail{Answer: a1, Question: &q1}),
		},
		{
			name: "other student", method: http.MethodGet, path: "/answers/mine", token: getToken(t, other),
			wantData: marchallList(t, answer.Detail{Answer: a3, Question: &q1}),
		},
		{name: "none", method: http.MethodGet, path: "/answers/mine", token: getToken(t, teacher), wantData: marchallList(t)},
	})
}

func Test_answerApi_override(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", user.RoleStudent)
	q := testutil.CreateQuestion(t, qRepo, teacher, "Explain photosynthesis.", "Plants turn light into chemical energy.")
	ans := testutil.CreateAnswer(t, ansRepo, student, q, "Light becomes sugar.", 0.6, answer.CategoryPartiallyCorrect)
	path := "/answers/" + ans.ID + "/override"
	teacherToken := getToken(t, teacher)
	body := marchallObj(t, answer.Override{Category: sPtr(answer.CategoryCorrect), Feedback: sPtr("fair")})

	tests := []httpTest{
		{name: "auth required", path: path, body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errUnauthenticated)},
		{name: "teacher required", path: path, body: body, token: getToken(t, student), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "unknown answer", path: "/answers/lol/override", body: body, token: teacherToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "answer not found"}),
		},
		{
			name: "score out of range", path: path, body: marchallObj(t, answer.Override{Score: fPtr(-1)}), token: teacherToken,
			wantCode: http.StatusBadRequest, wantData: []byte(`{"score": "score must be between 0 and 1"}`),
		},
		{
			name: "no grading field", path: path, body: []byte(`{}`), token: teacherToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "no grading field supplied"}),
		},
	}
	for i := range tests {
		tests[i].method = http.MethodPatch
	}
	runTests(t, app, tests)
	assert.Empty(t, emailsvc.GetSentMessages())

	t.Run("overridden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, path, teacherToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got answer.Answer
		unmarshal(t, rec, &got)
		assert.Equal(t, ans.ID, got.ID)
		assert.Equal(t, fPtr(0.6), got.Score)
		assert.Equal(t, sPtr(answer.CategoryCorrect), got.Category)
		assert.Equal(t, sPtr("fair"), got.Feedback)

		stored, err := ansRepo.GetAnswer(context.Background(), ans.ID)
		require.NoError(t, err)
		assert.Equal(t, sPtr(answer.CategoryCorrect), stored.Category)

		msgs := emailsvc.GetSentMessages()
		require.Len(t, msgs, 1)
		assert.Equal(t, student.Email, msgs[0].To[0].Address)
	})
}

func Test_answerApi_override_unrestricted(t *testing.T) {
	app := setup(t, func(conf *core.Config) { conf.Grading.RestrictOverrides = false })

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", "", user.RoleTeacher)
	student := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", "", user.RoleStudent)
	q := testutil.CreateQuestion(t, qRepo, teacher, "2+2?", "4")
	ans := testutil.CreateAnswer(t, ansRepo, student, q, "5", 0, answer.CategoryIncorrect)

	req, rec := newAuthRequest(http.MethodPatch, "/answers/"+ans.ID+"/override", getToken(t, student), marchallObj(t, answer.Override{Score: fPtr(1)}))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
