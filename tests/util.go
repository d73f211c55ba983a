package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"net/mail"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/graderly/core"
	"github.com/trezcool/graderly/core/answer"
	"github.com/trezcool/graderly/core/question"
	"github.com/trezcool/graderly/core/user"
	logsvc "github.com/trezcool/graderly/services/logger"
)

// NewConfig returns a TEST configuration that does not depend on the environment.
func NewConfig() *core.Config {
	return &core.Config{
		TestMode:         true,
		Env:              core.EnvTest,
		Build:            "test",
		AppName:          "Graderly",
		SecretKey:        "test-secret-key",
		DefaultFromEmail: mail.Address{Name: "Graderly", Address: "noreply@test.cd"},
		Server: core.ServerConfig{
			JWTExpirationDelta: 7 * 24 * time.Hour,
			DisableReqLogs:     true,
		},
		Database: core.DatabaseConfig{Engine: "memory"},
		Grading: core.GradingConfig{
			Backend:           "similarity",
			Timeout:           time.Second,
			RestrictOverrides: true,
		},
		Security: core.SecurityConfig{BcryptCost: bcrypt.MinCost},
	}
}

// NewLogger returns a logger that neither prints nor reports.
func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	logger.Enable(false)
	return logger
}

func CreateUser(t *testing.T, repo user.Repository, name, email, pwd, role string, createdAt ...time.Time) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd, bcrypt.MinCost); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateQuestion(t *testing.T, repo question.Repository, author user.User, text, ref string, createdAt ...time.Time) question.Question {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	q, err := repo.CreateQuestion(context.Background(), question.Question{
		Text:            text,
		ReferenceAnswer: ref,
		CreatedBy:       author.ID,
		CreatedAt:       tstamp,
	})
	if err != nil {
		t.Fatalf("CreateQuestion() failed: %v", err)
	}
	return q
}

func CreateAnswer(
	t *testing.T,
	repo answer.Repository,
	student user.User,
	q question.Question,
	text string,
	score float64,
	category string,
	createdAt ...time.Time,
) answer.Answer {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	ans, err := repo.CreateAnswer(context.Background(), answer.Answer{
		QuestionID: q.ID,
		StudentID:  student.ID,
		Text:       text,
		Score:      &score,
		Category:   &category,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	})
	if err != nil {
		t.Fatalf("CreateAnswer() failed: %v", err)
	}
	return ans
}

// OracleMock is an answer.Oracle returning Result, or Err when set.
type OracleMock struct {
	mu     sync.Mutex
	Result answer.Grade
	Err    error
	calls  []answer.GradeRequest
}

var _ answer.Oracle = (*OracleMock)(nil)

func NewOracleMock(score float64, category string) *OracleMock {
	return &OracleMock{Result: answer.Grade{Score: score, Category: category}}
}

// Set replaces the next responses.
func (o *OracleMock) Set(grade answer.Grade, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Result = grade
	o.Err = err
}

func (o *OracleMock) Calls() []answer.GradeRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	calls := make([]answer.GradeRequest, len(o.calls))
	copy(calls, o.calls)
	return calls
}

func (o *OracleMock) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = o.calls[:0]
}

func (o *OracleMock) Grade(_ context.Context, req answer.GradeRequest) (answer.Grade, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, req)
	if o.Err != nil {
		return answer.Grade{}, o.Err
	}
	return o.Result, nil
}
