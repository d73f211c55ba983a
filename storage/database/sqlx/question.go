package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/graderly/core"
	"github.com/trezcool/graderly/core/question"
)

const questionColumns = "id, text, reference_answer, created_by, created_at"

type questionRow struct {
	ID              string    `db:"id"`
	Text            string    `db:"text"`
	ReferenceAnswer string    `db:"reference_answer"`
	CreatedBy       string    `db:"created_by"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r questionRow) question() question.Question {
	return question.Question{
		ID:              r.ID,
		Text:            r.Text,
		ReferenceAnswer: r.ReferenceAnswer,
		CreatedBy:       r.CreatedBy,
		CreatedAt:       r.CreatedAt.UTC(),
	}
}

func questionsFromRows(rows []questionRow) []question.Question {
	questions := make([]question.Question, 0, len(rows))
	for _, r := range rows {
		questions = append(questions, r.question())
	}
	return questions
}

type questionRepository struct {
	db sqlx.ExtContext
}

var _ question.Repository = (*questionRepository)(nil) // interface compliance check

func NewQuestionRepository(db sqlx.ExtContext) question.Repository {
	return &questionRepository{db: db}
}

func (repo *questionRepository) CreateQuestion(ctx context.Context, q question.Question) (question.Question, error) {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	_, err := repo.db.ExecContext(
		ctx,
		`INSERT INTO questions (`+questionColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		q.ID, q.Text, q.ReferenceAnswer, q.CreatedBy, q.CreatedAt.UTC(),
	)
	if err != nil {
		return question.Question{}, errors.Wrap(err, "inserting question")
	}
	return q, nil
}

func (repo *questionRepository) GetQuestion(ctx context.Context, id string) (question.Question, error) {
	if _, err := uuid.Parse(id); err != nil {
		return question.Question{}, question.ErrNotFound
	}
	var row questionRow
	err := sqlx.GetContext(ctx, repo.db, &row, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id)
	if err != nil {
		if err = trapNoRowsErr(err, question.ErrNotFound); err == question.ErrNotFound {
			return question.Question{}, err
		}
		return question.Question{}, errors.Wrap(err, "selecting question")
	}
	return row.question(), nil
}

func (repo *questionRepository) QueryQuestions(ctx context.Context) ([]question.Question, error) {
	var rows []questionRow
	err := sqlx.SelectContext(ctx, repo.db, &rows, `SELECT `+questionColumns+` FROM questions ORDER BY `+core.NewestFirst.String())
	if err != nil {
		return nil, errors.Wrap(err, "selecting questions")
	}
	return questionsFromRows(rows), nil
}

func (repo *questionRepository) GetQuestionsByID(ctx context.Context, ids ...string) ([]question.Question, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []question.Question{}, nil
	}

	var rows []questionRow
	err := sqlx.SelectContext(
		ctx, repo.db, &rows,
		`SELECT `+questionColumns+` FROM questions WHERE id = ANY($1::uuid[])`,
		pq.Array(valid),
	)
	if err != nil {
		return nil, errors.Wrap(err, "selecting questions by id")
	}
	return questionsFromRows(rows), nil
}
