package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/graderly/core"
	"github.com/trezcool/graderly/core/answer"
)

const answerColumns = "id, question_id, student_id, text, score, category, feedback, created_at, updated_at"

type answerRow struct {
	ID         string       `db:"id"`
	QuestionID string       `db:"question_id"`
	StudentID  string       `db:"student_id"`
	Text       string       `db:"text"`
	Score      null.Float64 `db:"score"`
	Category   null.String  `db:"category"`
	Feedback   null.String  `db:"feedback"`
	CreatedAt  time.Time    `db:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at"`
}

func newAnswerRow(ans answer.Answer) answerRow {
	return answerRow{
		ID:         ans.ID,
		QuestionID: ans.QuestionID,
		StudentID:  ans.StudentID,
		Text:       ans.Text,
		Score:      null.Float64FromPtr(ans.Score),
		Category:   null.StringFromPtr(ans.Category),
		Feedback:   null.StringFromPtr(ans.Feedback),
		CreatedAt:  ans.CreatedAt.UTC(),
		UpdatedAt:  ans.UpdatedAt.UTC(),
	}
}

func (r answerRow) answer() answer.Answer {
	return answer.Answer{
		ID:         r.ID,
		QuestionID: r.QuestionID,
		StudentID:  r.StudentID,
		Text:       r.Text,
		Score:      r.Score.Ptr(),
		Category:   r.Category.Ptr(),
		Feedback:   r.Feedback.Ptr(),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

type answerRepository struct {
	db sqlx.ExtContext
}

var _ answer.Repository = (*answerRepository)(nil) // interface compliance check

func NewAnswerRepository(db sqlx.ExtContext) answer.Repository {
	return &answerRepository{db: db}
}

func (repo *answerRepository) CreateAnswer(ctx context.Context, ans answer.Answer) (answer.Answer, error) {
	if ans.ID == "" {
		ans.ID = uuid.New().String()
	}
	row := newAnswerRow(ans)
	_, err := sqlx.NamedExecContext(
		ctx, repo.db,
		`INSERT INTO answers (`+answerColumns+`)
		VALUES (:id, :question_id, :student_id, :text, :score, :category, :feedback, :created_at, :updated_at)`,
		row,
	)
	if err != nil {
		return answer.Answer{}, errors.Wrap(err, "inserting answer")
	}
	return row.answer(), nil
}

func (repo *answerRepository) UpdateAnswer(ctx context.Context, ans answer.Answer) (answer.Answer, error) {
	row := newAnswerRow(ans)
	res, err := sqlx.NamedExecContext(
		ctx, repo.db,
		`UPDATE answers
		SET score = :score, category = :category, feedback = :feedback, updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return answer.Answer{}, errors.Wrap(err, "updating answer")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return answer.Answer{}, answer.ErrNotFound
	}
	return row.answer(), nil
}

func (repo *answerRepository) GetAnswer(ctx context.Context, id string) (answer.Answer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return answer.Answer{}, answer.ErrNotFound
	}
	var row answerRow
	err := sqlx.GetContext(ctx, repo.db, &row, `SELECT `+answerColumns+` FROM answers WHERE id = $1`, id)
	if err != nil {
		if err = trapNoRowsErr(err, answer.ErrNotFound); err == answer.ErrNotFound {
			return answer.Answer{}, err
		}
		return answer.Answer{}, errors.Wrap(err, "selecting answer")
	}
	return row.answer(), nil
}

func (repo *answerRepository) QueryAnswers(ctx context.Context, filter answer.QueryFilter) ([]answer.Answer, error) {
	query := `SELECT ` + answerColumns + ` FROM answers`
	var args []interface{}
	if filter.StudentID != "" {
		if _, err := uuid.Parse(filter.StudentID); err != nil {
			return []answer.Answer{}, nil
		}
		query += ` WHERE student_id = $1`
		args = append(args, filter.StudentID)
	}
	query += ` ORDER BY ` + core.NewestFirst.String()

	var rows []answerRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "selecting answers")
	}
	answers := make([]answer.Answer, 0, len(rows))
	for _, r := range rows {
		answers = append(answers, r.answer())
	}
	return answers, nil
}
