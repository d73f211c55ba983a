package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/graderly/core/question"
)

type questionRepository struct {
	db *questionTable
}

var _ question.Repository = (*questionRepository)(nil) // interface compliance check

func NewQuestionRepository(db *DB) question.Repository {
	return &questionRepository{db: db.question}
}

func (repo *questionRepository) CreateQuestion(_ context.Context, q question.Question) (question.Question, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	repo.db.table[q.ID] = &q
	return q, nil
}

func (repo *questionRepository) GetQuestion(_ context.Context, id string) (question.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if q, ok := repo.db.table[id]; ok {
		return *q, nil
	}
	return question.Question{}, question.ErrNotFound
}

func (repo *questionRepository) QueryQuestions(_ context.Context) ([]question.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	questions := make([]question.Question, 0, len(repo.db.table))
	for _, q := range repo.db.table {
		questions = append(questions, *q)
	}
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].CreatedAt.After(questions[j].CreatedAt) })
	return questions, nil
}

func (repo *questionRepository) GetQuestionsByID(_ context.Context, ids ...string) ([]question.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	questions := make([]question.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := repo.db.table[id]; ok {
			questions = append(questions, *q)
		}
	}
	return questions, nil
}
