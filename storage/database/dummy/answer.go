package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/graderly/core/answer"
)

type answerRepository struct {
	db *answerTable
}

var _ answer.Repository = (*answerRepository)(nil) // interface compliance check

func NewAnswerRepository(db *DB) answer.Repository {
	return &answerRepository{db: db.answer}
}

func (repo *answerRepository) CreateAnswer(_ context.Context, ans answer.Answer) (answer.Answer, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if ans.ID == "" {
		ans.ID = uuid.New().String()
	}
	repo.db.table[ans.ID] = &ans
	return ans, nil
}

func (repo *answerRepository) UpdateAnswer(_ context.Context, ans answer.Answer) (answer.Answer, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[ans.ID]; !ok {
		return answer.Answer{}, answer.ErrNotFound
	}
	repo.db.table[ans.ID] = &ans
	return ans, nil
}

func (repo *answerRepository) GetAnswer(_ context.Context, id string) (answer.Answer, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ans, ok := repo.db.table[id]; ok {
		return *ans, nil
	}
	return answer.Answer{}, answer.ErrNotFound
}

func (repo *answerRepository) QueryAnswers(_ context.Context, filter answer.QueryFilter) ([]answer.Answer, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	answers := make([]answer.Answer, 0)
	for _, ans := range repo.db.table {
		if filter.StudentID != "" && ans.StudentID != filter.StudentID {
			continue
		}
		answers = append(answers, *ans)
	}
	sort.SliceStable(answers, func(i, j int) bool { return answers[i].CreatedAt.After(answers[j].CreatedAt) })
	return answers, nil
}
