package boltdb

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/trezcool/graderly/core/answer"
)

type answerRepository struct {
	db *bbolt.DB
}

var _ answer.Repository = (*answerRepository)(nil) // interface compliance check

func NewAnswerRepository(db *bbolt.DB) answer.Repository {
	return &answerRepository{db: db}
}

func (repo *answerRepository) CreateAnswer(_ context.Context, ans answer.Answer) (answer.Answer, error) {
	if ans.ID == "" {
		ans.ID = uuid.New().String()
	}
	err := repo.db.Update(func(tx *bbolt.Tx) error {
		return put(tx.Bucket(answersBucket), ans.ID, ans)
	})
	return ans, errors.Wrap(err, "storing answer")
}

func (repo *answerRepository) UpdateAnswer(_ context.Context, ans answer.Answer) (answer.Answer, error) {
	err := repo.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(answersBucket)
		if b.Get([]byte(ans.ID)) == nil {
			return answer.ErrNotFound
		}
		return put(b, ans.ID, ans)
	})
	if err != nil {
		if err == answer.ErrNotFound {
			return answer.Answer{}, err
		}
		return answer.Answer{}, errors.Wrap(err, "updating answer")
	}
	return ans, nil
}

func (repo *answerRepository) GetAnswer(_ context.Context, id string) (answer.Answer, error) {
	var ans answer.Answer
	err := repo.db.View(func(tx *bbolt.Tx) error {
		return get(tx.Bucket(answersBucket), id, &ans, answer.ErrNotFound)
	})
	if err != nil {
		if err == answer.ErrNotFound {
			return answer.Answer{}, err
		}
		return answer.Answer{}, errors.Wrap(err, "reading answer")
	}
	return ans, nil
}

func (repo *answerRepository) QueryAnswers(_ context.Context, filter answer.QueryFilter) ([]answer.Answer, error) {
	answers := make([]answer.Answer, 0)
	err := repo.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(answersBucket).ForEach(func(_, v []byte) error {
			var ans answer.Answer
			if err := json.Unmarshal(v, &ans); err != nil {
				return err
			}
			if filter.StudentID == "" || ans.StudentID == filter.StudentID {
				answers = append(answers, ans)
			}
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading answers")
	}
	sort.SliceStable(answers, func(i, j int) bool { return answers[i].CreatedAt.After(answers[j].CreatedAt) })
	return answers, nil
}
