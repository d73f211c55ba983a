package boltdb

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/trezcool/graderly/core/question"
)

type questionRepository struct {
	db *bbolt.DB
}

var _ question.Repository = (*questionRepository)(nil) // interface compliance check

func NewQuestionRepository(db *bbolt.DB) question.Repository {
	return &questionRepository{db: db}
}

func (repo *questionRepository) CreateQuestion(_ context.Context, q question.Question) (question.Question, error) {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	err := repo.db.Update(func(tx *bbolt.Tx) error {
		return put(tx.Bucket(questionsBucket), q.ID, q)
	})
	return q, errors.Wrap(err, "storing question")
}

func (repo *questionRepository) GetQuestion(_ context.Context, id string) (question.Question, error) {
	var q question.Question
	err := repo.db.View(func(tx *bbolt.Tx) error {
		return get(tx.Bucket(questionsBucket), id, &q, question.ErrNotFound)
	})
	if err != nil {
		if err == question.ErrNotFound {
			return question.Question{}, err
		}
		return question.Question{}, errors.Wrap(err, "reading question")
	}
	return q, nil
}

func (repo *questionRepository) QueryQuestions(_ context.Context) ([]question.Question, error) {
	questions := make([]question.Question, 0)
	err := repo.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(questionsBucket).ForEach(func(_, v []byte) error {
			var q question.Question
			if err := json.Unmarshal(v, &q); err != nil {
				return err
			}
			questions = append(questions, q)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading questions")
	}
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].CreatedAt.After(questions[j].CreatedAt) })
	return questions, nil
}

func (repo *questionRepository) GetQuestionsByID(_ context.Context, ids ...string) ([]question.Question, error) {
	questions := make([]question.Question, 0, len(ids))
	err := repo.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(questionsBucket)
		for _, id := range ids {
			var q question.Question
			if err := get(b, id, &q, question.ErrNotFound); err != nil {
				if err == question.ErrNotFound {
					continue
				}
				return err
			}
			questions = append(questions, q)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading questions")
	}
	return questions, nil
}
