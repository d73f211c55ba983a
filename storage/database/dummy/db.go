package dummydb

import (
	"sync"

	"github.com/trezcool/graderly/core/answer"
	"github.com/trezcool/graderly/core/question"
	"github.com/trezcool/graderly/core/user"
)

type (
	// DB is a process-local store, used in tests & with `database.engine=memory`.
	DB struct {
		user     *userTable
		question *questionTable
		answer   *answerTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	questionTable struct {
		sync.RWMutex
		table map[string]*question.Question
	}

	answerTable struct {
		sync.RWMutex
		table map[string]*answer.Answer
	}
)

func Open() *DB {
	return &DB{
		user:     &userTable{table: make(map[string]*user.User)},
		question: &questionTable{table: make(map[string]*question.Question)},
		answer:   &answerTable{table: make(map[string]*answer.Answer)},
	}
}
