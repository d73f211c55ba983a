// Package storage opens the repositories of the configured database engine.
package storage

import (
	"github.com/pkg/errors"

	"github.com/trezcool/graderly/core"
	"github.com/trezcool/graderly/core/answer"
	"github.com/trezcool/graderly/core/question"
	"github.com/trezcool/graderly/core/user"
	"github.com/trezcool/graderly/storage/database"
	boltdb "github.com/trezcool/graderly/storage/database/bolt"
	dummydb "github.com/trezcool/graderly/storage/database/dummy"
	sqlxrepos "github.com/trezcool/graderly/storage/database/sqlx"
)

// Database engines
const (
	EnginePostgres = "postgres"
	EngineBolt     = "bolt"
	EngineMemory   = "memory"
)

type Stores struct {
	Users     user.Repository
	Questions question.Repository
	Answers   answer.Repository

	close func() error
}

func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open sets up conf.Database.Engine and returns its repositories.
// The postgres database is created and migrated when needed.
func Open(conf *core.Config) (*Stores, error) {
	switch conf.Database.Engine {
	case EnginePostgres:
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		xdb := sqlxrepos.NewDB(db)
		return &Stores{
			Users:     sqlxrepos.NewUserRepository(xdb),
			Questions: sqlxrepos.NewQuestionRepository(xdb),
			Answers:   sqlxrepos.NewAnswerRepository(xdb),
			close:     xdb.Close,
		}, nil

	case EngineBolt:
		db, err := boltdb.Open(conf.Database.BoltPath)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Users:     boltdb.NewUserRepository(db),
			Questions: boltdb.NewQuestionRepository(db),
			Answers:   boltdb.NewAnswerRepository(db),
			close:     db.Close,
		}, nil

	case EngineMemory:
		return NewMemoryStores(), nil

	default:
		return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}

// NewMemoryStores returns empty in-memory repositories.
func NewMemoryStores() *Stores {
	db := dummydb.Open()
	return &Stores{
		Users:     dummydb.NewUserRepository(db),
		Questions: dummydb.NewQuestionRepository(db),
		Answers:   dummydb.NewAnswerRepository(db),
	}
}
