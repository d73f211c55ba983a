package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/graderly/core"
	"github.com/trezcool/graderly/core/user"
	logsvc "github.com/trezcool/graderly/services/logger"
	"github.com/trezcool/graderly/storage"
	"github.com/trezcool/graderly/storage/database"
	sqlxrepos "github.com/trezcool/graderly/storage/database/sqlx"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")

	// set up DB & repos
	var (
		db      *sql.DB
		usrRepo user.Repository
	)
	if conf.Database.Engine == storage.EnginePostgres {
		if err = database.CreateIfNotExist(conf); err != nil {
			logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
		}
		if db, err = database.Open(conf); err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		usrRepo = sqlxrepos.NewUserRepository(sqlxrepos.NewDB(db))
	} else {
		stores, err := storage.Open(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening %s database: %v", conf.Database.Engine, err), err)
		}
		usrRepo = stores.Users
		defer func() { _ = stores.Close() }()
	}
	if db != nil {
		defer func() { _ = db.Close() }()
	}

	// start CLI
	cli := commandLine{
		db:     db,
		usrSvc: user.NewService(usrRepo, user.NewAuthenticator(conf), core.NewValidator(), conf),
	}
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("%s: %s", os.Args[1], describe(err)))
		}
		os.Exit(1)
	}
}

// describe appends field errors to the message of validation and conflict errors.
func describe(err error) string {
	var flds []core.FieldError
	switch e := errors.Cause(err).(type) {
	case *core.ValidationError:
		flds = e.Fields
	case *core.ConflictError:
		flds = e.Fields
	}
	if len(flds) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(flds))
	for _, fld := range flds {
		parts = append(parts, fld.Field+": "+fld.Error)
	}
	return err.Error() + " (" + strings.Join(parts, "; ") + ")"
}
