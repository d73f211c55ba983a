package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/graderly/apps/api/echo"
	"github.com/trezcool/graderly/core"
	"github.com/trezcool/graderly/core/answer"
	"github.com/trezcool/graderly/core/question"
	"github.com/trezcool/graderly/core/user"
	emailsvc "github.com/trezcool/graderly/services/email"
	gradingsvc "github.com/trezcool/graderly/services/grading"
	logsvc "github.com/trezcool/graderly/services/logger"
	"github.com/trezcool/graderly/storage"
)

// Grading backends
const (
	gradingBackendHTTP       = "http"
	gradingBackendSimilarity = "similarity"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newStores(conf *core.Config, loggerParam DBLoggerParam) *storage.Stores {
	stores, err := storage.Open(conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up %s database: %v", conf.Database.Engine, err), err)
	}
	return stores
}

type repositories struct {
	dig.Out
	Users     user.Repository
	Questions question.Repository
	Answers   answer.Repository
}

func newRepositories(stores *storage.Stores) repositories {
	return repositories{
		Users:     stores.Users,
		Questions: stores.Questions,
		Answers:   stores.Answers,
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newOracle(conf *core.Config) (answer.Oracle, error) {
	switch conf.Grading.Backend {
	case gradingBackendHTTP:
		return gradingsvc.NewHTTPOracle(conf), nil
	case gradingBackendSimilarity:
		return gradingsvc.NewSimilarityOracle(), nil
	default:
		return nil, errors.Errorf("unknown grading backend %q", conf.Grading.Backend)
	}
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	auth *user.Authenticator,
	usrSvc *user.Service,
	questionSvc *question.Service,
	answerSvc *answer.Service,
) *echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Address:        conf.Server.Host,
		Debug:          conf.Debug,
		TestMode:       conf.TestMode,
		DisableReqLogs: conf.Server.DisableReqLogs,
		Logger:         logger,
		Auth:           auth,
		UserSvc:        usrSvc,
		QuestionSvc:    questionSvc,
		AnswerSvc:      answerSvc,
	})
}

// newContainer returns the dependency injection dig.Container of the API.
func newContainer() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStores))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(newOracle))
	must(c.Provide(core.NewValidator))
	must(c.Provide(user.NewAuthenticator))
	must(c.Provide(user.NewService))
	must(c.Provide(question.NewService))
	must(c.Provide(answer.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
