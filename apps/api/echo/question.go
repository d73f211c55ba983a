package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/graderly/core/question"
	"github.com/trezcool/graderly/core/user"
)

type questionApi struct {
	svc *question.Service
}

func registerQuestionAPI(g *echo.Group, svc *question.Service) {
	api := questionApi{svc: svc}

	g.POST("", api.create, roleMiddleware(user.RoleTeacher))
	g.GET("", api.query)
}

func (api *questionApi) create(ctx echo.Context) error {
	caller, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var data question.NewQuestion
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}

	q, err := api.svc.Create(ctx.Request().Context(), caller, data)
	if err != nil {
		return errors.Wrap(err, "creating question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *questionApi) query(ctx echo.Context) error {
	questions, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	return ctx.JSON(http.StatusOK, questions)
}
