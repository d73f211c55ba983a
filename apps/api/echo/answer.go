package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/graderly/core/answer"
	"github.com/trezcool/graderly/core/user"
)

type answerApi struct {
	svc *answer.Service
}

func registerAnswerAPI(g *echo.Group, svc *answer.Service) {
	api := answerApi{svc: svc}

	g.POST("", api.submit)
	g.GET("/mine", api.queryOwn)

	var overrideMw []echo.MiddlewareFunc
	if svc.RestrictsOverrides() {
		overrideMw = append(overrideMw, roleMiddleware(user.RoleTeacher))
	}
	g.PATCH("/:id/override", api.override, overrideMw...)
}

func (api *answerApi) submit(ctx echo.Context) error {
	caller, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var data answer.NewAnswer
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnswer")
	}

	ans, err := api.svc.Submit(ctx.Request().Context(), caller, data)
	if err != nil {
		return errors.Wrap(err, "submitting answer")
	}
	return ctx.JSON(http.StatusCreated, ans)
}

func (api *answerApi) queryOwn(ctx echo.Context) error {
	caller, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	details, err := api.svc.QueryOwn(ctx.Request().Context(), caller)
	if err != nil {
		return errors.Wrap(err, "querying own answers")
	}
	return ctx.JSON(http.StatusOK, details)
}

func (api *answerApi) override(ctx echo.Context) error {
	caller, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var data answer.Override
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Override")
	}

	ans, err := api.svc.Override(ctx.Request().Context(), caller, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "overriding answer")
	}
	return ctx.JSON(http.StatusOK, ans)
}
