package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nodue/core/task"
)

type taskAPI struct {
	svc task.Service
}

func registerTaskAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc task.Service) {
	api := taskAPI{svc: svc}

	tg := g.Group("/tasks", jwt, staffMiddleware())
	tg.POST("", api.create)
	tg.GET("", api.listOwned)
}

// create registers a task and fans it out to every current student.
func (api *taskAPI) create(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}

	var nt task.NewTask
	if err = ctx.Bind(&nt); err != nil {
		return errors.Wrap(err, "binding new task")
	}
	if err = nt.Validate(); err != nil {
		return err
	}

	tsk, err := api.svc.Create(ctx.Request().Context(), caller, nt)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, tsk)
}

func (api *taskAPI) listOwned(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}

	tasks, err := api.svc.QueryByOwner(ctx.Request().Context(), caller)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tasks)
}
