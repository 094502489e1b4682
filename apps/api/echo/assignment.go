package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nodue/core/assignment"
	"github.com/trezcool/nodue/core/user"
)

type clearanceAPI struct {
	usrSvc user.Service
	svc    assignment.Service
}

func registerClearanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, usrSvc user.Service, svc assignment.Service) {
	api := clearanceAPI{usrSvc: usrSvc, svc: svc}

	sg := g.Group("/students", jwt)
	sg.GET("", api.listStudents, staffMiddleware())
	sg.GET("/:id/tasks", api.studentTasks)
	sg.GET("/:id/stats", api.studentStats)

	g.GET("/tasks/pending", api.pendingRequests, jwt, staffMiddleware())
	g.PATCH("/requests/:id", api.requestCompletion, jwt, roleMiddleware(user.RoleStudent))
	g.PATCH("/approvals/:id", api.approve, jwt, staffMiddleware())
}

func (api *clearanceAPI) listStudents(ctx echo.Context) error {
	students, err := api.usrSvc.Students(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *clearanceAPI) studentTasks(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}

	views, err := api.svc.ListForStudent(ctx.Request().Context(), caller, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *clearanceAPI) studentStats(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}

	stats, err := api.svc.StatsForStudent(ctx.Request().Context(), caller, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *clearanceAPI) pendingRequests(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}

	views, err := api.svc.PendingForOwner(ctx.Request().Context(), caller)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *clearanceAPI) requestCompletion(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}

	var req assignment.CompletionRequest
	if err = ctx.Bind(&req); err != nil {
		return errors.Wrap(err, "binding completion request")
	}
	if err = req.Validate(); err != nil {
		return err
	}

	st, err := api.svc.RequestCompletion(ctx.Request().Context(), caller, ctx.Param("id"), req.ProofImage)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *clearanceAPI) approve(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}

	st, err := api.svc.Approve(ctx.Request().Context(), caller, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}
