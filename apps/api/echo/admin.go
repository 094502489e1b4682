package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/nodue/core/assignment"
	"github.com/trezcool/nodue/core/user"
)

type adminAPI struct {
	usrSvc user.Service
	svc    assignment.Service
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, usrSvc user.Service, svc assignment.Service) {
	api := adminAPI{usrSvc: usrSvc, svc: svc}

	ag := g.Group("/admin", jwt, adminMiddleware())
	ag.GET("/users", api.listUsers)
	ag.GET("/batch-status", api.batchStatus)
}

func (api *adminAPI) listUsers(ctx echo.Context) error {
	users, err := api.usrSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	return ctx.JSON(http.StatusOK, users)
}

// batchStatus reports student counts and ledger tallies grouped by batch.
func (api *adminAPI) batchStatus(ctx echo.Context) error {
	caller, err := getContextCaller(ctx)
	if err != nil {
		return err
	}

	stats, err := api.svc.BatchStats(ctx.Request().Context(), caller)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}
