package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edumanage/edumanage/core/menu"
)

type menuApi struct {
	svc      menu.ServiceInterface
	validate *validator.Validate
}

func registerMenuAPI(g *echo.Group, svc menu.ServiceInterface, validate *validator.Validate) {
	api := menuApi{
		svc:      svc,
		validate: validate,
	}

	g.GET("/hierarchy", api.hierarchy)
	g.POST("", api.create, adminMiddleware())

	dg := g.Group("/:id")
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy, adminMiddleware())
}

// Handlers

func (api *menuApi) hierarchy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	nodes, err := api.svc.Hierarchy(ctx.Request().Context(), claims.Roles)
	if err != nil {
		return errors.Wrap(err, "querying menu hierarchy")
	}
	return ctx.JSON(http.StatusOK, nodes)
}

func (api *menuApi) retrieve(ctx echo.Context) error {
	m, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding menu by ID")
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// hidden menus do not exist for the caller
	if !menu.Visible(m, claims.Roles) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *menuApi) create(ctx echo.Context) error {
	var data menu.NewMenu
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMenu")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating menu")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *menuApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting menu")
	}
	return ctx.NoContent(http.StatusNoContent)
}
