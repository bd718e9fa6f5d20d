package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edumanage/edumanage/core/user"
)

type authApi struct {
	issuer   *TokenIssuer
	svc      user.ServiceInterface
	validate *validator.Validate
}

func registerAuthAPI(g *echo.Group, issuer *TokenIssuer, svc user.ServiceInterface, validate *validator.Validate) {
	api := authApi{
		issuer:   issuer,
		svc:      svc,
		validate: validate,
	}

	// TODO: access attempt
	g.POST("/login", api.login)
	g.POST("/refresh", api.refresh)
}

// Handlers

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := authenticate(ctx.Request().Context(), data.Username, data.Password, api.svc)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	tokens, err := api.issuer.Issue(usr)
	if err != nil {
		return errors.Wrap(err, "issuing tokens")
	}

	return ctx.JSON(http.StatusOK, DataResponse{Data: LoginData{TokenPair: tokens, User: usr.Profile()}})
}

func (api *authApi) refresh(ctx echo.Context) error {
	var data RefreshRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RefreshRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := api.issuer.parseRefreshToken(data.RefreshToken)
	if err != nil {
		return err
	}

	usr, err := api.svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errInvalidRefreshToken
		}
		return errors.Wrap(err, "finding user by ID")
	}
	// check if user is still active
	if !usr.Active() {
		return errAccountDeactivated
	}

	tokens, err := api.issuer.Issue(usr, claims.OrigIssuedAt)
	if err != nil {
		return errors.Wrap(err, "issuing tokens")
	}
	return ctx.JSON(http.StatusOK, DataResponse{Data: tokens})
}
