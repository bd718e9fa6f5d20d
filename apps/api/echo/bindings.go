package echoapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/edumanage/edumanage/core"
	"github.com/edumanage/edumanage/core/user"
)

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	RefreshRequest struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	TokenPair struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}

	LoginData struct {
		TokenPair
		User user.Profile `json:"user"`
	}

	// DataResponse wraps payloads the way the menu backend does: `{"data": ...}`.
	DataResponse struct {
		Data interface{} `json:"data"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}

func (rr *RefreshRequest) Validate(validate *validator.Validate) error {
	rr.RefreshToken = core.CleanString(rr.RefreshToken)
	return validate.Struct(rr)
}
