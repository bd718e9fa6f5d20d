package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/edumanage/edumanage/apps/api/echo"
	"github.com/edumanage/edumanage/core/user"
	"github.com/edumanage/edumanage/tests"
)

type loginResponse struct {
	Data LoginData `json:"data"`
}

type refreshResponse struct {
	Data TokenPair `json:"data"`
}

func TestServer_home(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to EduManage API!", rec.Body.String())
}

func Test_authApi_login(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, app.usrRepo, "User", "user", "user@test.cd", "pwd", []string{user.RoleTeacher}, true)
	testutil.CreateUser(t, app.usrRepo, "N Dog", "ndog", "ndog@test.cd", "pwd", nil, false)

	tests := []httpTest{
		{
			name:     "empty body",
			body:     marchallObj(t, LoginRequest{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username": "this field is required",
				"password": "this field is required",
			}),
		},
		{
			name:     "unknown user",
			body:     marchallObj(t, LoginRequest{Username: "nobody", Password: "pwd"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "wrong password",
			body:     marchallObj(t, LoginRequest{Username: "user", Password: "wrong"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "deactivated",
			body:     marchallObj(t, LoginRequest{Username: "ndog", Password: "pwd"}),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/Auth/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	for _, uname := range []string{"user", "USER@test.cd"} {
		t.Run("success "+uname, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/Auth/login", marchallObj(t, LoginRequest{Username: uname, Password: "pwd"}))
			app.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			var resp loginResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Data.AccessToken)
			assert.NotEmpty(t, resp.Data.RefreshToken)
			assert.Equal(t, usr.Profile(), resp.Data.User)
		})
	}

	t.Run("last login is set", func(t *testing.T) {
		got, err := user.NewService(app.usrRepo).GetByID(context.Background(), usr.ID)
		require.NoError(t, err)
		assert.False(t, got.LastLogin.IsZero())
	})
}

func Test_authApi_refresh(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, app.usrRepo, "User", "user", "user@test.cd", "pwd", []string{user.RoleStudent}, true)
	naughty := testutil.CreateUser(t, app.usrRepo, "N Dog", "ndog", "ndog@test.cd", "pwd", nil, false)

	tokens := app.tokens(t, usr)
	expired := app.tokens(t, usr, time.Now().Add(-5*time.Hour).Unix())

	tests := []httpTest{
		{
			name:     "empty body",
			body:     marchallObj(t, RefreshRequest{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"refreshToken": "this field is required"}),
		},
		{
			name:     "garbage",
			body:     marchallObj(t, RefreshRequest{RefreshToken: "not.a.jwt"}),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid refresh token"}),
		},
		{
			name:     "access token",
			body:     marchallObj(t, RefreshRequest{RefreshToken: tokens.AccessToken}),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid refresh token"}),
		},
		{
			name:     "expired",
			body:     marchallObj(t, RefreshRequest{RefreshToken: expired.RefreshToken}),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{
			name:     "deactivated",
			body:     marchallObj(t, RefreshRequest{RefreshToken: app.tokens(t, naughty).RefreshToken}),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/Auth/refresh", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("success", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/Auth/refresh", marchallObj(t, RefreshRequest{RefreshToken: tokens.RefreshToken}))
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp refreshResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Data.AccessToken)
		assert.NotEmpty(t, resp.Data.RefreshToken)

		// the new access token is accepted by the menu endpoints
		req, rec = newAuthRequest(http.MethodGet, "/Menus/hierarchy", resp.Data.AccessToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
