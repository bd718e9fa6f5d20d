package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/edumanage/edumanage/core"
	"github.com/edumanage/edumanage/core/user"
)

const (
	contextTokenKey = "userToken"

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	audience = "Academia"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	TokenType    string   `json:"typ"`
	OrigIssuedAt int64    `json:"oriat,omitempty"`
	Username     string   `json:"username,omitempty"`
	Email        string   `json:"email,omitempty"`
	IsStudent    bool     `json:"is_student,omitempty"` // -> STUDENT PORTAL
	IsTeacher    bool     `json:"is_teacher,omitempty"` // -> TEACHER PORTAL
	IsAdmin      bool     `json:"is_admin,omitempty"`   // -> ADMIN PORTAL
	Roles        []string `json:"roles,omitempty"`
}

// TokenIssuer signs and verifies the access/refresh token pairs.
type TokenIssuer struct {
	conf *core.Config
	key  []byte
}

func NewTokenIssuer(conf *core.Config) *TokenIssuer {
	return &TokenIssuer{conf: conf, key: []byte(conf.SecretKey)}
}

// jwtConfig is the JWT auth middleware config.
func (ti *TokenIssuer) jwtConfig() middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    ti.key,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// Claims builds the claims of a token of type `typ`.
// Refresh tokens expire JWTRefreshExpirationDelta after the original login (origIat).
func (ti *TokenIssuer) Claims(usr user.User, typ string, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	expiresAt := now.Add(ti.conf.Server.JWTExpirationDelta).Unix()
	if typ == TokenTypeRefresh {
		expiresAt = time.Unix(oriat, 0).Add(ti.conf.Server.JWTRefreshExpirationDelta).Unix()
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    ti.conf.AppName,
			Subject:   usr.ID,
			Audience:  audience,
			ExpiresAt: expiresAt,
			IssuedAt:  nownix,
		},
		TokenType:    typ,
		OrigIssuedAt: oriat,
		Username:     usr.Username,
		Email:        usr.Email,
		IsStudent:    usr.IsStudent(),
		IsTeacher:    usr.IsTeacher(),
		IsAdmin:      usr.IsAdmin(),
		Roles:        usr.Roles,
	}
}

// Sign generates a signed JWT token string representing the Claims.
func (ti *TokenIssuer) Sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString(ti.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Issue signs a new token pair for usr. origIat carries the original login
// time over refreshes.
func (ti *TokenIssuer) Issue(usr user.User, origIat ...int64) (TokenPair, error) {
	access, err := ti.Sign(ti.Claims(usr, TokenTypeAccess, origIat...))
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := ti.Sign(ti.Claims(usr, TokenTypeRefresh, origIat...))
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// parseRefreshToken verifies a refresh token string.
func (ti *TokenIssuer) parseRefreshToken(raw string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != middleware.AlgorithmHS256 {
			return nil, errors.Errorf("unexpected jwt signing method=%v", t.Header["alg"])
		}
		return ti.key, nil
	})
	if err != nil || !token.Valid {
		if verr, ok := err.(*jwt.ValidationError); ok && verr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, errRefreshExpired
		}
		return nil, errInvalidRefreshToken
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, errInvalidRefreshToken
	}
	return claims, nil
}

func authenticate(ctx context.Context, uname, pwd string, svc user.ServiceInterface) (user.User, error) {
	usr, err := svc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if err == user.ErrNotFound {
			return user.User{}, errAuthenticationFailed
		}
		return user.User{}, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, errAuthenticationFailed
	}
	if !usr.Active() {
		return user.User{}, errAccountDeactivated
	}
	usr, err = svc.SetLastLogin(ctx, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// contextHasAnyRole reports whether the token grants any of `roles` (all roles when empty).
func contextHasAnyRole(ctx echo.Context, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return false
	}
	for _, required := range roles {
		for _, role := range claims.Roles {
			if user.RoleGrants(role, required) {
				return true
			}
		}
	}
	return false
}
