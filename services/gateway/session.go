package gateway

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/edumanage/edumanage/core/user"
)

// storage keys
const (
	TokenKey        = "sms_token"
	RefreshTokenKey = "sms_refresh_token"
	UserKey         = "sms_user"
)

var ErrNoRefreshToken = errors.New("no refresh token")

// Tokens is the credential pair issued by the auth endpoints.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshFunc exchanges a refresh token for a new credential pair.
type RefreshFunc func(ctx context.Context, refreshToken string) (Tokens, error)

// Session owns the credentials shared by every call of a Client.
type Session struct {
	store Storage
	group singleflight.Group
}

func NewSession(store Storage) *Session {
	if store == nil {
		store = NewMemoryStorage()
	}
	return &Session{store: store}
}

func (s *Session) AccessToken() string {
	token, _ := s.store.Get(TokenKey)
	return token
}

func (s *Session) RefreshToken() string {
	token, _ := s.store.Get(RefreshTokenKey)
	return token
}

func (s *Session) Authenticated() bool {
	return s.AccessToken() != ""
}

// SetTokens stores a credential pair. A blank refresh token keeps the current one.
func (s *Session) SetTokens(tokens Tokens) {
	values := map[string]string{TokenKey: tokens.AccessToken}
	if tokens.RefreshToken != "" {
		values[RefreshTokenKey] = tokens.RefreshToken
	}
	s.store.Set(values)
}

func (s *Session) User() (user.Profile, bool) {
	raw, ok := s.store.Get(UserKey)
	if !ok {
		return user.Profile{}, false
	}
	var profile user.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return user.Profile{}, false
	}
	return profile, true
}

func (s *Session) SetUser(profile user.Profile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return errors.Wrap(err, "encoding user profile")
	}
	s.store.Set(map[string]string{UserKey: string(raw)})
	return nil
}

// Clear drops the tokens and the profile at once.
func (s *Session) Clear() {
	s.store.Delete(UserKey, TokenKey, RefreshTokenKey)
}

// Refresh renews the access token that was rejected (`stale`).
// Concurrent callers share a single call to fn, and a caller whose stale
// token has already been replaced gets the current token without refreshing.
func (s *Session) Refresh(ctx context.Context, stale string, fn RefreshFunc) (string, error) {
	token, err, _ := s.group.Do("refresh", func() (interface{}, error) {
		if current := s.AccessToken(); current != "" && current != stale {
			return current, nil
		}
		refreshToken := s.RefreshToken()
		if refreshToken == "" {
			return "", ErrNoRefreshToken
		}
		tokens, err := fn(ctx, refreshToken)
		if err != nil {
			return "", err
		}
		s.SetTokens(tokens)
		return tokens.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}
