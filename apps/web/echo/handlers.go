package echoweb

import (
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edumanage/edumanage/core/menu"
	"github.com/edumanage/edumanage/core/nav"
	"github.com/edumanage/edumanage/core/user"
	"github.com/edumanage/edumanage/services/gateway"
)

const (
	msgInvalidCredentials = "Invalid username or password."
	msgDeactivated        = "Your account is deactivated."
	msgUnavailable        = "The server could not be reached. Please try again."
	msgMenusUnavailable   = "The navigation could not be loaded."
)

type (
	loginData struct {
		AppName  string
		Action   string
		Next     string
		Username string
		Error    string
	}

	layoutData struct {
		AppName  string
		Title    string
		Location string
		User     user.Profile
		Sidebar  template.HTML
		Notice   string
	}
)

// Handlers

func (s *Server) loginPage(ctx echo.Context) error {
	ws := s.sessions.start(ctx)
	next := safeNext(ctx.QueryParam("next"))
	if ws.client.Session().Authenticated() {
		return ctx.Redirect(http.StatusSeeOther, next)
	}
	return ctx.Render(http.StatusOK, "login", loginData{AppName: s.deps.Conf.AppName, Action: s.loginPath(), Next: next})
}

func (s *Server) login(ctx echo.Context) error {
	ws := s.sessions.start(ctx)
	data := loginData{
		AppName:  s.deps.Conf.AppName,
		Action:   s.loginPath(),
		Next:     safeNext(ctx.FormValue("next")),
		Username: strings.TrimSpace(ctx.FormValue("username")),
	}

	_, err := ws.client.Login(ctx.Request().Context(), data.Username, ctx.FormValue("password"))
	if err != nil {
		code := http.StatusUnauthorized
		var apiErr *gateway.APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden:
			data.Error = msgDeactivated
		case errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError:
			data.Error = msgInvalidCredentials
		default:
			s.deps.Logger.Error("logging in", err, map[string]interface{}{"username": data.Username})
			code = http.StatusBadGateway
			data.Error = msgUnavailable
		}
		return ctx.Render(code, "login", data)
	}

	ws.mu.Lock()
	ws.loaded = false
	ws.nav.Mount(nil)
	ws.mu.Unlock()

	return ctx.Redirect(http.StatusSeeOther, data.Next)
}

func (s *Server) logout(ctx echo.Context) error {
	if ws, ok := s.sessions.lookup(ctx); ok {
		ws.client.Logout()
	}
	s.sessions.drop(ctx)
	return ctx.Redirect(http.StatusSeeOther, s.loginPath())
}

func (s *Server) page(ctx echo.Context) error {
	location := ctx.Request().URL.Path
	ws, ok := s.sessions.lookup(ctx)
	if !ok || !ws.client.Session().Authenticated() {
		return s.redirectToLogin(ctx, location)
	}

	notice, err := s.loadMenus(ctx, ws, false)
	if err != nil {
		return s.redirectToLogin(ctx, location)
	}

	view := ws.nav.View(location)
	sidebar, err := nav.RenderHTMLString(nav.HTMLOptions{Sidebar: view})
	if err != nil {
		return errors.Wrap(err, "rendering sidebar")
	}
	profile, _ := ws.client.Session().User()

	return ctx.Render(http.StatusOK, "layout", layoutData{
		AppName:  s.deps.Conf.AppName,
		Title:    pageTitle(view.Nodes, location),
		Location: location,
		User:     profile,
		Sidebar:  sidebar,
		Notice:   notice,
	})
}

func (s *Server) toggle(ctx echo.Context) error {
	next := safeNext(ctx.FormValue("next"))
	ws, ok := s.sessions.lookup(ctx)
	if !ok || !ws.client.Session().Authenticated() {
		return s.redirectToLogin(ctx, next)
	}
	ws.nav.Toggle(ctx.Param("id"))
	return ctx.Redirect(http.StatusSeeOther, next)
}

func (s *Server) collapse(ctx echo.Context) error {
	next := safeNext(ctx.FormValue("next"))
	ws, ok := s.sessions.lookup(ctx)
	if !ok || !ws.client.Session().Authenticated() {
		return s.redirectToLogin(ctx, next)
	}
	ws.nav.SetCollapsed(!ws.nav.Collapsed())
	return ctx.Redirect(http.StatusSeeOther, next)
}

func (s *Server) reload(ctx echo.Context) error {
	next := safeNext(ctx.FormValue("next"))
	ws, ok := s.sessions.lookup(ctx)
	if !ok || !ws.client.Session().Authenticated() {
		return s.redirectToLogin(ctx, next)
	}
	if _, err := s.loadMenus(ctx, ws, true); err != nil {
		return s.redirectToLogin(ctx, next)
	}
	return ctx.Redirect(http.StatusSeeOther, next)
}

// loadMenus mounts the caller's menu tree once per login (every time when
// `force`). Only an expired session is returned as an error; any other
// failure leaves the navigation empty and is reported as a notice.
func (s *Server) loadMenus(ctx echo.Context, ws *webSession, force bool) (string, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.loaded && !force {
		return "", nil
	}

	items, err := ws.client.Menus(ctx.Request().Context())
	if err != nil {
		ws.nav.Mount(nil)
		ws.loaded = false
		if errors.Cause(err) == gateway.ErrUnauthorized {
			return "", err
		}
		s.deps.Logger.Error("loading menus", err)
		return msgMenusUnavailable, nil
	}

	ws.nav.Mount(menu.BuildTree(items))
	ws.loaded = true
	return "", nil
}

func (s *Server) redirectToLogin(ctx echo.Context, next string) error {
	target := s.loginPath()
	if next != "" && next != "/" {
		target += "?" + url.Values{"next": {next}}.Encode()
	}
	return ctx.Redirect(http.StatusSeeOther, target)
}

// safeNext only lets local paths through as redirect targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	return next
}

func pageTitle(nodes []*nav.NodeView, location string) string {
	for _, v := range nodes {
		if v.Active {
			return v.Label
		}
		if title := pageTitle(v.Children, ""); title != "" {
			return title
		}
	}
	return location
}
