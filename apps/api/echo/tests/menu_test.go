package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumanage/edumanage/core/menu"
	"github.com/edumanage/edumanage/core/user"
	"github.com/edumanage/edumanage/tests"
)

func Test_menuApi_hierarchy(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdminOwner}, true)
	student := testutil.CreateUser(t, app.usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	teacher := testutil.CreateUser(t, app.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)

	dashboard := testutil.CreateMenu(t, app.menuRepo, "dashboard", "Dashboard", "/dashboard", nil, 0)
	settings := testutil.CreateMenu(t, app.menuRepo, "settings", "Settings", "", nil, 2, user.RoleAdmin)
	users := testutil.CreateMenu(t, app.menuRepo, "users", "Users", "/settings/users", &settings, 0)
	academics := testutil.CreateMenu(t, app.menuRepo, "academics", "Academics", "", nil, 1)
	grades := testutil.CreateMenu(t, app.menuRepo, "grades", "Grades", "/academics/grades", &academics, 1)
	classes := testutil.CreateMenu(t, app.menuRepo, "classes", "Classes", "/academics/classes", &academics, 0, user.RoleTeacher)

	node := func(m menu.Menu, parent string, subs ...menu.Menu) map[string]interface{} {
		n := map[string]interface{}{
			"id":           m.ID,
			"name":         m.Name,
			"displayName":  m.DisplayName,
			"parentMenuId": m.ParentMenuID,
			"sortOrder":    m.SortOrder,
			"subMenus":     []map[string]interface{}{},
		}
		if m.Route != "" {
			n["route"] = m.Route
		}
		if parent != "" {
			n["parentMenuName"] = parent
		}
		children := make([]map[string]interface{}, 0, len(subs))
		for _, s := range subs {
			children = append(children, map[string]interface{}{
				"id":           s.ID,
				"name":         s.Name,
				"displayName":  s.DisplayName,
				"route":        s.Route,
				"parentMenuId": s.ParentMenuID,
				"sortOrder":    s.SortOrder,
				"subMenus":     []map[string]interface{}{},
			})
		}
		n["subMenus"] = children
		return n
	}

	tests := []httpTest{
		{
			name:     "no token",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "refresh token",
			token:    app.tokens(t, student).RefreshToken,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "invalid access token"}),
		},
		{
			name:     "student",
			token:    app.getToken(t, student),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []interface{}{
				node(dashboard, ""),
				node(academics, "", grades),
				node(grades, "Academics"),
				node(users, "Settings"), // public, under a hidden parent
			}),
		},
		{
			name:     "teacher sees classes",
			token:    app.getToken(t, teacher),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []interface{}{
				node(classes, "Academics"),
				node(dashboard, ""),
				node(users, "Settings"),
				node(academics, "", classes, grades),
				node(grades, "Academics"),
			}),
		},
		{
			name:     "admin",
			token:    app.getToken(t, admin),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []interface{}{
				node(dashboard, ""),
				node(academics, "", grades),
				node(settings, "", users),
				node(grades, "Academics"),
				node(users, "Settings"),
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/Menus/hierarchy", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("ordered by sortOrder then display name", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/Menus/hierarchy", app.getToken(t, teacher))
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var nodes []menu.Node
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nodes))

		names := make([]string, 0, len(nodes))
		for _, n := range nodes {
			names = append(names, n.Name)
		}
		assert.Equal(t, []string{"classes", "dashboard", "users", "academics", "grades"}, names)
		require.Len(t, nodes[3].SubMenus, 2)
		assert.Equal(t, "classes", nodes[3].SubMenus[0].Name)
		assert.Equal(t, "grades", nodes[3].SubMenus[1].Name)
	})
}

func Test_menuApi_retrieve(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, app.usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	teacher := testutil.CreateUser(t, app.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	_ = teacher
	dashboard := testutil.CreateMenu(t, app.menuRepo, "dashboard", "Dashboard", "/dashboard", nil, 0)
	settings := testutil.CreateMenu(t, app.menuRepo, "settings", "Settings", "/settings", nil, 1, user.RoleAdmin)

	tests := []httpTest{
		{
			name:     "visible",
			path:     "/Menus/" + dashboard.ID,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, dashboard),
		},
		{
			name:     "hidden",
			path:     "/Menus/" + settings.ID,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name:     "unknown",
			path:     "/Menus/nope",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	token := app.getToken(t, student)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_menuApi_create(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, app.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	settings := testutil.CreateMenu(t, app.menuRepo, "settings", "Settings", "", nil, 0)
	adminToken := app.getToken(t, admin)

	tests := []httpTest{
		{
			name:     "not admin",
			body:     marchallObj(t, menu.NewMenu{Name: "users", DisplayName: "Users"}),
			token:    app.getToken(t, teacher),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "invalid",
			body:     marchallObj(t, menu.NewMenu{Name: "bad name!", Route: "users", Roles: []string{"nope"}}),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":        "only alphanumeric characters and underscores are allowed",
				"displayName": "this field is required",
				"route":       "route must be an absolute path without whitespace",
				"roles":       "invalid roles",
			}),
		},
		{
			name:     "duplicate name",
			body:     marchallObj(t, menu.NewMenu{Name: "Settings", DisplayName: "Settings"}),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": menu.ErrNameExists.Error()}),
		},
		{
			name:     "unknown parent",
			body:     marchallObj(t, menu.NewMenu{Name: "users", DisplayName: "Users", ParentMenuID: strPtr("nope")}),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"parentMenuId": "parent menu not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/Menus", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("success", func(t *testing.T) {
		body := marchallObj(t, menu.NewMenu{
			Name:         "Users",
			DisplayName:  " Users ",
			Route:        "/settings/users",
			ParentMenuID: &settings.ID,
			SortOrder:    3,
			Roles:        []string{user.RoleAdmin},
		})
		req, rec := newAuthRequest(http.MethodPost, "/Menus", adminToken, body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var got menu.Menu
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, "users", got.Name)
		assert.Equal(t, "Users", got.DisplayName)
		assert.Equal(t, settings.ID, *got.ParentMenuID)
		assert.Equal(t, []string{user.RoleAdmin}, got.Roles)
	})
}

func Test_menuApi_destroy(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	settings := testutil.CreateMenu(t, app.menuRepo, "settings", "Settings", "", nil, 0)
	users := testutil.CreateMenu(t, app.menuRepo, "users", "Users", "/settings/users", &settings, 0)
	adminToken := app.getToken(t, admin)

	tests := []httpTest{
		{
			name:     "has sub menus",
			path:     "/Menus/" + settings.ID,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"id": menu.ErrHasSubMenus.Error()}),
		},
		{
			name:     "leaf",
			path:     "/Menus/" + users.ID,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "now a leaf",
			path:     "/Menus/" + settings.ID,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "unknown",
			path:     "/Menus/" + settings.ID,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodDelete, tt.path, adminToken)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func strPtr(s string) *string { return &s }
