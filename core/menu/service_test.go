package menu_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumanage/edumanage/core"
	"github.com/edumanage/edumanage/core/menu"
	"github.com/edumanage/edumanage/core/user"
	"github.com/edumanage/edumanage/storage/database/inmem"
	"github.com/edumanage/edumanage/tests"
)

func setup(t *testing.T) (*menu.Service, menu.Repository) {
	repo := inmemdb.NewMenuRepository(inmemdb.Open())
	return menu.NewService(repo), repo
}

func TestService_Hierarchy(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	dashboard := testutil.CreateMenu(t, repo, "dashboard", "Dashboard", "/", nil, 0)
	admin := testutil.CreateMenu(t, repo, "administration", "Administration", "", nil, 9, user.RoleAdmin)
	users := testutil.CreateMenu(t, repo, "users", "Users", "/admin/users", &admin, 1, user.RoleAdmin)
	menus := testutil.CreateMenu(t, repo, "menus", "Menus", "/admin/menus", &admin, 1, user.RoleAdminOwner)
	classes := testutil.CreateMenu(t, repo, "classes", "Classes", "/classes", nil, 2, user.RoleTeacher, user.RoleAdmin)

	tests := []struct {
		name  string
		roles []string
		want  []string
	}{
		{name: "anonymous sees public menus", roles: nil, want: []string{dashboard.ID}},
		{name: "student", roles: []string{user.RoleStudent}, want: []string{dashboard.ID}},
		{name: "teacher", roles: []string{user.RoleTeacher}, want: []string{dashboard.ID, classes.ID}},
		{name: "principal", roles: []string{user.RoleAdminPrincipal}, want: []string{dashboard.ID, users.ID, classes.ID, admin.ID}},
		{name: "owner", roles: []string{user.RoleAdminOwner}, want: []string{dashboard.ID, menus.ID, users.ID, classes.ID, admin.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, err := svc.Hierarchy(ctx, tt.roles)
			require.NoError(t, err)

			got := make([]string, 0, len(nodes))
			for _, n := range nodes {
				got = append(got, n.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	nodes, err := svc.Hierarchy(ctx, []string{user.RoleAdminPrincipal})
	require.NoError(t, err)
	for _, n := range nodes {
		switch n.ID {
		case users.ID:
			assert.Equal(t, "Administration", n.ParentMenuName)
			assert.Empty(t, n.SubMenus)
		case admin.ID:
			assert.Empty(t, n.ParentMenuName)
			// the owner-only child is filtered out
			require.Len(t, n.SubMenus, 1)
			assert.Equal(t, users.ID, n.SubMenus[0].ID)
		}
	}
}

func TestService_Tree(t *testing.T) {
	svc, repo := setup(t)

	admin := testutil.CreateMenu(t, repo, "administration", "Administration", "", nil, 1)
	testutil.CreateMenu(t, repo, "users", "Users", "/admin/users", &admin, 2)
	testutil.CreateMenu(t, repo, "menus", "Menus", "/admin/menus", &admin, 1)
	testutil.CreateMenu(t, repo, "home", "Home", "/", nil, 0)

	roots, err := svc.Tree(context.Background(), []string{user.RoleAdmin})
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "Home", roots[0].DisplayName)
	assert.Equal(t, "Administration", roots[1].DisplayName)
	require.Len(t, roots[1].Children, 2)
	assert.Equal(t, "Menus", roots[1].Children[0].DisplayName)
	assert.Equal(t, "Users", roots[1].Children[1].DisplayName)
}

func TestService_Create(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	existing := testutil.CreateMenu(t, repo, "users", "Users", "/users", nil, 0)

	tests := []struct {
		name      string
		nm        menu.NewMenu
		wantField string
	}{
		{name: "name taken", nm: menu.NewMenu{Name: "users", DisplayName: "Users 2"}, wantField: "name"},
		{name: "unknown parent", nm: menu.NewMenu{Name: "x", DisplayName: "X", ParentMenuID: core.StringPtr("nope")}, wantField: "parentMenuId"},
		{name: "root", nm: menu.NewMenu{Name: "reports", DisplayName: "Reports", Route: "/reports"}},
		{name: "child", nm: menu.NewMenu{Name: "roles", DisplayName: "Roles", ParentMenuID: core.StringPtr(existing.ID)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := svc.Create(ctx, tt.nm)
			if tt.wantField != "" {
				verr, ok := err.(*core.ValidationError)
				require.True(t, ok, "Create() error = %v, want *core.ValidationError", err)
				assert.Equal(t, tt.wantField, verr.Fields[0].Field)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, m.ID)
			assert.Equal(t, tt.nm.ParentMenuID, m.ParentMenuID)
		})
	}
}

func TestService_Delete(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	parent := testutil.CreateMenu(t, repo, "admin", "Admin", "", nil, 0)
	child := testutil.CreateMenu(t, repo, "users", "Users", "/users", &parent, 0)

	_, ok := svc.Delete(ctx, parent.ID).(*core.ValidationError)
	assert.True(t, ok, "deleting a parent should fail")
	assert.Equal(t, menu.ErrNotFound, svc.Delete(ctx, "unknown"))

	require.NoError(t, svc.Delete(ctx, child.ID))
	require.NoError(t, svc.Delete(ctx, parent.ID))
	_, err := svc.GetByID(ctx, parent.ID)
	assert.Equal(t, menu.ErrNotFound, err)
}

func TestNewMenu_Validate(t *testing.T) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	menu.InitValidators(validate, translator)

	tests := []struct {
		name    string
		nm      menu.NewMenu
		wantErr bool
	}{
		{name: "valid", nm: menu.NewMenu{Name: " Users ", DisplayName: "Users", Route: "/users", Roles: []string{user.RoleAdmin}}},
		{name: "no route", nm: menu.NewMenu{Name: "group", DisplayName: "Group"}},
		{name: "missing display name", nm: menu.NewMenu{Name: "users"}, wantErr: true},
		{name: "relative route", nm: menu.NewMenu{Name: "users", DisplayName: "Users", Route: "users"}, wantErr: true},
		{name: "bad name", nm: menu.NewMenu{Name: "users!", DisplayName: "Users"}, wantErr: true},
		{name: "unknown role", nm: menu.NewMenu{Name: "users", DisplayName: "Users", Roles: []string{"janitor:"}}, wantErr: true},
		{name: "negative order", nm: menu.NewMenu{Name: "users", DisplayName: "Users", SortOrder: -1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nm.Validate(validate)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
