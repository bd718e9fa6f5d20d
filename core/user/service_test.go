package user_test

import (
	"context"
	"testing"

	"github.com/edumanage/edumanage/core"
	"github.com/edumanage/edumanage/core/user"
	"github.com/edumanage/edumanage/storage/database/inmem"
	"github.com/edumanage/edumanage/tests"
)

func TestService_Create(t *testing.T) {
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	svc := user.NewService(repo)
	ctx := context.Background()
	testutil.CreateUser(t, repo, "Jane", "jane", "jane@school.cd", "", nil, true)

	tests := []struct {
		name      string
		nu        user.NewUser
		wantField string
	}{
		{name: "username taken", nu: user.NewUser{Name: "J", Username: "jane", Password: "Str0ng!Pass"}, wantField: "username"},
		{name: "email taken", nu: user.NewUser{Name: "J", Username: "john", Email: "jane@school.cd", Password: "Str0ng!Pass"}, wantField: "email"},
		{name: "created", nu: user.NewUser{Name: "John", Username: "john", Email: "john@school.cd", Password: "Str0ng!Pass"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svc.Create(ctx, tt.nu)
			if tt.wantField != "" {
				verr, ok := err.(*core.ValidationError)
				if !ok {
					t.Fatalf("Create() error = %v, want *core.ValidationError", err)
				}
				if verr.Fields[0].Field != tt.wantField {
					t.Errorf("Create() field = %s, want %s", verr.Fields[0].Field, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() unexpected error = %v", err)
			}
			if !usr.Active() || usr.CheckPassword(tt.nu.Password) != nil {
				t.Errorf("Create() = %+v, want an active user with the given password", usr)
			}
		})
	}
}

func TestService_GetByUsernameOrEmail(t *testing.T) {
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	svc := user.NewService(repo)
	ctx := context.Background()
	jane := testutil.CreateUser(t, repo, "Jane", "jane", "jane@school.cd", "", nil, true)

	for _, uname := range []string{"jane", " JANE ", "jane@school.cd"} {
		usr, err := svc.GetByUsernameOrEmail(ctx, uname)
		if err != nil || usr.ID != jane.ID {
			t.Errorf("GetByUsernameOrEmail(%q) = %v, %v; want %s", uname, usr.ID, err, jane.ID)
		}
	}
	if _, err := svc.GetByUsernameOrEmail(ctx, "nobody"); err != user.ErrNotFound {
		t.Errorf("GetByUsernameOrEmail() error = %v, want ErrNotFound", err)
	}

	usr, err := svc.SetLastLogin(ctx, jane)
	if err != nil || usr.LastLogin.IsZero() {
		t.Errorf("SetLastLogin() = %v, %v", usr.LastLogin, err)
	}
}
