package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/edumanage/edumanage/core/menu"
	"github.com/edumanage/edumanage/core/user"
	"github.com/edumanage/edumanage/storage/database"
)

// PrepareDB opens a migrated in-memory sqlite database, closed when the test ends.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	// every connection to :memory: gets its own database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(db.DB, "sqlite3"); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// CreateMenu stores a menu under `parent` (nil for a root menu).
func CreateMenu(
	t *testing.T,
	repo menu.Repository,
	name, displayName, route string,
	parent *menu.Menu,
	sortOrder int,
	roles ...string,
) menu.Menu {
	t.Helper()

	m := menu.Menu{
		Name:        name,
		DisplayName: displayName,
		Route:       route,
		SortOrder:   sortOrder,
		Roles:       roles,
	}
	if parent != nil {
		id := parent.ID
		m.ParentMenuID = &id
	}
	m, err := repo.CreateMenu(context.Background(), m)
	if err != nil {
		t.Fatalf("createMenu() failed: %v", err)
	}
	return m
}
