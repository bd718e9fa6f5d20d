package inmemdb

import (
	"sync"

	"github.com/edumanage/edumanage/core/menu"
	"github.com/edumanage/edumanage/core/user"
)

type (
	DB struct {
		user *userTable
		menu *menuTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	menuTable struct {
		sync.RWMutex
		table map[string]*menu.Menu
		seq   []string // insertion order
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*user.User)},
		menu: &menuTable{table: make(map[string]*menu.Menu)},
	}
}
