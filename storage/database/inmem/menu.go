package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/edumanage/edumanage/core/menu"
)

type menuRepository struct {
	db *menuTable
}

var _ menu.Repository = (*menuRepository)(nil)

func NewMenuRepository(db *DB) *menuRepository {
	return &menuRepository{db: db.menu}
}

func (repo *menuRepository) CreateMenu(_ context.Context, m menu.Menu) (menu.Menu, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	m.ID = uuid.New().String()
	m.Roles = append([]string(nil), m.Roles...)
	repo.db.table[m.ID] = &m
	repo.db.seq = append(repo.db.seq, m.ID)
	return m, nil
}

func (repo *menuRepository) GetMenu(_ context.Context, filter menu.GetFilter) (menu.Menu, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, id := range repo.db.seq {
		m := repo.db.table[id]
		if (filter.ID == "" || m.ID == filter.ID) && (filter.Name == "" || m.Name == filter.Name) {
			return *m, nil
		}
	}
	return menu.Menu{}, menu.ErrNotFound
}

func (repo *menuRepository) ListMenus(context.Context) ([]menu.Menu, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	menus := make([]menu.Menu, 0, len(repo.db.seq))
	for _, id := range repo.db.seq {
		menus = append(menus, *repo.db.table[id])
	}
	return menus, nil
}

func (repo *menuRepository) DeleteMenu(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return menu.ErrNotFound
	}
	delete(repo.db.table, id)
	for i, mid := range repo.db.seq {
		if mid == id {
			repo.db.seq = append(repo.db.seq[:i], repo.db.seq[i+1:]...)
			break
		}
	}
	return nil
}
