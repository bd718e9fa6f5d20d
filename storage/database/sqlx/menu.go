package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edumanage/edumanage/core"
	"github.com/edumanage/edumanage/core/menu"
)

const menuColumns = "id, name, display_name, description, icon, route, parent_menu_id, sort_order"

type menuRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	DisplayName  string      `db:"display_name"`
	Description  string      `db:"description"`
	Icon         string      `db:"icon"`
	Route        string      `db:"route"`
	ParentMenuID null.String `db:"parent_menu_id"`
	SortOrder    int         `db:"sort_order"`
}

func (row menuRow) menu(roles []string) menu.Menu {
	return menu.Menu{
		ID:           row.ID,
		Name:         row.Name,
		DisplayName:  row.DisplayName,
		Description:  row.Description,
		Icon:         row.Icon,
		Route:        row.Route,
		ParentMenuID: row.ParentMenuID.Ptr(),
		SortOrder:    row.SortOrder,
		Roles:        roles,
	}
}

type menuRoleRow struct {
	MenuID string `db:"menu_id"`
	Role   string `db:"role"`
}

type menuRepository struct {
	db core.DB
}

var _ menu.Repository = (*menuRepository)(nil)

func NewMenuRepository(db core.DB) *menuRepository {
	return &menuRepository{db: db}
}

func (repo *menuRepository) CreateMenu(ctx context.Context, m menu.Menu) (menu.Menu, error) {
	m.ID = uuid.New().String()
	err := core.Transact(ctx, repo.db, func(tx core.DBExecutor) error {
		q := tx.Rebind("INSERT INTO menus (" + menuColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
		if _, err := tx.ExecContext(ctx, q,
			m.ID, m.Name, m.DisplayName, m.Description, m.Icon, m.Route,
			null.StringFromPtr(m.ParentMenuID), m.SortOrder,
		); err != nil {
			return errors.Wrap(err, "inserting menu")
		}
		q = tx.Rebind("INSERT INTO menu_roles (menu_id, role) VALUES (?, ?)")
		for _, role := range m.Roles {
			if _, err := tx.ExecContext(ctx, q, m.ID, role); err != nil {
				return errors.Wrap(err, "inserting menu role")
			}
		}
		return nil
	})
	if err != nil {
		return menu.Menu{}, err
	}
	return m, nil
}

func (repo *menuRepository) GetMenu(ctx context.Context, filter menu.GetFilter) (menu.Menu, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.ID != "" {
		where = append(where, "id = ?")
		args = append(args, filter.ID)
	}
	if filter.Name != "" {
		where = append(where, "name = ?")
		args = append(args, filter.Name)
	}
	if len(where) == 0 {
		return menu.Menu{}, menu.ErrNotFound
	}

	var row menuRow
	q := repo.db.Rebind("SELECT " + menuColumns + " FROM menus WHERE " + strings.Join(where, " AND ") + " LIMIT 1")
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return menu.Menu{}, menu.ErrNotFound
		}
		return menu.Menu{}, errors.Wrap(err, "selecting menu")
	}

	var roles []string
	q = repo.db.Rebind("SELECT role FROM menu_roles WHERE menu_id = ? ORDER BY role")
	if err := repo.db.SelectContext(ctx, &roles, q, row.ID); err != nil {
		return menu.Menu{}, errors.Wrap(err, "selecting menu roles")
	}
	return row.menu(roles), nil
}

func (repo *menuRepository) ListMenus(ctx context.Context) ([]menu.Menu, error) {
	var rows []menuRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT "+menuColumns+" FROM menus ORDER BY sort_order, display_name, id"); err != nil {
		return nil, errors.Wrap(err, "selecting menus")
	}
	var roleRows []menuRoleRow
	if err := repo.db.SelectContext(ctx, &roleRows, "SELECT menu_id, role FROM menu_roles ORDER BY menu_id, role"); err != nil {
		return nil, errors.Wrap(err, "selecting menu roles")
	}

	roles := make(map[string][]string, len(rows))
	for _, rr := range roleRows {
		roles[rr.MenuID] = append(roles[rr.MenuID], rr.Role)
	}
	menus := make([]menu.Menu, 0, len(rows))
	for _, row := range rows {
		menus = append(menus, row.menu(roles[row.ID]))
	}
	return menus, nil
}

func (repo *menuRepository) DeleteMenu(ctx context.Context, id string) error {
	return core.Transact(ctx, repo.db, func(tx core.DBExecutor) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM menu_roles WHERE menu_id = ?"), id); err != nil {
			return errors.Wrap(err, "deleting menu roles")
		}
		res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM menus WHERE id = ?"), id)
		if err != nil {
			return errors.Wrap(err, "deleting menu")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return menu.ErrNotFound
		}
		return nil
	})
}
