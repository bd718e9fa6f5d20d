package menu

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/edumanage/edumanage/core"
	"github.com/edumanage/edumanage/core/user"
)

var (
	// errors
	ErrNotFound    = errors.New("menu not found")
	ErrNameExists  = errors.New("a menu with this name already exists")
	ErrHasSubMenus = errors.New("menu has sub menus")
)

type (
	GetFilter struct {
		ID   string
		Name string
	}

	Repository interface {
		CreateMenu(ctx context.Context, m Menu) (Menu, error)
		// GetMenu returns the first menu matching all set GetFilter fields.
		GetMenu(ctx context.Context, filter GetFilter) (Menu, error)
		ListMenus(ctx context.Context) ([]Menu, error)
		DeleteMenu(ctx context.Context, id string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, nm NewMenu) (Menu, error)
		GetByID(ctx context.Context, id string) (Menu, error)
		Delete(ctx context.Context, id string) error
		Hierarchy(ctx context.Context, roles []string) ([]Node, error)
		Tree(ctx context.Context, roles []string) ([]*Item, error)
	}

	Service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nm NewMenu) (Menu, error) {
	if _, err := svc.repo.GetMenu(ctx, GetFilter{Name: nm.Name}); err == nil {
		return Menu{}, core.NewFieldError("name", ErrNameExists)
	} else if err != ErrNotFound {
		return Menu{}, err
	}

	parentID := core.StringPtr(core.StringVal(nm.ParentMenuID))
	if parentID != nil {
		if _, err := svc.repo.GetMenu(ctx, GetFilter{ID: *parentID}); err == ErrNotFound {
			return Menu{}, core.NewValidationError(err, core.FieldError{Field: "parentMenuId", Error: "parent menu not found"})
		} else if err != nil {
			return Menu{}, err
		}
	}

	return svc.repo.CreateMenu(ctx, Menu{
		Name:         nm.Name,
		DisplayName:  nm.DisplayName,
		Description:  nm.Description,
		Icon:         nm.Icon,
		Route:        nm.Route,
		ParentMenuID: parentID,
		SortOrder:    nm.SortOrder,
		Roles:        nm.Roles,
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Menu, error) {
	return svc.repo.GetMenu(ctx, GetFilter{ID: id})
}

// Delete removes a leaf menu.
func (svc *Service) Delete(ctx context.Context, id string) error {
	if _, err := svc.repo.GetMenu(ctx, GetFilter{ID: id}); err != nil {
		return err
	}
	menus, err := svc.repo.ListMenus(ctx)
	if err != nil {
		return err
	}
	for _, m := range menus {
		if core.StringVal(m.ParentMenuID) == id {
			return core.NewFieldError("id", ErrHasSubMenus)
		}
	}
	return svc.repo.DeleteMenu(ctx, id)
}

// Hierarchy returns the flat list of menus visible to `roles`, each with its
// parent's name and its direct visible sub menus.
func (svc *Service) Hierarchy(ctx context.Context, roles []string) ([]Node, error) {
	menus, err := svc.repo.ListMenus(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(menus))
	for _, m := range menus {
		names[m.ID] = m.DisplayName
	}

	visible := make([]Menu, 0, len(menus))
	for _, m := range menus {
		if Visible(m, roles) {
			visible = append(visible, m)
		}
	}
	sortMenus(visible)

	children := make(map[string][]Node)
	for _, m := range visible {
		if pid := core.StringVal(m.ParentMenuID); pid != "" {
			children[pid] = append(children[pid], newNode(m))
		}
	}

	nodes := make([]Node, 0, len(visible))
	for _, m := range visible {
		node := newNode(m)
		node.ParentMenuName = names[core.StringVal(m.ParentMenuID)]
		if subs, ok := children[m.ID]; ok {
			node.SubMenus = subs
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// Tree builds the navigation tree visible to `roles`.
func (svc *Service) Tree(ctx context.Context, roles []string) ([]*Item, error) {
	nodes, err := svc.Hierarchy(ctx, roles)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(nodes))
	for _, n := range nodes {
		records = append(records, n.Record())
	}
	return BuildTree(NormalizeRecords(records)), nil
}

// Visible reports whether any of `roles` grants access to the menu.
// Menus without roles are public.
func Visible(m Menu, roles []string) bool {
	if len(m.Roles) == 0 {
		return true
	}
	for _, required := range m.Roles {
		for _, role := range roles {
			if user.RoleGrants(role, required) {
				return true
			}
		}
	}
	return false
}

func sortMenus(menus []Menu) {
	sort.SliceStable(menus, func(i, j int) bool {
		if menus[i].SortOrder != menus[j].SortOrder {
			return menus[i].SortOrder < menus[j].SortOrder
		}
		return strings.ToLower(menus[i].DisplayName) < strings.ToLower(menus[j].DisplayName)
	})
}

// Record converts the hierarchy node into its wire shape.
func (n Node) Record() Record {
	order := n.SortOrder
	return Record{
		ID:           n.ID,
		Name:         n.Name,
		DisplayName:  n.DisplayName,
		Description:  n.Description,
		Icon:         n.Icon,
		Route:        n.Route,
		ParentMenuID: n.ParentMenuID,
		SortOrder:    &order,
	}
}
