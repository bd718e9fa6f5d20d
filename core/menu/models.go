package menu

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/edumanage/edumanage/core"
)

// Record is a raw menu payload as served by the backend.
// Older payloads carry `parentId`, `displayOrder` or `order` instead of
// `parentMenuId` / `sortOrder`, hence the optional fields.
type Record struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	DisplayName  string          `json:"displayName"`
	Description  string          `json:"description,omitempty"`
	Icon         string          `json:"icon,omitempty"`
	Route        string          `json:"route,omitempty"`
	ParentMenuID *string         `json:"parentMenuId,omitempty"`
	ParentID     *string         `json:"parentId,omitempty"`
	SortOrder    *int            `json:"sortOrder,omitempty"`
	DisplayOrder *int            `json:"displayOrder,omitempty"`
	Order        *int            `json:"order,omitempty"`
	SubMenus     json.RawMessage `json:"subMenus,omitempty"`
}

// Item is the canonical menu node the tree and the navigation work with.
type Item struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	DisplayName string  `json:"displayName"`
	Description string  `json:"description,omitempty"`
	Icon        string  `json:"icon,omitempty"`
	Route       string  `json:"route,omitempty"`
	ParentID    *string `json:"parentId"`
	Order       int     `json:"order"`
	Children    []*Item `json:"subMenus"`
}

// IsRoot reports whether the item declares no parent.
func (it *Item) IsRoot() bool {
	return it.ParentID == nil
}

// IsBranch reports whether the item has children once the tree is built.
func (it *Item) IsBranch() bool {
	return len(it.Children) > 0
}

// Menu is the persisted menu entity.
type Menu struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	DisplayName  string   `json:"displayName" yaml:"displayName"`
	Description  string   `json:"description" yaml:"description"`
	Icon         string   `json:"icon" yaml:"icon"`
	Route        string   `json:"route" yaml:"route"`
	ParentMenuID *string  `json:"parentMenuId" yaml:"parentMenuId"`
	SortOrder    int      `json:"sortOrder" yaml:"sortOrder"`
	Roles        []string `json:"roles" yaml:"roles"` // empty: visible to everybody
}

// NewMenu contains information needed to create a new Menu.
type NewMenu struct {
	Name         string   `json:"name" yaml:"name" validate:"required,alphanum_"`
	DisplayName  string   `json:"displayName" yaml:"displayName" validate:"required"`
	Description  string   `json:"description" yaml:"description"`
	Icon         string   `json:"icon" yaml:"icon"`
	Route        string   `json:"route" yaml:"route" validate:"omitempty,menuroute"`
	ParentMenuID *string  `json:"parentMenuId" yaml:"-"`
	Parent       string   `json:"-" yaml:"parent"` // seed files reference parents by name
	SortOrder    int      `json:"sortOrder" yaml:"sortOrder" validate:"gte=0"`
	Roles        []string `json:"roles" yaml:"roles" validate:"omitempty,allroles"`
}

func (nm *NewMenu) Validate(validate *validator.Validate) error {
	nm.Name = core.CleanString(nm.Name, true /* lower */)
	nm.DisplayName = core.CleanString(nm.DisplayName)
	nm.Description = core.CleanString(nm.Description)
	nm.Icon = core.CleanString(nm.Icon)
	nm.Route = core.CleanString(nm.Route)
	nm.ParentMenuID = core.StringPtr(core.StringVal(nm.ParentMenuID))
	return validate.Struct(nm)
}

// Node is a menu as returned by the hierarchy query: the parent's name and
// one level of (visible) sub menus are attached.
type Node struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	DisplayName    string  `json:"displayName"`
	Description    string  `json:"description,omitempty"`
	Icon           string  `json:"icon,omitempty"`
	Route          string  `json:"route,omitempty"`
	ParentMenuID   *string `json:"parentMenuId"`
	ParentMenuName string  `json:"parentMenuName,omitempty"`
	SortOrder      int     `json:"sortOrder"`
	SubMenus       []Node  `json:"subMenus"`
}

func newNode(m Menu) Node {
	return Node{
		ID:           m.ID,
		Name:         m.Name,
		DisplayName:  m.DisplayName,
		Description:  m.Description,
		Icon:         m.Icon,
		Route:        m.Route,
		ParentMenuID: m.ParentMenuID,
		SortOrder:    m.SortOrder,
		SubMenus:     []Node{},
	}
}
