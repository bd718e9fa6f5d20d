package nav

import (
	"strings"
	"sync"

	"github.com/edumanage/edumanage/core/menu"
)

// State is the open/closed flag of a branch node.
type State int

const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithDeepMatch makes a node descendant-active when any node of its subtree
// matches the location, instead of only its direct children.
func WithDeepMatch() Option {
	return func(n *Navigator) {
		n.deep = true
	}
}

// WithCollapsed starts the sidebar collapsed.
func WithCollapsed() Option {
	return func(n *Navigator) {
		n.collapsed = true
	}
}

// Navigator holds a mounted menu tree and the per-node open/closed state of
// one sidebar instance. It is safe for concurrent use.
type Navigator struct {
	mu        sync.Mutex
	roots     []*menu.Item
	states    map[string]State
	collapsed bool
	deep      bool
}

func New(opts ...Option) *Navigator {
	n := &Navigator{
		roots:  []*menu.Item{},
		states: make(map[string]State),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Mount replaces the tree. Every node starts Closed again.
func (n *Navigator) Mount(roots []*menu.Item) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if roots == nil {
		roots = []*menu.Item{}
	}
	n.roots = roots
	n.states = make(map[string]State)
}

// Mounted reports whether a tree with at least one node is mounted.
func (n *Navigator) Mounted() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.roots) > 0
}

// Toggle flips the stored state of a branch and returns it.
// Unknown ids and leaves are ignored.
func (n *Navigator) Toggle(id string) (State, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	it := menu.Find(n.roots, id)
	if it == nil || !it.IsBranch() {
		return Closed, false
	}
	next := Open
	if n.states[id] == Open {
		next = Closed
	}
	n.states[id] = next
	return next, true
}

// State returns the stored state of a node.
func (n *Navigator) State(id string) State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.states[id]
}

func (n *Navigator) SetCollapsed(collapsed bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.collapsed = collapsed
}

func (n *Navigator) Collapsed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.collapsed
}

// Sidebar is a render-ready snapshot of the navigation for one location.
type Sidebar struct {
	Location  string
	Collapsed bool
	Nodes     []*NodeView
}

// NodeView is a node as it should be drawn. Children is only filled for
// branches that are open while the sidebar is expanded.
type NodeView struct {
	ID          string
	Label       string
	Description string
	Route       string
	Icon        Icon
	Depth       int
	Branch      bool
	Open        bool
	Active      bool // the route is the location
	ChildActive bool // a descendant route matches the location
	Children    []*NodeView
}

// Highlighted reports whether the node gets the active emphasis.
func (v *NodeView) Highlighted() bool {
	return v.Active || v.ChildActive
}

// Href is the link target of a leaf.
func (v *NodeView) Href() string {
	if v.Route == "" {
		return "#"
	}
	return v.Route
}

// View computes the sidebar for `location`. Branches that are active or hold
// an active descendant are opened, and stay open after the location changes
// until the user closes them.
func (n *Navigator) View(location string) Sidebar {
	n.mu.Lock()
	defer n.mu.Unlock()

	return Sidebar{
		Location:  location,
		Collapsed: n.collapsed,
		Nodes:     n.view(n.roots, location, 0),
	}
}

func (n *Navigator) view(items []*menu.Item, location string, depth int) []*NodeView {
	views := make([]*NodeView, 0, len(items))
	for _, it := range items {
		v := &NodeView{
			ID:          it.ID,
			Label:       it.DisplayName,
			Description: it.Description,
			Route:       it.Route,
			Icon:        ResolveIcon(it.Icon),
			Depth:       depth,
			Branch:      it.IsBranch(),
			Active:      it.Route != "" && it.Route == location,
		}
		if v.Branch {
			v.ChildActive = n.descendantActive(it, location)
			if v.Active || v.ChildActive {
				n.states[it.ID] = Open
			}
			v.Open = n.states[it.ID] == Open
			if v.Open && !n.collapsed {
				v.Children = n.view(it.Children, location, depth+1)
			}
		}
		views = append(views, v)
	}
	return views
}

func (n *Navigator) descendantActive(it *menu.Item, location string) bool {
	for _, child := range it.Children {
		switch {
		case child.Route != "":
			if strings.HasPrefix(location, child.Route) {
				return true
			}
		case child.IsBranch():
			// a routeless branch is a pure grouping: it matches through its own children
			// so the chain down to the active item opens
			if n.descendantActive(child, location) {
				return true
			}
		}
		if n.deep && n.descendantActive(child, location) {
			return true
		}
	}
	return false
}
