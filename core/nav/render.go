package nav

import (
	"embed"
	"html/template"
	"io"
	"net/url"
	"strings"
)

//go:embed templates/*.html
var templates embed.FS

var sidebarTmpl = template.Must(template.New("sidebar").Funcs(template.FuncMap{
	"nodeCtx":   func(root HTMLOptions, v *NodeView) nodeCtx { return nodeCtx{Root: root, Node: v} },
	"toggleURL": toggleURL,
}).ParseFS(templates, "templates/sidebar.html"))

// HTMLOptions configures the form targets of the rendered sidebar.
type HTMLOptions struct {
	Sidebar        Sidebar
	ToggleAction   string // branch ids are appended
	CollapseAction string
}

type nodeCtx struct {
	Root HTMLOptions
	Node *NodeView
}

// RenderHTML writes the sidebar markup. Branches render as toggle forms,
// leaves as links.
func RenderHTML(w io.Writer, opts HTMLOptions) error {
	if opts.ToggleAction == "" {
		opts.ToggleAction = "/nav/toggle/"
	}
	if opts.CollapseAction == "" {
		opts.CollapseAction = "/nav/collapse"
	}
	return sidebarTmpl.ExecuteTemplate(w, "sidebar", opts)
}

// RenderHTMLString is RenderHTML into a string, for embedding in a layout.
func RenderHTMLString(opts HTMLOptions) (template.HTML, error) {
	var sb strings.Builder
	if err := RenderHTML(&sb, opts); err != nil {
		return "", err
	}
	return template.HTML(sb.String()), nil
}

func toggleURL(action, id string) string {
	if !strings.HasSuffix(action, "/") {
		action += "/"
	}
	return action + url.PathEscape(id)
}
