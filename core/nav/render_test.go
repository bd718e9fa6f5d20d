package nav

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTML(t *testing.T) {
	n := mounted()
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, HTMLOptions{Sidebar: n.View("/academics/classes")}))
	html := buf.String()

	// branch: toggle form, no link
	assert.Contains(t, html, `action="/nav/toggle/acad"`)
	assert.Contains(t, html, `aria-expanded="true"`)
	assert.NotContains(t, html, `href="/admin"`)
	// leaves: links, the active one marked
	assert.Contains(t, html, `href="/academics/classes" class="menu__link menu__link--active"`)
	assert.Contains(t, html, `aria-current="page"`)
	assert.Contains(t, html, `data-lucide="school"`)
	assert.Contains(t, html, `data-lucide="graduation-cap"`)
	// closed branch children are not rendered
	assert.NotContains(t, html, "/admin/users")
	assert.Equal(t, 1, strings.Count(html, `aria-current="page"`))
}

func TestRenderHTML_collapsedAndEmpty(t *testing.T) {
	n := mounted(WithCollapsed())
	html, err := RenderHTMLString(HTMLOptions{Sidebar: n.View("/"), ToggleAction: "/app/toggle"})
	require.NoError(t, err)
	assert.Contains(t, string(html), "sidebar--collapsed")
	assert.Contains(t, string(html), `action="/app/toggle/acad"`)
	assert.NotContains(t, string(html), "<span>Dashboard</span>")

	html, err = RenderHTMLString(HTMLOptions{Sidebar: New().View("/")})
	require.NoError(t, err)
	assert.Contains(t, string(html), "No menus available.")
}

func TestRenderHTML_escapes(t *testing.T) {
	n := New()
	n.Mount(nil)
	sb := n.View(`/"><script>`)
	html, err := RenderHTMLString(HTMLOptions{Sidebar: sb})
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<script>")
}
