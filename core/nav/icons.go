package nav

import (
	"regexp"
	"strings"
)

// Icon is one of the glyphs the sidebar knows how to draw.
type Icon int

const (
	IconCircle Icon = iota // fallback
	IconBarChart
	IconBell
	IconBookOpen
	IconBuilding
	IconCalendar
	IconClipboardList
	IconCreditCard
	IconFileText
	IconFolder
	IconGraduationCap
	IconHome
	IconKey
	IconLayers
	IconLayoutDashboard
	IconLibrary
	IconList
	IconLogOut
	IconMail
	IconMenu
	IconSchool
	IconSettings
	IconShield
	IconUser
	IconUserCog
	IconUsers
)

type iconInfo struct {
	name  string // lucide name
	glyph string // terminal rendering
}

var icons = map[Icon]iconInfo{
	IconCircle:          {"circle", "○"},
	IconBarChart:        {"bar-chart", "▥"},
	IconBell:            {"bell", "♪"},
	IconBookOpen:        {"book-open", "▤"},
	IconBuilding:        {"building", "▦"},
	IconCalendar:        {"calendar", "▣"},
	IconClipboardList:   {"clipboard-list", "☰"},
	IconCreditCard:      {"credit-card", "▭"},
	IconFileText:        {"file-text", "▯"},
	IconFolder:          {"folder", "▰"},
	IconGraduationCap:   {"graduation-cap", "▲"},
	IconHome:            {"home", "⌂"},
	IconKey:             {"key", "⚷"},
	IconLayers:          {"layers", "≋"},
	IconLayoutDashboard: {"layout-dashboard", "▚"},
	IconLibrary:         {"library", "▮"},
	IconList:            {"list", "≡"},
	IconLogOut:          {"log-out", "⇥"},
	IconMail:            {"mail", "✉"},
	IconMenu:            {"menu", "☰"},
	IconSchool:          {"school", "⛫"},
	IconSettings:        {"settings", "⚙"},
	IconShield:          {"shield", "⛨"},
	IconUser:            {"user", "☺"},
	IconUserCog:         {"user-cog", "☻"},
	IconUsers:           {"users", "☷"},
}

var (
	// PascalCase name -> Icon
	registry = func() map[string]Icon {
		m := make(map[string]Icon, len(icons))
		for icon, info := range icons {
			m[pascalCase(info.name)] = icon
		}
		return m
	}()

	separatorRegex = regexp.MustCompile(`[-_ ](\w)`)
)

// String returns the lucide icon name.
func (i Icon) String() string {
	if info, ok := icons[i]; ok {
		return info.name
	}
	return icons[IconCircle].name
}

// Glyph returns a single character stand-in for terminals.
func (i Icon) Glyph() string {
	if info, ok := icons[i]; ok {
		return info.glyph
	}
	return icons[IconCircle].glyph
}

// ResolveIcon maps a free-text icon token ("user-cog", "graduation_cap",
// "Home") to a known Icon. Unknown or blank tokens resolve to IconCircle.
func ResolveIcon(token string) Icon {
	token = strings.TrimSpace(token)
	if token == "" {
		return IconCircle
	}
	if icon, ok := registry[pascalCase(token)]; ok {
		return icon
	}
	return IconCircle
}

func pascalCase(token string) string {
	s := separatorRegex.ReplaceAllStringFunc(token, func(m string) string {
		return strings.ToUpper(m[1:])
	})
	return strings.ToUpper(s[:1]) + s[1:]
}
