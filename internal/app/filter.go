package app

import (
	"regexp"
	"strings"
)

// FilterState is the current narrowing of the conference list: the set of
// selected themes plus a free-text search string. The zero value selects
// nothing; use NewFilterState to start with the full vocabulary selected.
type FilterState struct {
	Themes map[string]bool
	Search string
}

// NewFilterState returns a state with every theme of the vocabulary selected
// and no search text.
func NewFilterState(vocabulary []string) FilterState {
	themes := make(map[string]bool, len(vocabulary))
	for _, t := range vocabulary {
		themes[t] = true
	}
	return FilterState{Themes: themes}
}

// Matches reports whether the conference passes the filter. An empty theme
// selection matches nothing: "select none shows nothing" is the intended
// behavior of the deselect-all control, not a missing default.
func (f FilterState) Matches(c *Conference) bool {
	if len(f.Themes) == 0 {
		return false
	}

	effective := c.EffectiveThemes()
	selected := false
	for _, t := range effective {
		if f.Themes[t] {
			selected = true
			break
		}
	}
	if !selected {
		return false
	}

	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(c.Name), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(c.ShortName), needle) {
		return true
	}
	for _, t := range effective {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

// Apply filters the conference list, preserving the original order.
func (f FilterState) Apply(conferences []Conference) []Conference {
	var filtered []Conference
	for i := range conferences {
		if f.Matches(&conferences[i]) {
			filtered = append(filtered, conferences[i])
		}
	}
	return filtered
}

// Filter actions. Every UI binding funnels through Update so that state
// transitions stay testable without simulating events.
const (
	ActionSelectAll   = "select_all"
	ActionDeselectAll = "deselect_all"
	ActionToggleTheme = "toggle_theme"
	ActionSetSearch   = "set_search"
)

// Action is one filter-state transition request.
type Action struct {
	Kind  string
	Theme string
	Text  string
}

// Update applies an action to a filter state and returns the new state. The
// input state is not modified.
func Update(state FilterState, vocabulary []string, action Action) FilterState {
	next := FilterState{
		Themes: make(map[string]bool, len(state.Themes)),
		Search: state.Search,
	}
	for t, on := range state.Themes {
		if on {
			next.Themes[t] = true
		}
	}

	switch action.Kind {
	case ActionSelectAll:
		for _, t := range vocabulary {
			next.Themes[t] = true
		}
	case ActionDeselectAll:
		next.Themes = make(map[string]bool)
	case ActionToggleTheme:
		if next.Themes[action.Theme] {
			delete(next.Themes, action.Theme)
		} else {
			next.Themes[action.Theme] = true
		}
	case ActionSetSearch:
		next.Search = action.Text
	}
	return next
}

var themePrefixRe = regexp.MustCompile(`^\d+\.\s*`)

// StripThemePrefix removes the ordering prefix from a theme name
// ("01. Systems" -> "Systems"). Themes without a prefix pass through.
func StripThemePrefix(theme string) string {
	return strings.TrimSpace(themePrefixRe.ReplaceAllString(theme, ""))
}
