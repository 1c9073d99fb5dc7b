package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// searchInputHandler owns the keyboard while the search box is focused.
// The filter follows the input live; enter keeps the query and esc drops it.
type searchInputHandler struct{}

func (h searchInputHandler) HandleKey(m *Model, msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return true, m.quit()
	case "escape", "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.setSearch("")
		return true, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		return true, nil
	default:
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.setSearch(m.search.Value())
		return true, cmd
	}
}

func (h searchInputHandler) HandleMouse(_ *Model, _ tea.MouseMsg) (bool, tea.Cmd) {
	return true, nil
}
