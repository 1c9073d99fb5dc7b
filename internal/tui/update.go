package tui

import (
	"context"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tinytelemetry/logstream/internal/model"
	"github.com/tinytelemetry/logstream/internal/widget"
)

// levelCycle is the order the level filter steps through.
var levelCycle = append([]string{model.LevelAll}, model.Levels...)

// Update handles incoming messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case streamEventMsg:
		if m.quitting {
			return m, nil
		}
		m.apply(m.widget.Handle(msg.ev))
		return m, waitForEvent(m.stream.Events())

	case streamClosedMsg:
		return m, nil

	case backfillMsg:
		if m.quitting {
			return m, nil
		}
		if msg.err != nil {
			m.logFailure("fetch backfill", msg.err)
			return m, nil
		}
		m.apply(m.widget.ApplyBackfill(msg.gen, msg.payload.Entries, msg.payload.Sources))
		return m, nil

	case statsMsg:
		if m.quitting {
			return m, nil
		}
		if msg.err != nil {
			m.logFailure("fetch stats", msg.err)
			return m, nil
		}
		m.widget.ApplyStats(msg.gen, msg.stats, msg.at)
		return m, nil

	case StatsTickMsg:
		if m.quitting {
			return m, nil
		}
		return m, tea.Batch(m.fetchStatsCmd(), m.statsTickCmd())

	case actionDoneMsg:
		if m.quitting {
			return m, nil
		}
		if msg.err != nil {
			m.logFailure(msg.action, msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		if m.searching {
			_, cmd := searchInputHandler{}.HandleMouse(m, msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.trackScroll()
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.searching {
		_, cmd := searchInputHandler{}.HandleKey(m, msg)
		return cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.ForceQuit):
		return m.quit()

	case key.Matches(msg, m.keys.Escape):
		if m.widget.Filter().SearchQuery != "" {
			m.search.SetValue("")
			m.setSearch("")
		}
		return nil

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.search.SetValue(m.widget.Filter().SearchQuery)
		m.search.CursorEnd()
		return m.search.Focus()

	case key.Matches(msg, m.keys.CycleLevel):
		f := m.widget.Filter()
		f.Level = nextInCycle(levelCycle, f.Level)
		m.setFilter(f)
		return nil

	case key.Matches(msg, m.keys.CycleSource):
		f := m.widget.Filter()
		f.Source = nextInCycle(append([]string{model.SourceAll}, m.widget.Sources()...), f.Source)
		m.setFilter(f)
		return nil

	case key.Matches(msg, m.keys.Pause):
		m.widget.SetPaused(!m.widget.Paused())
		return nil

	case key.Matches(msg, m.keys.AutoScroll):
		m.autoScroll = !m.autoScroll
		m.following = m.autoScroll
		if m.following {
			m.viewport.GotoBottom()
		}
		m.savePrefs()
		return nil

	case key.Matches(msg, m.keys.Clear):
		m.apply(m.widget.Clear())
		return m.actionCmd("clear logs", func(api API, ctx context.Context) error {
			return api.Clear(ctx)
		})

	case key.Matches(msg, m.keys.Demo):
		return m.actionCmd("demo logs", func(api API, ctx context.Context) error {
			return api.Demo(ctx)
		})

	case key.Matches(msg, m.keys.Home):
		m.viewport.GotoTop()
		m.trackScroll()
		return nil

	case key.Matches(msg, m.keys.End):
		m.viewport.GotoBottom()
		m.trackScroll()
		return nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	m.trackScroll()
	return cmd
}

// nextInCycle returns the option after current, wrapping to the first. An
// unknown current value restarts the cycle.
func nextInCycle(options []string, current string) string {
	i := slices.Index(options, current)
	return options[(i+1)%len(options)]
}

func (m *Model) quit() tea.Cmd {
	m.shutdown()
	return tea.Quit
}

func (m *Model) setFilter(f model.FilterState) {
	m.apply(m.widget.SetFilter(f))
	m.savePrefs()
}

func (m *Model) setSearch(query string) {
	f := m.widget.Filter()
	if f.SearchQuery == query {
		return
	}
	f.SearchQuery = query
	m.setFilter(f)
}

// apply brings the rendered list in line with one widget render op.
func (m *Model) apply(op widget.RenderOp) {
	m.list.evict(op.Evicted)
	switch op.Kind {
	case widget.OpFull:
		m.list.restyle(m.listWidth(), m.widget.Filter().SearchQuery)
		m.list.rebuild(m.widget.Visible())
	case widget.OpAppend:
		m.list.append(op.Entry)
	case widget.OpNone:
		if len(op.Evicted) == 0 {
			return
		}
	}
	m.refreshViewport()
}

func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.list.content())
	if m.following {
		m.viewport.GotoBottom()
	}
}

// trackScroll resumes following once the user is back at the bottom and
// stops it while they look at older entries.
func (m *Model) trackScroll() {
	m.following = m.autoScroll && m.viewport.AtBottom()
}

func (m *Model) resize() {
	w, h := m.listWidth(), m.listHeight()
	m.viewport.Width = w
	m.viewport.Height = h
	m.search.Width = max(w-4, 10)
	m.list.restyle(w, m.widget.Filter().SearchQuery)
	m.refreshViewport()
}

func (m *Model) listWidth() int {
	return max(m.width, 0)
}

// listHeight is what remains after the header, filter bar, stats panel
// and help line.
func (m *Model) listHeight() int {
	return max(m.height-m.chromeHeight(), 1)
}
