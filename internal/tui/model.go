// Package tui is the terminal log-streaming dashboard: it renders a widget's
// entries, keeps the rendered list in sync with the widget's render ops, and
// feeds socket events, REST results and timers through one Update loop.
package tui

import (
	"context"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tinytelemetry/logstream/internal/model"
	"github.com/tinytelemetry/logstream/internal/prefs"
	"github.com/tinytelemetry/logstream/internal/widget"
)

// requestTimeout bounds each REST call issued from the dashboard.
const requestTimeout = 10 * time.Second

// API is the REST surface the dashboard calls.
type API interface {
	FetchLogs(ctx context.Context, limit int) (model.LogsPayload, error)
	FetchStats(ctx context.Context) (model.Stats, error)
	Clear(ctx context.Context) error
	Demo(ctx context.Context) error
}

// EventStream delivers socket events. Events must close after Close.
type EventStream interface {
	Start()
	Events() <-chan model.StreamEvent
	Close() error
}

// PrefsStore persists per-widget UI state.
type PrefsStore interface {
	Load(widget string, dest any) (bool, error)
	Save(widget string, v any) error
}

// Options configures a dashboard Model.
type Options struct {
	MaxEntries    int
	BackfillLimit int
	StatsInterval time.Duration
	WidgetName    string

	API    API
	Stream EventStream
	Prefs  PrefsStore // nil disables persistence
}

// Model is the bubbletea model for one log-streaming widget.
type Model struct {
	widget     *widget.Widget
	api        API
	stream     EventStream
	prefs      PrefsStore
	widgetName string

	backfillLimit int
	statsInterval time.Duration

	keys     KeyMap
	viewport viewport.Model
	search   textinput.Model
	list     logList

	searching  bool
	autoScroll bool
	// following is true while the view tracks the newest entry. Scrolling
	// away stops it; returning to the bottom resumes it.
	following bool

	width  int
	height int
	ready  bool

	quitting bool
}

type (
	streamEventMsg  struct{ ev model.StreamEvent }
	streamClosedMsg struct{}

	// gen on the response messages is the widget's clear generation when
	// the request was issued.
	backfillMsg struct {
		gen     uint64
		payload model.LogsPayload
		err     error
	}

	statsMsg struct {
		gen   uint64
		stats model.Stats
		at    time.Time
		err   error
	}

	// StatsTickMsg triggers a stats poll.
	StatsTickMsg time.Time

	actionDoneMsg struct {
		action string
		err    error
	}
)

// New builds the dashboard and applies saved preferences.
func New(opts Options) *Model {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = model.DefaultMaxDisplayEntries
	}
	if opts.BackfillLimit <= 0 {
		opts.BackfillLimit = model.DefaultBackfillLimit
	}
	if opts.StatsInterval <= 0 {
		opts.StatsInterval = model.DefaultStatsInterval
	}
	if opts.WidgetName == "" {
		opts.WidgetName = model.DefaultWidgetName
	}

	search := textinput.New()
	search.Placeholder = "Search message, source or level..."
	search.CharLimit = 200
	search.Prompt = "/ "

	vp := viewport.New(0, 0)
	vp.KeyMap = logViewportKeys()

	m := &Model{
		widget:        widget.New(opts.MaxEntries),
		api:           opts.API,
		stream:        opts.Stream,
		prefs:         opts.Prefs,
		widgetName:    opts.WidgetName,
		backfillLimit: opts.BackfillLimit,
		statsInterval: opts.StatsInterval,
		keys:          DefaultKeyMap(),
		viewport:      vp,
		search:        search,
		autoScroll:    true,
		following:     true,
	}
	m.loadPrefs()
	return m
}

// Widget exposes the underlying widget state.
func (m *Model) Widget() *widget.Widget { return m.widget }

func (m *Model) loadPrefs() {
	if m.prefs == nil {
		return
	}
	p := prefs.DefaultLogStreaming()
	found, err := m.prefs.Load(m.widgetName, &p)
	if err != nil {
		log.Printf("tui: load preferences: %v", err)
		return
	}
	if !found {
		return
	}
	// The search query is session-only, even if an older file kept one.
	p.Filter.SearchQuery = ""
	m.widget.SetFilter(p.Filter)
	m.autoScroll = p.AutoScroll
	m.following = p.AutoScroll
}

// savePrefs writes the level and source filters and auto-scroll; last
// write wins.
func (m *Model) savePrefs() {
	if m.prefs == nil {
		return
	}
	f := m.widget.Filter()
	f.SearchQuery = ""
	p := prefs.LogStreaming{Filter: f, AutoScroll: m.autoScroll}
	if err := m.prefs.Save(m.widgetName, p); err != nil {
		log.Printf("tui: save preferences: %v", err)
	}
}

// Init starts the socket stream and issues the initial REST calls.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.fetchBackfillCmd(), m.fetchStatsCmd(), m.statsTickCmd()}
	if m.stream != nil {
		m.stream.Start()
		cmds = append(cmds, waitForEvent(m.stream.Events()))
	}
	return tea.Batch(cmds...)
}

func waitForEvent(ch <-chan model.StreamEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return streamEventMsg{ev: ev}
	}
}

func (m *Model) fetchBackfillCmd() tea.Cmd {
	if m.api == nil {
		return nil
	}
	api, limit, gen := m.api, m.backfillLimit, m.widget.ClearGeneration()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		payload, err := api.FetchLogs(ctx, limit)
		return backfillMsg{gen: gen, payload: payload, err: err}
	}
}

func (m *Model) fetchStatsCmd() tea.Cmd {
	if m.api == nil {
		return nil
	}
	api, gen := m.api, m.widget.ClearGeneration()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		s, err := api.FetchStats(ctx)
		return statsMsg{gen: gen, stats: s, at: time.Now(), err: err}
	}
}

func (m *Model) statsTickCmd() tea.Cmd {
	return tea.Tick(m.statsInterval, func(t time.Time) tea.Msg {
		return StatsTickMsg(t)
	})
}

func (m *Model) actionCmd(action string, call func(API, context.Context) error) tea.Cmd {
	if m.api == nil {
		return nil
	}
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return actionDoneMsg{action: action, err: call(api, ctx)}
	}
}

// logFailure records a failed request. Failures never reach the screen;
// the connection indicator is the only error signal shown.
func (m *Model) logFailure(op string, err error) {
	log.Printf("tui: %s: %v", op, err)
}

// shutdown destroys the widget and closes the stream. Results that arrive
// afterwards are no-ops.
func (m *Model) shutdown() {
	if m.quitting {
		return
	}
	m.quitting = true
	m.widget.Destroy()
	if m.stream != nil {
		if err := m.stream.Close(); err != nil {
			log.Printf("tui: close stream: %v", err)
		}
	}
}
