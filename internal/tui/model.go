// Package tui is the interactive terminal view over a task store.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskboard/internal/query"
	"taskboard/internal/store"
	"taskboard/internal/task"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
	modeSearch
)

// snapshotMsg carries a store state change into the update loop.
type snapshotMsg store.Snapshot

// opDoneMsg is sent when a store operation returns.
type opDoneMsg struct {
	applied bool
}

// Model is the bubbletea model for the task list.
type Model struct {
	ctx       context.Context
	store     *store.Store
	snapshots <-chan store.Snapshot

	tasks   []task.Task
	errMsg  string
	loading bool

	filter task.Filter
	search string
	cursor int

	mode    mode
	editing task.ID
	input   textinput.Model
	// inputErr is shown under the input line, e.g. for a bad due date.
	inputErr string

	width  int
	height int
}

// New creates a model over st. snapshots may be nil; when set, the model
// waits on it for state changes made while an operation is running.
func New(ctx context.Context, st *store.Store, snapshots <-chan store.Snapshot) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 500
	ti.Width = 60
	ti.PromptStyle = promptStyle
	ti.PlaceholderStyle = dimStyle

	snap := st.Snapshot()
	return Model{
		ctx:       ctx,
		store:     st,
		snapshots: snapshots,
		tasks:     snap.Tasks,
		errMsg:    snap.Err,
		loading:   snap.Loading,
		filter:    task.FilterAll,
		input:     ti,
	}
}

// Init loads the list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForSnapshot(), m.load())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.width > 10 {
			m.input.Width = m.width - 4
		}
		return m, nil

	case snapshotMsg:
		m.apply(store.Snapshot(msg))
		return m, m.waitForSnapshot()

	case opDoneMsg:
		m.apply(m.store.Snapshot())
		return m, nil

	case tea.KeyMsg:
		if m.mode != modeList {
			return m.updateInput(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "j", "down":
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case " ", "x":
		if t, ok := m.selected(); ok {
			return m, m.run(func(ctx context.Context) bool {
				return m.store.Toggle(ctx, t.ID).Applied
			})
		}

	case "d":
		if t, ok := m.selected(); ok {
			return m, m.run(func(ctx context.Context) bool {
				return m.store.Remove(ctx, t.ID).Applied
			})
		}

	case "a":
		m.mode = modeAdd
		m.input.Placeholder = "New task  !high due:YYYY-MM-DD"
		m.input.SetValue("")
		return m, m.input.Focus()

	case "e":
		if t, ok := m.selected(); ok {
			m.mode = modeEdit
			m.editing = t.ID
			m.input.Placeholder = ""
			m.input.SetValue(formatEntry(t))
			m.input.CursorEnd()
			return m, m.input.Focus()
		}

	case "/":
		m.mode = modeSearch
		m.input.Placeholder = "Search tasks..."
		m.input.SetValue(m.search)
		m.input.CursorEnd()
		return m, m.input.Focus()

	case "esc":
		if m.search != "" {
			m.search = ""
			m.cursor = 0
		}

	case "f":
		m.filter = m.filter.Next()
		m.cursor = 0

	case "c":
		m.store.ClearError()
		m.errMsg = ""

	case "r":
		return m, m.load()
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		if m.mode == modeSearch {
			m.search = ""
			m.cursor = 0
		}
		m.closeInput()
		return m, nil

	case "enter":
		value := m.input.Value()
		switch m.mode {
		case modeSearch:
			m.search = value
			m.cursor = 0
			m.closeInput()
			return m, nil

		case modeAdd:
			e, err := parseEntry(value)
			if err != nil {
				m.inputErr = err.Error()
				return m, nil
			}
			m.closeInput()
			m.cursor = 0
			return m, m.run(func(ctx context.Context) bool {
				return m.store.Add(ctx, e.text, e.priority, e.due).Applied
			})

		case modeEdit:
			e, err := parseEntry(value)
			if err != nil {
				m.inputErr = err.Error()
				return m, nil
			}
			id := m.editing
			m.closeInput()
			return m, m.run(func(ctx context.Context) bool {
				return m.store.Edit(ctx, id, e.text, e.priority, e.due).Applied
			})
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeSearch {
		// Search narrows the list as you type.
		m.search = m.input.Value()
		m.cursor = 0
	}
	return m, cmd
}

func (m *Model) closeInput() {
	m.mode = modeList
	m.editing = ""
	m.inputErr = ""
	m.input.Blur()
	m.input.SetValue("")
}

// apply replaces the displayed state and keeps the cursor in range.
func (m *Model) apply(s store.Snapshot) {
	m.tasks = s.Tasks
	m.errMsg = s.Err
	m.loading = s.Loading
	if n := len(m.visible()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

// visible is the list after the filter and search are applied.
func (m Model) visible() []task.Task {
	return query.FilterAndSearch(m.tasks, m.filter, m.search)
}

func (m Model) selected() (task.Task, bool) {
	v := m.visible()
	if m.cursor < 0 || m.cursor >= len(v) {
		return task.Task{}, false
	}
	return v[m.cursor], true
}

func (m Model) load() tea.Cmd {
	return m.run(func(ctx context.Context) bool {
		return m.store.Load(ctx, task.FilterAll, "").Applied
	})
}

// run executes op off the update loop.
func (m Model) run(op func(ctx context.Context) bool) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{applied: op(ctx)}
	}
}

func (m Model) waitForSnapshot() tea.Cmd {
	if m.snapshots == nil {
		return nil
	}
	ch := m.snapshots
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}
