package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"procmon/internal/app"
	"procmon/internal/format"
	"procmon/internal/snapshot"
	"procmon/internal/tree"
)

// renderInterval paces input handling and redraws. Sampling runs on the
// session's own interval.
const renderInterval = 100 * time.Millisecond

const minMemoryScale = 1 << 20

// Controller defines the subset of app.App behaviour the TUI needs.
type Controller interface {
	StartSession(context.Context, app.TopParams) (*app.Session, error)
	SystemMemory(context.Context) (app.SystemMemory, error)
}

type keyMap struct {
	Quit key.Binding
	Sort key.Binding
	Tree key.Binding
	Up   key.Binding
	Down key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Sort, k.Tree, k.Up, k.Down}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultKeys() keyMap {
	return keyMap{
		Quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q/esc", "quit")),
		Sort: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "next sort")),
		Tree: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle tree")),
		Up:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	}
}

// Model represents the Bubble Tea state.
type Model struct {
	controller Controller
	ctx        context.Context
	session    *app.Session

	table table.Model
	cols  []table.Column
	keys  keyMap
	help  help.Model

	sort     snapshot.SortKey
	treeView bool

	procs  []snapshot.Process
	system *app.SystemMemory
	err    error

	width  int
	height int

	lastUpdated time.Time
}

// New constructs a TUI model around an already started session.
func New(ctrl Controller, session *app.Session) *Model {
	cols := columns(80)
	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	return &Model{
		controller: ctrl,
		ctx:        context.Background(),
		session:    session,
		table:      t,
		cols:       cols,
		keys:       defaultKeys(),
		help:       help.New(),
		sort:       session.Params.Sort,
		treeView:   session.Params.Tree,
	}
}

// Run starts a session and spins up the Bubble Tea program until the user
// quits.
func Run(ctrl Controller, params app.TopParams) error {
	session, err := ctrl.StartSession(context.Background(), params)
	if err != nil {
		return err
	}
	defer session.Close()

	m := New(ctrl, session)
	prog := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return err
	}
	return m.Err()
}

// Err returns the acquisition failure that ended the session, if any.
func (m *Model) Err() error {
	return m.err
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(renderInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return func() tea.Msg { return tickMsg(time.Now()) }
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case tickMsg:
		now := time.Time(msg)
		if m.session.Sampler.Due(now) {
			if err := m.sample(now); err != nil {
				return m, tea.Quit
			}
		}
		return m, tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Sort):
			m.sort = (m.sort + 1) % (snapshot.SortName + 1)
			m.refreshRows()
			return m, nil
		case key.Matches(msg, m.keys.Tree):
			m.treeView = !m.treeView
			m.refreshRows()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// sample runs one acquisition synchronously so the session's sampler only
// ever has one caller. A failed acquisition ends the session; processes
// that vanish mid-scan are already dropped by the inspector.
func (m *Model) sample(now time.Time) error {
	procs, err := m.session.Sampler.Tick(m.ctx, now)
	if err != nil {
		m.err = err
		return err
	}
	m.procs = procs
	m.lastUpdated = now
	if sys, err := m.controller.SystemMemory(m.ctx); err == nil {
		m.system = &sys
	}
	m.refreshRows()
	return nil
}

func (m *Model) refreshRows() {
	procs := make([]snapshot.Process, len(m.procs))
	copy(procs, m.procs)

	var prefixes []string
	if m.treeView {
		nodes := tree.Build(procs, m.sort)
		prefixes = tree.Prefixes(nodes)
		for i, n := range nodes {
			procs[i] = n.Process
		}
	} else {
		snapshot.SortProcesses(procs, m.sort)
	}

	nameWidth := m.nameWidth()
	rows := make([]table.Row, 0, len(procs))
	for i, p := range procs {
		name := p.Name
		if prefixes != nil {
			name = prefixes[i] + name
		}
		rows = append(rows, table.Row{
			strconv.Itoa(int(p.PID)),
			format.Truncate(name, nameWidth),
			strconv.Itoa(p.ThreadCount),
			fmt.Sprintf("%.2f", p.CPUPercent),
			format.Bytes(p.MemoryBytes),
			p.Status.String(),
		})
	}
	m.table.SetRows(rows)
}

func columns(width int) []table.Column {
	name := width - 8 - 8 - 8 - 12 - 8 - 14
	if name < 12 {
		name = 12
	}
	return []table.Column{
		{Title: "PID", Width: 8},
		{Title: "Name", Width: name},
		{Title: "Threads", Width: 8},
		{Title: "CPU %", Width: 8},
		{Title: "Memory", Width: 12},
		{Title: "Status", Width: 8},
	}
}

func (m *Model) nameWidth() int {
	return m.cols[1].Width
}

func (m *Model) layout() {
	if m.width > 0 {
		m.cols = columns(m.width)
		m.table.SetColumns(m.cols)
		m.table.SetWidth(m.width)
	}
	used := lipgloss.Height(m.headerView()) + lipgloss.Height(m.trendView()) + 3
	if h := m.height - used; h > 3 {
		m.table.SetHeight(h)
	}
	m.refreshRows()
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteByte('\n')
	if trend := m.trendView(); trend != "" {
		b.WriteString(trend)
		b.WriteByte('\n')
	}
	b.WriteString(m.table.View())
	b.WriteByte('\n')
	b.WriteString(m.statusView())
	b.WriteByte('\n')
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	memStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
	cpuStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
)

func (m *Model) headerView() string {
	p := m.session.Params
	title := fmt.Sprintf("Process Monitor: '%s'", p.Name)
	if p.MinMemoryMB > 0 {
		title += fmt.Sprintf(" (>= %d MB)", p.MinMemoryMB)
	}
	title += fmt.Sprintf(" | Sort: %s", m.sort)
	if m.treeView {
		title += " | Tree"
	}

	lines := []string{titleStyle.Render(title)}
	if m.system != nil {
		lines = append(lines, m.system.MemoryLine(), m.system.SwapLine())
	}
	t := app.Summarize(m.procs)
	lines = append(lines,
		fmt.Sprintf("Processes: %d | Threads: %d | CPU: %s", t.Count, t.Threads, format.Percent(t.CPU)),
		fmt.Sprintf("Memory: %s (Min: %s, Avg: %s, Max: %s)",
			format.Bytes(t.Memory), format.Bytes(t.MinMemory), format.Bytes(t.AvgMemory), format.Bytes(t.MaxMemory)),
	)
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) trendView() string {
	w := m.session.Sampler.Window()
	if w == nil {
		return ""
	}
	if w.Len() < 2 {
		return boxStyle.Render(mutedStyle.Render("Collecting data for graphs..."))
	}

	width := m.width - 4
	if width <= 0 {
		width = w.Cap()
	}
	memMax := w.MaxMemory() * 3 / 2
	if memMax < minMemoryScale {
		memMax = minMemoryScale
	}
	memLine := fmt.Sprintf("Memory Trend (%d points, Max: %s)\n%s",
		w.Len(), format.Bytes(w.MaxMemory()), memStyle.Render(sparkline(w.MemorySeries(), memMax, width)))
	cpuLine := fmt.Sprintf("CPU Trend (%d points, Max: %s)\n%s",
		w.Len(), format.Percent(w.MaxCPU()), cpuStyle.Render(sparkline(w.CPUSeries(), 100, width)))
	return boxStyle.Render(memLine + "\n" + cpuLine)
}

func (m *Model) statusView() string {
	if m.err != nil {
		return errStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if warn := m.session.Warning(); warn != "" {
		return warnStyle.Render("Warning: " + warn)
	}
	status := "Press 'q' or 'Esc' to quit"
	if m.session.Logging() {
		status += " • logging to " + m.session.Params.LogPath
	}
	if !m.lastUpdated.IsZero() {
		status += fmt.Sprintf(" • last update %s", m.lastUpdated.Format(time.Kitchen))
	}
	return mutedStyle.Render(status)
}
