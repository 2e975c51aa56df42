package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"plaguedoc/internal/rain"
	"plaguedoc/internal/terminal"
)

// Styles.
var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("10")).
			Background(lipgloss.Color("0")).
			Padding(0, 1)
	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10")).
			Background(lipgloss.Color("0")).
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("10")).
			Padding(0, 3)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("22"))
)

const maxPanelWidth = 120

// Messages.
type frameMsg struct{}
type bufferMsg struct{}

// waitFor turns one signal on ch into msg.
func waitFor(ch <-chan struct{}, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return msg
	}
}

// signal does a non-blocking, coalescing send.
func signal(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

type keyMap struct {
	Activate key.Binding
	Up       key.Binding
	Down     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Activate: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "activate")),
		Up:       key.NewBinding(key.WithKeys("up", "pgup", "k"), key.WithHelp("↑/pgup", "scroll up")),
		Down:     key.NewBinding(key.WithKeys("down", "pgdown", "j"), key.WithHelp("↓/pgdn", "scroll down")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Activate, k.Up, k.Down, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Activate}, {k.Up, k.Down}, {k.Help, k.Quit}}
}

// Model.
type model struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	scheduler *rain.Scheduler
	resizer   *rain.ResizeController
	pipeline  *terminal.Pipeline
	buffer    *terminal.Buffer
	frames    <-chan struct{}
	changes   <-chan struct{}

	keys      keyMap
	help      help.Model
	viewport  viewport.Model
	panelOpen bool

	// Buffer version and cursor state last rendered into the viewport.
	shownVersion uint64
	shownTyping  bool

	ready         bool
	width, height int
}

func initialModel(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *slog.Logger,
	scheduler *rain.Scheduler,
	resizer *rain.ResizeController,
	pipeline *terminal.Pipeline,
	buffer *terminal.Buffer,
	frames, changes <-chan struct{},
) model {
	return model{
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger,
		scheduler: scheduler,
		resizer:   resizer,
		pipeline:  pipeline,
		buffer:    buffer,
		frames:    frames,
		changes:   changes,
		keys:      newKeyMap(),
		help:      help.New(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitFor(m.frames, frameMsg{}), waitFor(m.changes, bufferMsg{}))
}

// panelRect returns the terminal panel's outer position and size.
func (m model) panelRect() (x, y, w, h int) {
	w = m.width - 4
	if w > maxPanelWidth {
		w = maxPanelWidth
	}
	h = m.height - 5
	if w < 10 {
		w = 10
	}
	if h < 5 {
		h = 5
	}
	return (m.width - w) / 2, 1, w, h
}

func (m *model) layoutViewport() {
	_, _, w, h := m.panelRect()
	// Border and horizontal padding.
	innerW, innerH := w-4, h-2
	if !m.ready {
		m.viewport = viewport.New(innerW, innerH)
		m.viewport.MouseWheelEnabled = true
		m.ready = true
	} else {
		m.viewport.Width = innerW
		m.viewport.Height = innerH
	}
	m.refreshPanel(true)
}

// refreshPanel re-renders the panel content when the buffer or the cursor
// changed since the last render, or always when force is set.
func (m *model) refreshPanel(force bool) {
	version := m.buffer.Version()
	typing := m.pipeline.State().Phase == terminal.TypingHeader
	if !force && version == m.shownVersion && typing == m.shownTyping {
		return
	}
	m.shownVersion, m.shownTyping = version, typing
	m.viewport.SetContent(terminal.Render(m.buffer, m.viewport.Width, typing))
	m.viewport.GotoBottom()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancel()
			m.resizer.Stop()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Activate):
			if m.pipeline.Activate(m.ctx) {
				m.panelOpen = true
				m.keys.Activate.SetEnabled(false)
				m.logger.Info("terminal activated")
			}
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			// The first size is the initial canvas; only later changes are
			// debounced.
			m.scheduler.Resize(m.width, m.height-1)
		} else {
			m.resizer.Notify(m.width, m.height-1)
		}
		m.layoutViewport()
		return m, nil

	case frameMsg:
		return m, waitFor(m.frames, frameMsg{})

	case bufferMsg:
		if m.ready {
			m.refreshPanel(false)
		}
		return m, waitFor(m.changes, bufferMsg{})
	}

	if m.ready && m.panelOpen {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}

	footer := m.footer()
	rows := m.height - lipgloss.Height(footer)
	var overlay []string
	ox, oy := 0, 0
	if m.panelOpen {
		var w int
		ox, oy, w, _ = m.panelRect()
		overlay = strings.Split(panelStyle.Width(w-2).Render(m.viewport.View()), "\n")
	} else {
		overlay = strings.Split(buttonStyle.Render("WELCOME"), "\n")
		bw := lipgloss.Width(overlay[0])
		ox, oy = (m.width-bw)/2, (rows-len(overlay))/2
	}

	var b strings.Builder
	for y := 0; y < rows; y++ {
		if y > 0 {
			b.WriteString("\n")
		}
		if i := y - oy; i >= 0 && i < len(overlay) {
			line := overlay[i]
			lw := lipgloss.Width(line)
			b.WriteString(m.scheduler.Line(y, 0, ox))
			b.WriteString(line)
			b.WriteString(m.scheduler.Line(y, ox+lw, m.width))
			continue
		}
		b.WriteString(m.scheduler.Line(y, 0, m.width))
	}
	b.WriteString("\n")
	b.WriteString(footer)
	return b.String()
}

func (m model) footer() string {
	status := "ready"
	switch st := m.pipeline.State(); st.Phase {
	case terminal.TypingHeader:
		status = "typing"
	case terminal.AwaitingSource:
		status = fmt.Sprintf("fetching %d", st.Source+1)
	case terminal.Settled:
		status = "settled"
	default:
		if !m.pipeline.Enabled() {
			status = "opening"
		}
	}
	right := status + " "
	m.help.Width = m.width - len(right) - 2
	text := " " + m.help.View(m.keys)
	gap := m.width - lipgloss.Width(text) - len(right)
	if gap < 1 {
		gap = 1
	}
	return footerStyle.MaxWidth(m.width).Render(text + strings.Repeat(" ", gap) + right)
}
