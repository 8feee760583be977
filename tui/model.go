package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"neo-midi/config"
	"neo-midi/debug"
	"neo-midi/generator"
	"neo-midi/midi"
	"neo-midi/theme"
)

const (
	defaultWidth  = 100
	defaultHeight = 30
	formWidth     = 48
)

type Model struct {
	Session    *generator.Session
	Journal    *generator.Journal
	Ports      *midi.PortWatcher
	Theme      *theme.Theme
	ConfigPath string

	form     *form
	width    int
	height   int
	stopping bool
	quitting bool
}

type JournalMsg struct{}

type PortsMsg midi.PortsChanged

// StoppedMsg reports the end of a Stop issued from the UI
type StoppedMsg struct {
	Err error
}

// Options bundles what NewModel needs besides the settings
type Options struct {
	Session    *generator.Session
	Journal    *generator.Journal
	Ports      *midi.PortWatcher // may be nil
	Theme      *theme.Theme
	ConfigPath string
}

func NewModel(opts Options, settings config.Settings) Model {
	var ports []string
	if opts.Ports != nil {
		ports = opts.Ports.Ports()
	}
	return Model{
		Session:    opts.Session,
		Journal:    opts.Journal,
		Ports:      opts.Ports,
		Theme:      opts.Theme,
		ConfigPath: opts.ConfigPath,
		form:       newForm(settings, ports),
		width:      defaultWidth,
		height:     defaultHeight,
	}
}

func ListenForJournal(j *generator.Journal) tea.Cmd {
	return func() tea.Msg {
		<-j.UpdateChan
		return JournalMsg{}
	}
}

func ListenForPorts(pw *midi.PortWatcher) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-pw.Events()
		if !ok {
			return nil
		}
		return PortsMsg(event)
	}
}

func stopCmd(s *generator.Session) tea.Cmd {
	return func() tea.Msg {
		return StoppedMsg{Err: s.Stop()}
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForJournal(m.Journal)}
	if m.Ports != nil {
		cmds = append(cmds, ListenForPorts(m.Ports))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case JournalMsg:
		return m, ListenForJournal(m.Journal)

	case PortsMsg:
		m.form.fields[rowPort].setOptions(msg.Ports)
		if m.Ports == nil {
			return m, nil
		}
		return m, ListenForPorts(m.Ports)

	case StoppedMsg:
		m.stopping = false
		if m.quitting {
			return m, tea.Quit
		}
		if errors.Is(msg.Err, generator.ErrNotRunning) {
			m.Journal.Printf("MIDI generation is not running.")
		}
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		if m.Session.State() == generator.Idle {
			return m, tea.Quit
		}
		if m.stopping {
			return m, nil
		}
		m.stopping = true
		return m, stopCmd(m.Session)

	case "ctrl+s":
		m.save()

	case "ctrl+l":
		m.Journal.Clear()

	case "ctrl+g":
		m.start()

	case "ctrl+x":
		if m.stopping {
			return m, nil
		}
		m.stopping = true
		return m, stopCmd(m.Session)

	case "up", "shift+tab":
		m.form.move(-1)

	case "down", "tab", "enter":
		m.form.move(1)

	case "left":
		m.form.focused().cycle(-1)

	case "right":
		m.form.focused().cycle(1)

	case "backspace":
		m.form.focused().backspace()

	case " ", "space":
		m.form.focused().insert(" ")

	default:
		if msg.Type == tea.KeyRunes {
			m.form.focused().insert(string(msg.Runes))
		}
	}

	return m, nil
}

func (m Model) save() {
	s, err := m.form.settings()
	if err != nil {
		m.reportFormError(err)
		return
	}
	if err := s.Save(m.ConfigPath); err != nil {
		debug.Error("tui", err, "save settings")
		m.Journal.Printf("Error saving settings: %v", err)
		return
	}
	m.Journal.Printf("Settings saved successfully.")
}

func (m Model) start() {
	s, err := m.form.settings()
	if err != nil {
		m.reportFormError(err)
		return
	}
	// Session reports its own rejections to the journal
	if err := m.Session.Start(s.WithEnvAPIKey()); err != nil {
		debug.Log("tui", "start rejected: %v", err)
	}
}

func (m Model) reportFormError(err error) {
	if errors.Is(err, errInvalidNumber) {
		m.Journal.Printf("Error: Invalid input in MIDI note range, velocity, or tempo fields.")
		return
	}
	m.Journal.Printf("Error: %v", err)
}

func (m Model) View() string {
	if m.quitting && !m.stopping {
		return ""
	}

	state := m.Session.State()

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())

	stateSym := m.Theme.Symbols.StateOff
	stateStyle := dimStyle
	if state != generator.Idle {
		stateSym = m.Theme.Symbols.StateRun
		stateStyle = lipgloss.NewStyle().Foreground(m.Theme.BG()).Background(m.Theme.Active())
	}
	header := headerStyle.Render("NEAR EARTH OBJECTS") + "  " +
		stateStyle.Render(fmt.Sprintf("%c %s", stateSym, state))

	help := dimStyle.Render("↑↓:field  ←→:choose  ^G:start  ^X:stop  ^S:save  ^L:clear  esc:quit")

	// header + blank + body + blank + help
	bodyHeight := max(m.height-4, 5)
	logWidth := max(m.width-formWidth-3, 20)

	left := m.renderLog(logWidth, bodyHeight)
	right := m.renderForm()
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(logWidth).Render(left),
		"   ",
		right,
	)

	var out strings.Builder
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(body)
	out.WriteString("\n\n")
	out.WriteString(help)
	return out.String()
}

func (m Model) renderLog(width, height int) string {
	lines := m.Journal.Tail(height)
	sym := m.Theme.Symbols

	base := lipgloss.NewStyle().Foreground(m.Theme.FG()).MaxWidth(width)
	errStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning()).MaxWidth(width)
	okStyle := lipgloss.NewStyle().Foreground(m.Theme.Success()).MaxWidth(width)

	var out strings.Builder
	for i, line := range lines {
		if i > 0 {
			out.WriteString("\n")
		}
		var note, velocity uint8
		switch {
		case strings.HasPrefix(line, "Note On:"):
			style := base
			if _, err := fmt.Sscanf(line, "Note On: %d, Velocity: %d", &note, &velocity); err == nil {
				style = style.Foreground(m.Theme.Velocity(velocity))
				line += "  " + midi.NoteName(note)
			}
			out.WriteString(style.Render(fmt.Sprintf("%c %s", sym.NoteOn, line)))
		case strings.HasPrefix(line, "Note Off:"):
			if _, err := fmt.Sscanf(line, "Note Off: %d", &note); err == nil {
				line += "  " + midi.NoteName(note)
			}
			out.WriteString(base.Faint(true).Render(fmt.Sprintf("%c %s", sym.NoteOff, line)))
		case strings.HasPrefix(line, "Error"):
			out.WriteString(errStyle.Render(fmt.Sprintf("%c %s", sym.Error, line)))
		case strings.HasPrefix(line, "Settings saved"), strings.HasPrefix(line, "Connected"):
			out.WriteString(okStyle.Render(fmt.Sprintf("%c %s", sym.Bullet, line)))
		default:
			out.WriteString(base.Render(fmt.Sprintf("%c %s", sym.Bullet, line)))
		}
	}
	return out.String()
}

func (m Model) renderForm() string {
	labelStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	valueStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	cursorStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent()).Bold(true)
	sym := m.Theme.Symbols

	var out strings.Builder
	out.WriteString(lipgloss.NewStyle().Foreground(m.Theme.Accent()).Render("SETTINGS"))
	out.WriteString("\n")
	out.WriteString(lipgloss.NewStyle().Foreground(m.Theme.Surface()).Render(strings.Repeat("─", formWidth)))
	out.WriteString("\n")

	for i := range m.form.fields {
		f := &m.form.fields[i]
		value := f.current()
		switch f.kind {
		case fieldSecret:
			value = strings.Repeat(string(sym.Mask), len([]rune(value)))
		case fieldChoice:
			if value == "" {
				value = "(none)"
			}
			value = fmt.Sprintf("%s %c", value, sym.Choice)
		}
		if len([]rune(value)) > formWidth-4 {
			value = string([]rune(value)[:formWidth-5]) + "…"
		}

		if i == m.form.cursor {
			out.WriteString(cursorStyle.Render(fmt.Sprintf("%c %s", sym.Cursor, f.label)))
			out.WriteString("\n")
			out.WriteString(cursorStyle.Render(fmt.Sprintf("  [%s]", value)))
		} else {
			out.WriteString(labelStyle.Render("  " + f.label))
			out.WriteString("\n")
			out.WriteString(valueStyle.Render("   " + value))
		}
		out.WriteString("\n")
	}
	return out.String()
}
