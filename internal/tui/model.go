// Package tui is a terminal surface for a viewer session.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.uber.org/zap"

	"github.com/sleepsense/sleepview/internal/render"
	"github.com/sleepsense/sleepview/internal/viewer"
	"github.com/sleepsense/sleepview/internal/viewport"
	"github.com/sleepsense/sleepview/pkg/schema"
)

// ScrollStep is the fraction of the window width moved per scroll key.
const ScrollStep = 0.1

const labelWidth = 15

// ExtendedMsg carries a new extent from an ingest source.
type ExtendedMsg struct {
	Start, End float64
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Width(labelWidth).Align(lipgloss.Right).PaddingRight(1)
	arrowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Faint(true).Padding(0, 1)
	presetStyle = lipgloss.NewStyle().Padding(0, 1)
	activeStyle = presetStyle.Reverse(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)
)

// Model draws the visible range of a session as sparklines.
type Model struct {
	session  *viewer.Session
	keys     keyMap
	help     help.Model
	showHelp bool
	buttons  []viewport.PresetButton

	cmd    render.Command
	redraw int
	width  int
	height int
	err    error
}

// New wires the model to s. Render commands from s update the model.
func New(s *viewer.Session) *Model {
	buttons := s.Buttons()
	labels := make([]string, len(buttons))
	for i, b := range buttons {
		labels[i] = b.Label
	}
	m := &Model{
		session: s,
		keys:    defaultKeys(labels),
		help:    help.New(),
		buttons: buttons,
		cmd:     s.Current(),
		width:   100,
		height:  24,
	}
	s.OnRender(m.onRender)
	return m
}

func (m *Model) onRender(cmd render.Command) {
	m.cmd = cmd
	m.redraw++
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
	case ExtendedMsg:
		m.session.Extended(msg.Start, msg.End)
	case errMsg:
		m.err = msg.err
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	c := m.session.Controller
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Left):
		m.scroll(-1)
	case key.Matches(msg, m.keys.Right):
		m.scroll(1)
	case key.Matches(msg, m.keys.Home):
		c.Dispatch(viewport.ScrollEvent{Tick: 0})
	case key.Matches(msg, m.keys.End):
		c.Dispatch(viewport.ScrollEvent{Tick: c.MaxTick()})
	case key.Matches(msg, m.keys.ZoomIn):
		c.Dispatch(viewport.ZoomEvent{})
	case key.Matches(msg, m.keys.ZoomOut):
		c.Dispatch(viewport.ZoomEvent{Out: true})
	case key.Matches(msg, m.keys.Unit):
		m.session.ToggleUnit()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
	default:
		for i, b := range m.keys.Presets {
			if key.Matches(msg, b) {
				m.buttons[i].Activate()
				break
			}
		}
	}
	return nil
}

func (m *Model) scroll(dir float64) {
	c := m.session.Controller
	st := c.State()
	c.Dispatch(viewport.ScrollEvent{Tick: c.TimeToTick(st.Offset + dir*st.Width*ScrollStep)})
}

func (m *Model) View() string {
	cols := max(10, m.width-labelWidth-2)
	scene := m.session.Scene()
	view := scene.Window(m.cmd.XMin, m.cmd.XMax, cols*4)

	var rows []string
	rows = append(rows, titleStyle.Render(scene.Title))

	// Lanes are drawn top down, so the body-position lane ends up last with
	// the arrows above it.
	for i := len(scene.Traces) - 1; i >= 0; i-- {
		tr := scene.Traces[i]
		vals := make([]float64, len(view.Values[i]))
		for j, v := range view.Values[i] {
			vals[j] = v - tr.Offset
		}
		if tr.Channel == schema.ChannelBodyPosition {
			rows = append(rows, labelStyle.Render("")+arrowStyle.Render(glyphRow(view.Marks, m.cmd.XMin, m.cmd.XMax, cols)))
		}
		line := sparkline(view.Times, vals, m.cmd.XMin, m.cmd.XMax, cols)
		rows = append(rows, labelStyle.Render(tr.Label)+traceStyle(tr.Color).Render(line))
	}
	if len(scene.Times) == 0 {
		rows = append(rows, statusStyle.Render("waiting for samples..."))
	}

	from, to := m.session.AxisLabels()
	rows = append(rows,
		labelStyle.Render("")+axis(from, to, cols),
		statusStyle.Render(fmt.Sprintf("%s   [%s]", m.cmd.Status, m.session.Unit)),
		m.presetBar(),
	)
	if m.err != nil {
		rows = append(rows, errStyle.Render(m.err.Error()))
	}
	rows = append(rows, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) presetBar() string {
	width := m.session.Controller.State().Width
	parts := make([]string, 0, len(m.buttons))
	for i, b := range m.buttons {
		label := fmt.Sprintf("%d:%s", i+1, b.Label)
		if float64(b.Preset.Seconds) == width {
			parts = append(parts, activeStyle.Render(label))
			continue
		}
		parts = append(parts, presetStyle.Render(label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func axis(from, to string, cols int) string {
	gap := cols - len(from) - len(to)
	if gap < 1 {
		return from + " " + to
	}
	return from + strings.Repeat(" ", gap) + to
}

func traceStyle(c drawing.Color) lipgloss.Style {
	if c.R == 0 && c.G == 0 && c.B == 0 {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)))
}

type errMsg struct{ err error }

// Run starts the terminal UI and, in growing mode, the ingest source. It
// returns when the user quits or ctx is cancelled.
func Run(ctx context.Context, s *viewer.Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(s)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if s.Mode() == schema.ModeGrowing {
		src, err := s.Source(func(start, end float64) {
			p.Send(ExtendedMsg{Start: start, End: end})
		})
		if err != nil {
			return err
		}
		go func() {
			if err := src.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.Logger().Error("Ingest source stopped", zap.Error(err))
				p.Send(errMsg{err})
			}
		}()
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
