package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/layoutgen/pkg/status"
	"github.com/matzehuels/layoutgen/pkg/tree"
)

// Event view styles
var (
	eventPrefixStyle = lipgloss.NewStyle().Foreground(colorCyan).Width(22)
	eventTimeStyle   = lipgloss.NewStyle().Foreground(colorDim)
	eventErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
	counterStyle     = lipgloss.NewStyle().Foreground(colorGray)
)

// =============================================================================
// Messages
// =============================================================================

// eventMsg delivers a status event to the running program.
type eventMsg status.Event

// doneMsg ends the program with the generation outcome.
type doneMsg struct {
	def tree.Definition
	err error
}

// =============================================================================
// ProgressModel - Live status event view
// =============================================================================

// ProgressModel shows a spinner, the current design state, counters and the
// most recent status events of one generation.
type ProgressModel struct {
	spin     spinner.Model
	events   []status.Event
	state    string
	elements int
	layouts  int
	height   int
	start    time.Time

	Result tree.Definition
	Err    error
	Quit   bool
}

// NewProgressModel returns a model showing up to height recent events.
func NewProgressModel(height int) ProgressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleIconSpinner
	if height < 3 {
		height = 3
	}
	return ProgressModel{spin: sp, height: height, state: "received", start: time.Now()}
}

func (m ProgressModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quit = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 3)
	case eventMsg:
		m = m.record(status.Event(msg))
	case doneMsg:
		m.Result, m.Err = msg.def, msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ProgressModel) record(e status.Event) ProgressModel {
	switch e.Prefix {
	case status.LayoutDesign:
		if s, ok := strings.CutPrefix(e.Message, "state: "); ok {
			m.state = s
			return m
		}
	case status.ComponentGenerated:
		m.elements++
	case status.LayoutProcessing:
		if strings.Contains(e.Message, "processed and added") {
			m.layouts++
		}
	}
	m.events = append(m.events, e)
	if over := len(m.events) - m.height; over > 0 {
		m.events = m.events[over:]
	}
	return m
}

func (m ProgressModel) View() string {
	var b strings.Builder

	b.WriteString(m.spin.View())
	b.WriteString(" ")
	b.WriteString(StyleTitle.Render("Designing layout"))
	b.WriteString("  ")
	b.WriteString(StyleHighlight.Render(m.state))
	b.WriteString("\n")
	b.WriteString(counterStyle.Render(fmt.Sprintf("  %d layouts · %d elements · %s",
		m.layouts, m.elements, time.Since(m.start).Round(time.Second))))
	b.WriteString("\n\n")

	for _, e := range m.events {
		msg := truncate(e.Message, 90)
		if e.Prefix == status.Error {
			msg = eventErrorStyle.Render(msg)
		}
		b.WriteString(eventTimeStyle.Render(e.Time.Format("15:04:05")))
		b.WriteString(" ")
		b.WriteString(eventPrefixStyle.Render(e.Prefix))
		b.WriteString(msg)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit"))
	return b.String()
}

// programSink forwards status events to a running bubbletea program.
type programSink struct{ p *tea.Program }

func (s programSink) Emit(e status.Event) { s.p.Send(eventMsg(e)) }
