// Package tui is an interactive browser for ranked findings: a navigable
// list on the left, the selected finding's detail (message, rationale, patch)
// on the right.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wflint/internal/findings"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	mustFixStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	improveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
	detailStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

// Model drives the findings browser. Construct with New, run with Run.
type Model struct {
	source  string
	ranked  []findings.Finding
	cursor  int
	width   int
	height  int
	detail  viewport.Model
	sized   bool
}

// New builds a browser over the ranked findings of one source file.
func New(source string, ranked []findings.Finding) Model {
	return Model{source: source, ranked: ranked}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail = viewport.New(m.detailWidth(), m.paneHeight())
		m.detail.SetContent(m.detailText())
		m.sized = true
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.detail.SetContent(m.detailText())
				m.detail.GotoTop()
			}
			return m, nil
		case "down", "j":
			if m.cursor < len(m.ranked)-1 {
				m.cursor++
				m.detail.SetContent(m.detailText())
				m.detail.GotoTop()
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	title := titleStyle.Render(fmt.Sprintf("wflint — %s (%d findings)", m.source, len(m.ranked)))
	if len(m.ranked) == 0 {
		return title + "\n\n" + dimStyle.Render("nothing to flag") + "\n\n" + dimStyle.Render("q to quit") + "\n"
	}
	if !m.sized {
		return title + "\n"
	}

	list := m.listView()
	detail := detailStyle.Width(m.detailWidth()).Render(m.detail.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, list, detail)
	help := dimStyle.Render("↑/↓ select · q quit")
	return lipgloss.JoinVertical(lipgloss.Left, title, body, help)
}

func (m Model) listView() string {
	var b strings.Builder
	for i, f := range m.ranked {
		sev := improveStyle.Render("◦")
		if f.Severity == findings.MustFix {
			sev = mustFixStyle.Render("●")
		}
		line := fmt.Sprintf("%s %s %s", sev, f.RuleID, dimStyle.Render(f.Path))
		if i == m.cursor {
			line = selectedStyle.Render(fmt.Sprintf("● %s %s", f.RuleID, f.Path))
		}
		b.WriteString(line + "\n")
	}
	return lipgloss.NewStyle().Width(m.listWidth()).Render(b.String())
}

func (m Model) detailText() string {
	if len(m.ranked) == 0 {
		return ""
	}
	f := m.ranked[m.cursor]
	var b strings.Builder
	fmt.Fprintf(&b, "%s · %s\n", f.RuleID, f.Severity)
	fmt.Fprintf(&b, "%s (line %d, col %d)\n\n", f.Path, f.Line, f.Col)
	fmt.Fprintf(&b, "%s\n\n", f.Message)
	fmt.Fprintf(&b, "Why: %s\n\n", f.Why)
	fmt.Fprintf(&b, "Fix: %s\n", f.FixHint)
	if f.Patch != "" {
		fmt.Fprintf(&b, "\n%s\n", f.Patch)
	}
	return b.String()
}

func (m Model) listWidth() int   { return m.width * 2 / 5 }
func (m Model) detailWidth() int { return m.width - m.listWidth() - 4 }
func (m Model) paneHeight() int {
	h := m.height - 4
	if h < 3 {
		h = 3
	}
	return h
}

// Run starts the browser in the alternate screen and blocks until quit.
func Run(source string, ranked []findings.Finding) error {
	p := tea.NewProgram(New(source, ranked), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
