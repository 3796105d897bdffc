package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/riskgate/riskgate/internal/model"
)

// ErrReviewAborted is returned when the reviewer quits without deciding.
var ErrReviewAborted = errors.New("review aborted by reviewer")

// Interactive is the terminal reviewer. It presents the packet and blocks
// until the officer picks approve, edit, or reject.
type Interactive struct{}

// Decide runs the review TUI and returns the reviewer's decision.
func (Interactive) Decide(ctx context.Context, p Packet) (Decision, error) {
	prog := tea.NewProgram(newReviewModel(p), tea.WithContext(ctx))
	final, err := prog.Run()
	if err != nil {
		return Decision{}, fmt.Errorf("review ui: %w", err)
	}

	m, ok := final.(reviewModel)
	if !ok || m.aborted {
		return Decision{}, ErrReviewAborted
	}
	return m.decision, nil
}

type reviewPhase int

const (
	phaseAction reviewPhase = iota // pick approve / edit / reject
	phaseEdit                      // enter replacement response text
	phaseNotes                     // optional reviewer notes
	phaseDone
)

var reviewActions = []struct {
	action model.ReviewAction
	label  string
}{
	{model.ActionApprove, "Approve draft response as-is"},
	{model.ActionEdit, "Edit draft response"},
	{model.ActionReject, "Reject — flag for further investigation"},
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// reviewModel holds the TUI state, Elm style: Update mutates, View renders.
type reviewModel struct {
	packet   Packet
	phase    reviewPhase
	cursor   int
	input    textinput.Model
	decision Decision
	aborted  bool
}

func newReviewModel(p Packet) reviewModel {
	ti := textinput.New()
	ti.CharLimit = 0
	ti.Width = 72
	return reviewModel{packet: p, input: ti}
}

func (m reviewModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch keyMsg.String() {
	case "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit
	}

	switch m.phase {
	case phaseAction:
		switch keyMsg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(reviewActions)-1 {
				m.cursor++
			}
		case "enter":
			m.decision.Action = reviewActions[m.cursor].action
			if m.decision.Action == model.ActionEdit {
				m.phase = phaseEdit
				m.input.Placeholder = "replacement response"
				m.input.SetValue(m.packet.Draft)
				m.input.Focus()
			} else {
				m.phase = phaseNotes
				m.input.Placeholder = "optional reviewer notes"
				m.input.SetValue("")
				m.input.Focus()
			}
		}
		return m, nil

	case phaseEdit:
		if keyMsg.String() == "enter" {
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil // an edit must carry text
			}
			m.decision.Text = text
			m.phase = phaseNotes
			m.input.Placeholder = "optional reviewer notes"
			m.input.SetValue("")
			return m, nil
		}

	case phaseNotes:
		if keyMsg.String() == "enter" {
			m.decision.Notes = strings.TrimSpace(m.input.Value())
			m.phase = phaseDone
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(keyMsg)
	return m, cmd
}

func (m reviewModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("COMPLIANCE REVIEW REQUIRED — HUMAN IN THE LOOP"))
	b.WriteString("\n\n")
	b.WriteString(m.packet.Render())
	b.WriteString("\n")

	switch m.phase {
	case phaseAction:
		b.WriteString(promptStyle.Render("Reviewer action:"))
		b.WriteString("\n")
		for i, a := range reviewActions {
			cursor := "  "
			line := fmt.Sprintf("[%c] %s", a.action[0]-32, a.label)
			if i == m.cursor {
				cursor = "> "
				line = selectedStyle.Render(line)
			}
			fmt.Fprintf(&b, "%s%s\n", cursor, line)
		}
		b.WriteString(dimStyle.Render("\nup/down to move, enter to select, esc to abort"))

	case phaseEdit:
		b.WriteString(promptStyle.Render("Edited response (enter to confirm):"))
		b.WriteString("\n")
		b.WriteString(m.input.View())

	case phaseNotes:
		b.WriteString(promptStyle.Render("Reviewer notes (enter to finish, may be empty):"))
		b.WriteString("\n")
		b.WriteString(m.input.View())

	case phaseDone:
		b.WriteString(dimStyle.Render("decision recorded"))
	}

	b.WriteString("\n")
	return b.String()
}
