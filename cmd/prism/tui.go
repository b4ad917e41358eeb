package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"prism/internal/pipeline"
)

type eventMsg pipeline.Event

type doneMsg struct {
	out pipeline.Outcome
	err error
}

type askStyles struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	done    lipgloss.Style
	active  lipgloss.Style
	heading lipgloss.Style
	errText lipgloss.Style
	answer  lipgloss.Style
}

func newAskStyles() askStyles {
	blue := lipgloss.Color("#4cc9f0")
	mint := lipgloss.Color("#05ffa1")
	pink := lipgloss.Color("#ff71ce")
	muted := lipgloss.Color("#8d99ae")
	return askStyles{
		title:   lipgloss.NewStyle().Foreground(blue).Bold(true),
		muted:   lipgloss.NewStyle().Foreground(muted),
		done:    lipgloss.NewStyle().Foreground(mint),
		active:  lipgloss.NewStyle().Foreground(blue).Bold(true),
		heading: lipgloss.NewStyle().Foreground(blue).Bold(true).Underline(true),
		errText: lipgloss.NewStyle().Foreground(pink).Bold(true),
		answer: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
	}
}

// askModel renders one run: the stage notes seen so far, counters for the
// fan-out stages and the final answer as it streams in.
type askModel struct {
	spinner  spinner.Model
	styles   askStyles
	question string
	model    string

	notes        []string
	perspectives int
	evaluations  int
	answer       string

	done    bool
	outcome pipeline.Outcome
	err     error
}

func newAskModel(question, model string) askModel {
	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))
	return askModel{spinner: sp, styles: newAskStyles(), question: question, model: model}
}

func (m askModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m askModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if k := msg.String(); k == "ctrl+c" || k == "q" || k == "esc" {
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case eventMsg:
		m.apply(pipeline.Event(msg))
	case doneMsg:
		m.done = true
		m.outcome = msg.out
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m *askModel) apply(e pipeline.Event) {
	switch e.Kind {
	case pipeline.EventProgress:
		m.notes = append(m.notes, e.Note)
	case pipeline.EventState:
		if e.State == nil {
			return
		}
		m.perspectives = len(e.State.Perspectives)
		m.evaluations = len(e.State.Evaluations)
	case pipeline.EventToken:
		if e.Token != nil {
			m.answer += *e.Token
		}
	case pipeline.EventError:
		m.err = e.Err
	}
}

func (m askModel) View() string {
	var b strings.Builder
	b.WriteString(m.styles.title.Render("prism") + " " + m.styles.muted.Render(m.model) + "\n")
	b.WriteString(m.styles.muted.Render("Q: "+m.question) + "\n\n")

	for i, note := range m.notes {
		current := i == len(m.notes)-1 && !m.done
		line := note + m.counter(note)
		if current {
			b.WriteString(m.spinner.View() + " " + m.styles.active.Render(line) + "\n")
			continue
		}
		b.WriteString(m.styles.done.Render("✓") + " " + line + "\n")
	}
	if len(m.notes) == 0 && !m.done {
		b.WriteString(m.spinner.View() + " starting\n")
	}
	if m.answer != "" {
		b.WriteString("\n" + m.styles.answer.Render(strings.TrimSpace(m.answer)) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + m.styles.errText.Render("error: "+m.err.Error()) + "\n")
	}
	return b.String()
}

func (m askModel) counter(note string) string {
	switch note {
	case pipeline.NotePerspectives:
		return fmt.Sprintf(" [%d]", m.perspectives)
	case pipeline.NoteEvaluation:
		return fmt.Sprintf(" [%d]", m.evaluations)
	}
	return ""
}
