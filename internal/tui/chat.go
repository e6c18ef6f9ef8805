// Package tui implements the terminal chat front end.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/askdb/askdb/internal/pipeline"
	"github.com/askdb/askdb/internal/prompt"
)

// maxHistoryTurns bounds the conversation context sent with each question.
const maxHistoryTurns = 3

// Asker answers a natural-language question against the database.
type Asker interface {
	Ask(ctx context.Context, question string, history []prompt.Turn) (pipeline.Response, error)
}

type answerMsg struct {
	question string
	response pipeline.Response
	err      error
}

// Model is the chat TUI model.
type Model struct {
	service Asker

	history    []prompt.Turn
	transcript []string
	waiting    bool
	ready      bool
	width      int
	height     int

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
}

// NewModel creates the chat model.
func NewModel(service Asker) Model {
	ti := textinput.New()
	ti.Placeholder = "Schreibe eine Nachricht oder SQL-Abfrage..."
	ti.Focus()
	ti.CharLimit = 500

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle

	return Model{
		service: service,
		input:   ti,
		spinner: s,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m Model) ask(question string) tea.Cmd {
	service := m.service
	history := m.history
	return func() tea.Msg {
		response, err := service.Ask(context.Background(), question, history)
		return answerMsg{question: question, response: response, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			question := strings.TrimSpace(m.input.Value())
			if question == "" || m.waiting {
				return m, nil
			}
			m.input.SetValue("")
			m.waiting = true
			m.appendMessage(userStyle.Render("Du:") + "\n" + question)
			return m, m.ask(question)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		footerHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.viewport.SetContent(strings.Join(m.transcript, "\n\n"))

	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.appendMessage(botStyle.Render("Bot:") + "\n" + errorStyle.Render(msg.err.Error()))
			return m, nil
		}
		m.appendMessage(botStyle.Render("Bot:") + "\n" + renderResponse(msg.response))
		m.history = appendTurn(m.history, prompt.Turn{User: msg.question, SQL: msg.response.SQL})
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) appendMessage(message string) {
	m.transcript = append(m.transcript, message)
	if m.ready {
		m.viewport.SetContent(strings.Join(m.transcript, "\n\n"))
		m.viewport.GotoBottom()
	}
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Lade..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Chat SQL Assistant"))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.waiting {
		b.WriteString(m.spinner.View() + " Denke nach...")
	} else {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("  [Enter] Senden  [Esc] Beenden"))
	return b.String()
}

func renderResponse(response pipeline.Response) string {
	var b strings.Builder
	b.WriteString(response.Answer)
	if response.SQL != "" {
		b.WriteString("\n")
		b.WriteString(sqlStyle.Render("SQL: " + response.SQL))
	}
	if len(response.TableData) > 0 {
		b.WriteString("\n")
		b.WriteString(sqlStyle.Render(renderRows(response.Result.Columns, response.TableData)))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Konfidenz: " + response.Confidence))
	return b.String()
}

func renderRows(cols []string, rows []map[string]any) string {
	var b strings.Builder
	b.WriteString(strings.Join(cols, " | "))
	for _, row := range rows {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = fmt.Sprintf("%v", row[col])
		}
		b.WriteString("\n" + strings.Join(values, " | "))
	}
	return b.String()
}

func appendTurn(history []prompt.Turn, turn prompt.Turn) []prompt.Turn {
	history = append(history, turn)
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	return history
}

// Run starts the chat program.
func Run(service Asker) error {
	p := tea.NewProgram(NewModel(service), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
