// Package tui is the terminal chat front end.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrorTemplate renders a failed request as an assistant message.
const ErrorTemplate = "Ett fel uppstod: %s"

// Link is a web source shown under an answer.
type Link struct {
	URL           string
	Title         string
	PublishedDate string
}

// Reply is what the backend returns for a question or a digest.
type Reply struct {
	Text     string
	Sources  []string
	Links    []Link
	Warnings []string
	Failed   bool
}

// Backend is the conversation the chat talks to.
type Backend interface {
	Ask(ctx context.Context, question string) (*Reply, error)
	Digest(ctx context.Context) (*Reply, error)
}

type role int

const (
	roleUser role = iota
	roleAssistant
)

type entry struct {
	role  role
	text  string
	reply *Reply
}

type replyMsg struct {
	reply *Reply
	err   error
}

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	ctx     context.Context
	backend Backend
	title   string

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	entries []entry
	busy    bool
	status  string
	ready   bool
	width   int
}

// New creates a chat model. title is shown in the header.
func New(ctx context.Context, backend Backend, title string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Skriv din fråga och tryck Enter"
	ti.Focus()
	ti.CharLimit = 2000

	return Model{
		ctx:      ctx,
		backend:  backend,
		title:    title,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		status:   "Enter: skicka · Ctrl+U: senaste nytt · Esc: avsluta",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

// Busy reports whether a request is in flight. Input is blocked meanwhile.
func (m Model) Busy() bool { return m.busy }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		_, hh := historyStyle.GetFrameSize()
		_, ih := inputStyle.GetFrameSize()
		// header, input line and status
		reserved := 3 + hh + ih
		m.viewport.Width = max(20, msg.Width-historyStyle.GetHorizontalFrameSize())
		m.viewport.Height = max(3, msg.Height-reserved)
		m.input.Width = max(10, msg.Width-inputStyle.GetHorizontalFrameSize()-len(m.input.Prompt)-1)
		m.refresh()
		return m, nil

	case replyMsg:
		m.busy = false
		reply := msg.reply
		if msg.err != nil {
			reply = &Reply{Text: fmt.Sprintf(ErrorTemplate, msg.err.Error()), Failed: true}
		}
		m.entries = append(m.entries, entry{role: roleAssistant, text: reply.Text, reply: reply})
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch msg.Type {
		case tea.KeyEnter:
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			m.input.SetValue("")
			m.entries = append(m.entries, entry{role: roleUser, text: question})
			m.busy = true
			m.refresh()
			return m, tea.Batch(m.ask(question), m.spinner.Tick)
		case tea.KeyCtrlU:
			m.entries = append(m.entries, entry{role: roleUser, text: "Senaste nytt om EDS och POTS"})
			m.busy = true
			m.refresh()
			return m, tea.Batch(m.digest(), m.spinner.Tick)
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	if m.busy {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		reply, err := m.backend.Ask(m.ctx, question)
		return replyMsg{reply: reply, err: err}
	}
}

func (m Model) digest() tea.Cmd {
	return func() tea.Msg {
		reply, err := m.backend.Digest(m.ctx)
		return replyMsg{reply: reply, err: err}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "Laddar..."
	}

	header := titleStyle.Render(m.title)
	status := hintStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " Tänker..."
	}

	return header + "\n" +
		historyStyle.Render(m.viewport.View()) + "\n" +
		inputStyle.Render(m.input.View()) + "\n" +
		status
}

func (m Model) renderHistory() string {
	if len(m.entries) == 0 {
		return hintStyle.Render("Ställ en fråga om EDS, POTS eller MCAS.")
	}

	wrap := lipgloss.NewStyle()
	if m.viewport.Width > 0 {
		wrap = wrap.Width(m.viewport.Width)
	}

	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch e.role {
		case roleUser:
			b.WriteString(userStyle.Render("Du"))
		case roleAssistant:
			b.WriteString(assistantStyle.Render(m.title))
		}
		b.WriteString("\n")
		b.WriteString(wrap.Render(e.text))
		if e.reply != nil {
			b.WriteString(renderProvenance(e.reply))
		}
	}
	return b.String()
}

func renderProvenance(r *Reply) string {
	var b strings.Builder
	if len(r.Sources) > 0 {
		b.WriteString("\n" + sourceStyle.Render("Lokala källor: "+strings.Join(r.Sources, ", ")))
	}
	for _, l := range r.Links {
		label := l.URL
		if l.Title != "" {
			label = l.Title + " " + l.URL
		}
		if l.PublishedDate != "" {
			label += " (" + l.PublishedDate + ")"
		}
		b.WriteString("\n" + sourceStyle.Render("• "+label))
	}
	for _, w := range r.Warnings {
		b.WriteString("\n" + warningStyle.Render("! "+w))
	}
	return b.String()
}

// Run starts the chat in the alternate screen and blocks until the user quits.
func Run(ctx context.Context, backend Backend, title string) error {
	p := tea.NewProgram(New(ctx, backend, title), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
