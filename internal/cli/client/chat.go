package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle      = lipgloss.NewStyle().Faint(true)
)

// chatBackend is the part of APIClient the chat UI needs.
type chatBackend interface {
	SendMessage(ctx context.Context, sessionID, message string) (*MessageResult, error)
}

type chatLine struct {
	role     string
	text     string
	rendered string
}

type replyMsg struct{ result *MessageResult }

type errMsg struct{ err error }

type chatModel struct {
	ctx       context.Context
	api       chatBackend
	sessionID string
	assistant string

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	lines   []chatLine
	waiting bool
	ready   bool
	width   int
}

func newChatModel(ctx context.Context, api chatBackend, session *Session, assistant string) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask about services, pricing, safety..."
	ti.CharLimit = 1000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := chatModel{
		ctx:       ctx,
		api:       api,
		sessionID: session.ID,
		assistant: assistant,
		input:     ti,
		spinner:   sp,
		width:     defaultWrapWidth,
	}
	for _, t := range session.Turns {
		m.lines = append(m.lines, m.newLine(t.Role, t.Content))
	}
	return m
}

func (m chatModel) newLine(role, text string) chatLine {
	l := chatLine{role: role, text: text}
	if role == "assistant" {
		l.rendered = renderMarkdown(text, m.width-4)
	}
	return l
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m chatModel) send(text string) tea.Cmd {
	return func() tea.Msg {
		result, err := m.api.SendMessage(m.ctx, m.sessionID, text)
		if err != nil {
			return errMsg{err: err}
		}
		return replyMsg{result: result}
	}
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.waiting {
				return m, nil
			}
			m.input.Reset()
			m.lines = append(m.lines, m.newLine("user", text))
			m.waiting = true
			m.refresh()
			return m, tea.Batch(m.send(text), m.spinner.Tick)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		height := msg.Height - 4
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.input.Width = msg.Width - 4
		for i, l := range m.lines {
			m.lines[i] = m.newLine(l.role, l.text)
		}
		m.refresh()

	case replyMsg:
		m.waiting = false
		m.lines = append(m.lines, m.newLine("assistant", msg.result.Reply.Text))
		m.refresh()
		return m, nil

	case errMsg:
		m.waiting = false
		m.lines = append(m.lines, chatLine{role: "error", text: msg.err.Error()})
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.waiting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *chatModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m chatModel) renderHistory() string {
	var b strings.Builder
	for i, l := range m.lines {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch l.role {
		case "user":
			b.WriteString(userStyle.Render("You: "))
			b.WriteString(l.text)
		case "assistant":
			b.WriteString(assistantStyle.Render(m.assistant + ":"))
			b.WriteString("\n")
			b.WriteString(l.rendered)
		default:
			b.WriteString(errorStyle.Render("Error: " + l.text))
		}
	}
	return b.String()
}

func (m chatModel) View() string {
	if !m.ready {
		return "Connecting...\n"
	}

	status := helpStyle.Render("enter to send • esc to quit")
	if m.waiting {
		status = m.spinner.View() + " " + m.assistant + " is typing..."
	}

	return fmt.Sprintf("%s\n%s\n%s", m.viewport.View(), status, m.input.View())
}

// ChatCmd creates the interactive chat command.
func ChatCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the support assistant in the terminal",
		Long:  "Opens an interactive chat session. The session is ended on exit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runChat(cmd.Context(), api, name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "Sevak", "Label shown for assistant messages")

	return cmd
}

func runChat(ctx context.Context, api *APIClient, name string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	session, err := api.StartSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = api.EndSession(context.WithoutCancel(ctx), session.ID) }()

	if session.State == "disabled" {
		fmt.Println(helpStyle.Render("The assistant is not configured on this server; replies will be limited."))
	}

	p := tea.NewProgram(newChatModel(ctx, api, session, name), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI failed: %w", err)
	}
	return nil
}
