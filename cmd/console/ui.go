package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/text-rpg/internal/handlers"
	"github.com/jwebster45206/text-rpg/pkg/chat"
	"github.com/jwebster45206/text-rpg/pkg/state"
	"github.com/muesli/reflow/wordwrap"
)

const (
	AgentName       = "Narrator"
	PlaceHolderText = "Type a command (help for a list)..."

	requestTimeout = 45 * time.Second
)

type lineKind int

const (
	lineNarration lineKind = iota
	linePlayer
	lineError
	lineNotice
)

type chatLine struct {
	kind    lineKind
	content string
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	client       *apiClient
	logger       *slog.Logger
	status       *state.Status
	lines        []chatLine
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	loading      bool
	quitting     bool

	lastNarration string

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type sessionCreatedMsg struct {
	session *handlers.SessionCreatedResponse
	err     error
}

type commandResponseMsg struct {
	response *handlers.CommandResponse
	err      error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	combatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(client *apiClient, logger *slog.Logger) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = chat.MaxCommandLength
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		client:       client,
		logger:       logger,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		loading:      true,
	}
}

func writeStatus(st *state.Status) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("ADVENTURER") + "\n\n")

	if st == nil {
		content.WriteString("Connecting...\n")
		return content.String()
	}

	if !st.HasCharacter {
		content.WriteString("No character yet.\n\n")
		content.WriteString("create <name> <class>\n")
		content.WriteString("Classes: Warrior,\nMage, Rogue\n\n")
	} else {
		content.WriteString(fmt.Sprintf("%s\n", st.Name))
		content.WriteString(fmt.Sprintf("Level %d %s\n\n", st.Level, st.Class))
		content.WriteString(fmt.Sprintf("HP: %d/%d\n", st.HitPoints, st.MaxHitPoints))
		content.WriteString(fmt.Sprintf("Attack: +%d\n", st.AttackBonus))
		content.WriteString(fmt.Sprintf("Defense: +%d\n\n", st.DefenseBonus))
		content.WriteString("Location:\n")
		content.WriteString(st.Location + "\n\n")
	}

	content.WriteString("Time:\n")
	content.WriteString(fmt.Sprintf("%s (%s)\n\n", st.GameTime, st.TimeOfDay))

	if st.InCombat {
		content.WriteString(combatStyle.Render("IN COMBAT") + "\n")
		content.WriteString(fmt.Sprintf("%s (HP %d)\n\n", st.Enemy, st.EnemyHP))
	}

	content.WriteString("Keys:\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• Ctrl+Y: Copy reply\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• /clear: Clear log\n")

	return content.String()
}

// writeChatContent rebuilds the log for the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding
	if chatWidth < 10 {
		chatWidth = 10
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("TEXT RPG") + "\n\n")
	content.WriteString("Type commands below. Try: help, look, go <place>, talk <npc>.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 1))) + "\n\n")

	for _, line := range m.lines {
		switch line.kind {
		case lineNarration:
			content.WriteString(formatNarratorResponse(line.content, chatWidth) + "\n\n")
		case linePlayer:
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(line.content, chatWidth-6) + "\n\n")
		case lineError:
			content.WriteString(errorStyle.Render("Error: "+line.content) + "\n\n")
		case lineNotice:
			content.WriteString(noticeStyle.Render(wordwrap.String(line.content, chatWidth)) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.createSession(), progressTick())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		m.writeChatContent()
		m.metaViewport.SetContent(writeStatus(m.status))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyCtrlY:
			m.copyLastNarration()
			m.writeChatContent()
			return m, nil
		case tea.KeyEnter:
			if m.loading || m.status == nil || m.quitting {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()

			if input == "/clear" {
				m.lines = nil
				m.writeChatContent()
				return m, nil
			}

			m.loading = true
			m.progressTick = 0
			m.lines = append(m.lines, chatLine{kind: linePlayer, content: input})
			m.writeChatContent()

			return m, tea.Batch(m.sendCommand(input), progressTick())
		}

	case sessionCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.logger.Error("Failed to create session", "error", msg.err)
			m.lines = append(m.lines, chatLine{kind: lineError, content: msg.err.Error()})
		} else {
			st := msg.session.Status
			m.status = &st
			m.logger.Info("Session started", "session_id", msg.session.SessionID.String())
			m.lines = append(m.lines, chatLine{kind: lineNarration, content: "Welcome, traveler. Create a character to begin: create <name> <Warrior|Mage|Rogue>"})
		}
		m.writeChatContent()
		m.metaViewport.SetContent(writeStatus(m.status))

	case commandResponseMsg:
		m.loading = false
		if msg.err != nil {
			m.logger.Warn("Command failed", "error", msg.err)
			m.lines = append(m.lines, chatLine{kind: lineError, content: msg.err.Error()})
			m.writeChatContent()
			return m, nil
		}
		m.lastNarration = msg.response.Response
		for _, chunk := range msg.response.Chunks {
			m.lines = append(m.lines, chatLine{kind: lineNarration, content: chunk})
		}
		st := msg.response.Status
		m.status = &st
		m.writeChatContent()
		m.metaViewport.SetContent(writeStatus(m.status))
		if msg.response.Quit {
			m.quitting = true
			return m, tea.Tick(1500*time.Millisecond, func(time.Time) tea.Msg {
				return tea.Quit()
			})
		}
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
		return m, nil
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// layout sizes the panels from the window: three quarters for the log,
// the rest for status.
func (m *ConsoleUI) layout() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

func (m *ConsoleUI) copyLastNarration() {
	if m.lastNarration == "" {
		m.lines = append(m.lines, chatLine{kind: lineNotice, content: "Nothing to copy yet."})
		return
	}
	if err := clipboard.WriteAll(m.lastNarration); err != nil {
		m.logger.Warn("Clipboard copy failed", "error", err)
		m.lines = append(m.lines, chatLine{kind: lineError, content: "Clipboard unavailable: " + err.Error()})
		return
	}
	m.lines = append(m.lines, chatLine{kind: lineNotice, content: "Copied the last reply to the clipboard."})
}

func formatNarratorResponse(response string, width int) string {
	// Check if response already has a speaker prefix
	hasPrefix := false
	if idx := strings.Index(response, ":"); idx > 0 && idx <= 20 {
		speaker := response[:idx]
		if len(strings.Fields(speaker)) <= 2 {
			hasPrefix = true
		}
	}

	wrapWidth := width
	if !hasPrefix {
		wrapWidth = width - len(AgentName+": ")
	}

	wrappedResponse := wordwrap.String(response, wrapWidth)
	lines := strings.Split(wrappedResponse, "\n")
	formattedLines := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			formattedLines = append(formattedLines, "")
			continue
		}

		if idx := strings.Index(trimmed, ":"); idx > 0 && idx <= 20 {
			speaker := trimmed[:idx]
			rest := trimmed[idx+1:]
			if len(strings.Fields(speaker)) <= 2 {
				formattedLines = append(formattedLines, speakerStyle.Render(speaker+":")+rest)
				continue
			}
		}

		formattedLines = append(formattedLines, line)
	}

	result := strings.Join(formattedLines, "\n")
	if !hasPrefix {
		result = narratorStyle.Render(AgentName+": ") + result
	}
	return result
}

func (m ConsoleUI) createSession() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := m.client.createSession(ctx)
		return sessionCreatedMsg{resp, err}
	}
}

func (m ConsoleUI) sendCommand(command string) tea.Cmd {
	id := m.status.SessionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := m.client.sendCommand(ctx, id, command)
		return commandResponseMsg{resp, err}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Unsaved progress is lost when you quit. Use save <name> first.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}
	usable = min(max(usable, 10), 80)

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // Blinking effect at the progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
