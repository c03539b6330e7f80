package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amalsp220/ai-tools-chatbot/internal/domain"
)

// AdvisorPort is the TUI-facing subset of the advisor service.
type AdvisorPort interface {
	Ask(ctx context.Context, session *domain.Session, question, pricingFilter string) (domain.Answer, error)
}

// pricingFilters are the selectable pricing categories, cycled with ctrl+f.
// The empty entry means no filter.
var pricingFilters = []string{"", "Free", "Freemium", "Paid", "Contact for Pricing"}

// entry is one rendered line group in the transcript.
type entry struct {
	role    string
	content string
	sources []domain.Document
}

// answerMsg delivers the advisor's reply back into the update loop.
type answerMsg struct {
	answer domain.Answer
	err    error
}

// Options configures the chat TUI.
type Options struct {
	// Unavailable renders the index-missing help screen instead of a chat.
	Unavailable bool
	// UnavailableReason is shown when Unavailable is set.
	UnavailableReason string
	// PreviewChars bounds each source snippet shown under an answer.
	PreviewChars int
	// RequestTimeout bounds one embed+retrieve+generate round trip.
	RequestTimeout time.Duration
	// IndexSize is displayed in the header.
	IndexSize int
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	advisor     AdvisorPort
	session     *domain.Session
	input       textinput.Model
	viewport    viewport.Model
	entries     []entry
	status      string
	filterIdx   int
	showSources bool
	waiting     bool
	ready       bool
	opts        Options
}

// New creates a new chat TUI model instance.
func New(advisor AdvisorPort, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask me about AI tools... (e.g., 'Best free AI tools for startups')"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	if opts.PreviewChars <= 0 {
		opts.PreviewChars = 300
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 3 * time.Minute
	}
	status := "Ready. Type a question and press Enter. ctrl+f: pricing filter, ctrl+s: sources."
	if opts.Unavailable {
		status = "Index unavailable."
	}
	return Model{
		advisor:     advisor,
		session:     &domain.Session{},
		input:       ti,
		viewport:    vp,
		showSources: true,
		status:      status,
		opts:        opts,
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header + filter line, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderTranscript())
		return m, nil
	case answerMsg:
		m.waiting = false
		e := entry{role: domain.RoleAssistant, content: msg.answer.Text}
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			if e.content == "" {
				e.content = "Error: " + msg.err.Error()
			}
		} else {
			m.status = "Answered. ctrl+s toggles sources."
			e.sources = msg.answer.Sources
		}
		m.entries = append(m.entries, e)
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if m.opts.Unavailable {
			// No queries without an index; only quitting works.
			return m, nil
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.waiting {
				m.entries = append(m.entries, entry{role: domain.RoleUser, content: q})
				m.input.SetValue("")
				m.waiting = true
				m.status = "Searching through 16K+ AI tools..."
				m.viewport.SetContent(m.renderTranscript())
				m.viewport.GotoBottom()
				return m, m.askCmd(q, pricingFilters[m.filterIdx])
			}
		case "ctrl+f":
			m.filterIdx = (m.filterIdx + 1) % len(pricingFilters)
			if f := pricingFilters[m.filterIdx]; f == "" {
				m.status = "Pricing filter: off"
			} else {
				m.status = "Pricing filter: " + f
			}
			return m, nil
		case "ctrl+s":
			m.showSources = !m.showSources
			m.viewport.SetContent(m.renderTranscript())
			return m, nil
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// askCmd runs one advisor round trip off the update loop.
func (m Model) askCmd(question, filter string) tea.Cmd {
	advisor, session, timeout := m.advisor, m.session, m.opts.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		answer, err := advisor.Ask(ctx, session, question, filter)
		return answerMsg{answer: answer, err: err}
	}
}

// View renders the TUI layout and current transcript.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("AI Tool Advisor")
	if m.opts.IndexSize > 0 {
		header += lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(fmt.Sprintf("  (%d tools indexed)", m.opts.IndexSize))
	}
	if m.opts.Unavailable {
		help := "Index unavailable: " + m.opts.UnavailableReason + "\n\n" +
			"Build it first:\n\n" +
			"    ingest --csv data/ai_tools.csv\n\n" +
			"then restart the chatbot. ctrl+c quits."
		return header + "\n\n" + transcriptBoxStyle.Render(help) + "\n" + statusStyle.Render(m.status)
	}
	filter := "off"
	if f := pricingFilters[m.filterIdx]; f != "" {
		filter = f
	}
	filterLine := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("Pricing filter: " + filter)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + filterLine + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.entries) == 0 {
		return "No messages yet. Ask about AI tools for any task."
	}
	var b strings.Builder
	for i, e := range m.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch e.role {
		case domain.RoleUser:
			b.WriteString(userStyle.Render("You: ") + e.content)
		default:
			b.WriteString(assistantStyle.Render("Advisor: ") + e.content)
			if m.showSources && len(e.sources) > 0 {
				b.WriteString("\n" + m.renderSources(e.sources))
			}
		}
	}
	return b.String()
}

func (m Model) renderSources(sources []domain.Document) string {
	var b strings.Builder
	b.WriteString(sourceHeaderStyle.Render("Sources:"))
	for i, doc := range sources {
		b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, truncate(doc.Text, m.opts.PreviewChars)))
	}
	return sourceStyle.Render(b.String())
}

func truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n\n", " | "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	sourceHeaderStyle  = lipgloss.NewStyle().Bold(true)
	sourceStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
