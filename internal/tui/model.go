package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docassist/internal/service"
)

// AssistantPort is the TUI-facing subset of a session.
type AssistantPort interface {
	Query(ctx context.Context, question string) (string, error)
	Summary(ctx context.Context) (string, error)
	Documents() []service.DocumentInfo
}

type answerMsg struct {
	question string
	text     string
	err      error
}

type summaryMsg struct {
	text string
	err  error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	ctx      context.Context
	port     AssistantPort
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	status   string
	busy     bool
	ready    bool
}

// New creates a new TUI model instance. ctx bounds every request the model issues.
func New(ctx context.Context, port AssistantPort, status string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What would you like to know about the documents?"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	vp.SetContent("Ask a question, or press ctrl+s for a summary of all documents.")
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	if status == "" {
		status = "Ready."
	}
	return Model{ctx: ctx, port: port, input: ti, viewport: vp, spinner: sp, status: status}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and result events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header, documents, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		return m, nil
	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + service.UserMessage(msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("Answer for %q", msg.question)
		m.viewport.SetContent(highlightBestSentence(msg.text, msg.question))
		m.viewport.GotoTop()
		return m, nil
	case summaryMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + service.UserMessage(msg.err)
			return m, nil
		}
		m.status = "Document summary"
		m.viewport.SetContent(msg.text)
		m.viewport.GotoTop()
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.busy {
				return m, nil
			}
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				m.status = "Please enter a question."
				return m, nil
			}
			m.busy = true
			m.status = "Searching through documents..."
			return m, tea.Batch(m.spinner.Tick, m.ask(q))
		case "ctrl+s":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Generating summary..."
			return m, tea.Batch(m.spinner.Tick, m.summarize())
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		text, err := m.port.Query(m.ctx, question)
		return answerMsg{question: question, text: text, err: err}
	}
}

func (m Model) summarize() tea.Cmd {
	return func() tea.Msg {
		text, err := m.port.Summary(m.ctx)
		return summaryMsg{text: text, err: err}
	}
}

// View renders the TUI layout and current answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Smart Document Assistant")
	docs := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.documentLine())
	input := queryBoxStyle.Render(m.input.View())
	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	status = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(status)
	answer := answerBoxStyle.Render(m.viewport.View())
	return header + "\n" + docs + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) documentLine() string {
	docs := m.port.Documents()
	if len(docs) == 0 {
		return "No documents loaded."
	}
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = fmt.Sprintf("%s (%dp)", d.Name, d.Pages)
	}
	return "Loaded: " + strings.Join(names, ", ") + "  ·  ctrl+s summary"
}

var (
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence emphasizes the answer sentence sharing the most words with the question.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		return text
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return text
	}
	bestIdx, bestScore := 0, 0
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestScore == 0 {
		return text
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sent = highlightStyle.Render(sent)
		}
		sentences[i] = sent
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	seen := make(map[string]struct{})
	for _, t := range unicodeWordRe.FindAllString(strings.ToLower(sentence), -1) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
