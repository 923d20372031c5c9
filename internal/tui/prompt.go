package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jlawman/makeaplan-cli/internal/app"
)

// ErrInterrupted is returned when the user aborts a prompt with ctrl+c or
// esc. The CLI treats it as a clean exit; progress is already saved.
var ErrInterrupted = errors.New("interrupted")

// selectItem is one row of a select prompt.
type selectItem struct {
	label string
	value string
	meta  bool // rendered dimmed, after a separator
}

type selectModel struct {
	title    string
	hint     string
	items    []selectItem
	index    int
	chosen   bool
	canceled bool
}

func (m selectModel) Init() tea.Cmd { return nil }

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc":
		m.canceled = true
		return m, tea.Quit
	case "up", "k":
		if m.index > 0 {
			m.index--
		}
	case "down", "j":
		if m.index < len(m.items)-1 {
			m.index++
		}
	case "enter":
		m.chosen = true
		return m, tea.Quit
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(key.String()[0] - '1')
		if idx >= 0 && idx < len(m.items) {
			m.index = idx
		}
	}
	return m, nil
}

func (m selectModel) View() string {
	if m.chosen || m.canceled {
		return ""
	}

	var b strings.Builder
	b.WriteString(questionStyle.Render(m.title))
	b.WriteString("\n\n")

	metaStart := -1
	for i, item := range m.items {
		if item.meta {
			metaStart = i
			break
		}
	}

	for i, item := range m.items {
		if i == metaStart && metaStart > 0 {
			b.WriteString(dimStyle.Render(strings.Repeat("─", 40)))
			b.WriteString("\n")
		}

		cursor := "  "
		style := normalStyle
		if i == m.index {
			cursor = "❯ "
			style = selectedStyle
		} else if item.meta {
			style = dimStyle
		}
		fmt.Fprintf(&b, "%s%s\n", cursor, style.Render(fmt.Sprintf("%d) %s", i+1, item.label)))
	}

	b.WriteString("\n")
	hint := m.hint
	if hint == "" {
		hint = "enter select · ↑↓ navigate · esc cancel"
	}
	b.WriteString(dimStyle.Render(hint))
	b.WriteString("\n")
	return b.String()
}

// runSelect shows a select prompt and returns the chosen item's value.
func runSelect(title string, items []selectItem) (string, error) {
	final, err := tea.NewProgram(selectModel{title: title, items: items}).Run()
	if err != nil {
		return "", err
	}
	m := final.(selectModel)
	if m.canceled {
		return "", ErrInterrupted
	}
	return m.items[m.index].value, nil
}

type inputModel struct {
	title     string
	input     textinput.Model
	required  bool
	submitted bool
	canceled  bool
	errMsg    string
	validate  func(string) string // returns error message, "" when valid
}

func (m inputModel) Init() tea.Cmd { return textinput.Blink }

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.canceled = true
			return m, tea.Quit
		case "enter":
			value := strings.TrimSpace(m.input.Value())
			if m.required && value == "" {
				m.errMsg = "Please enter a value"
				return m, nil
			}
			if m.validate != nil {
				if msg := m.validate(value); msg != "" {
					m.errMsg = msg
					return m, nil
				}
			}
			m.submitted = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.errMsg = ""
	return m, cmd
}

func (m inputModel) View() string {
	if m.submitted || m.canceled {
		return ""
	}
	var b strings.Builder
	b.WriteString(questionStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg))
		b.WriteString("\n")
	}
	return b.String()
}

type inputOpts struct {
	placeholder string
	initial     string
	password    bool
	required    bool
	validate    func(string) string
}

func runInput(title string, opts inputOpts) (string, error) {
	ti := textinput.New()
	ti.Placeholder = opts.placeholder
	ti.SetValue(opts.initial)
	ti.CharLimit = 500
	ti.Width = 60
	if opts.password {
		ti.EchoMode = textinput.EchoPassword
	}
	ti.Focus()

	final, err := tea.NewProgram(inputModel{
		title:    title,
		input:    ti,
		required: opts.required,
		validate: opts.validate,
	}).Run()
	if err != nil {
		return "", err
	}
	m := final.(inputModel)
	if m.canceled {
		return "", ErrInterrupted
	}
	return strings.TrimSpace(m.input.Value()), nil
}

type confirmModel struct {
	prompt     string
	defaultYes bool
	answer     bool
	done       bool
	canceled   bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc":
		m.canceled = true
		return m, tea.Quit
	case "y", "Y":
		m.answer = true
		m.done = true
		return m, tea.Quit
	case "n", "N":
		m.answer = false
		m.done = true
		return m, tea.Quit
	case "enter":
		m.answer = m.defaultYes
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done || m.canceled {
		return ""
	}
	suffix := "(Y/n)"
	if !m.defaultYes {
		suffix = "(y/N)"
	}
	return questionStyle.Render(m.prompt) + " " + dimStyle.Render(suffix) + "\n"
}

func runConfirm(prompt string, defaultYes bool) (bool, error) {
	final, err := tea.NewProgram(confirmModel{prompt: prompt, defaultYes: defaultYes}).Run()
	if err != nil {
		return false, err
	}
	m := final.(confirmModel)
	if m.canceled {
		return false, ErrInterrupted
	}
	return m.answer, nil
}

// TerminalPrompter implements app.Prompter over one bubbletea program per
// prompt.
type TerminalPrompter struct{}

func NewTerminalPrompter() *TerminalPrompter { return &TerminalPrompter{} }

const (
	customValue = "__custom__"
	skipValue   = "__skip__"
	backValue   = "__back__"
)

// AskQuestions asks each question in order. Every question offers its
// generated choices plus a free-text answer and a skip; a skipped question
// records an empty string.
func (p *TerminalPrompter) AskQuestions(questions []app.Question, round int) ([]string, error) {
	fmt.Println()
	fmt.Println(titleStyle.Render(fmt.Sprintf("Round %d Questions", round)))
	fmt.Println(dimStyle.Render("Tip: type a number to jump to an option"))
	fmt.Println()

	answers := make([]string, 0, len(questions))
	for i, q := range questions {
		items := make([]selectItem, 0, len(q.Choices)+2)
		for _, choice := range q.Choices {
			items = append(items, selectItem{label: choice, value: choice})
		}
		items = append(items,
			selectItem{label: "Write your own answer", value: customValue, meta: true},
			selectItem{label: "Skip this question", value: skipValue, meta: true},
		)

		title := fmt.Sprintf("%d/%d %s", i+1, len(questions), q.Question)
		value, err := runSelect(title, items)
		if err != nil {
			return nil, err
		}

		switch value {
		case skipValue:
			answers = append(answers, "")
		case customValue:
			custom, err := runInput("Enter your answer:", inputOpts{required: true})
			if err != nil {
				return nil, err
			}
			answers = append(answers, custom)
		default:
			answers = append(answers, value)
		}
	}
	return answers, nil
}

func (p *TerminalPrompter) ConfirmContinue(prompt string) (bool, error) {
	if prompt == "" {
		prompt = "Continue to next step?"
	}
	return runConfirm(prompt, true)
}

func (p *TerminalPrompter) SelectExportFormat() (app.ExportFormat, error) {
	value, err := runSelect("Export format:", []selectItem{
		{label: "Markdown", value: string(app.FormatMarkdown)},
		{label: "JSON", value: string(app.FormatJSON)},
		{label: "Both", value: string(app.FormatBoth)},
	})
	if err != nil {
		return "", err
	}
	return app.ExportFormat(value), nil
}

// AskForIdea collects the product idea as free text.
func AskForIdea() (string, error) {
	return runInput("What's your product idea?", inputOpts{
		placeholder: "A todo app for busy families...",
		required:    true,
	})
}

// SelectSession shows a picker over stored sessions. Returns "" when the
// user picks Back.
func SelectSession(summaries []app.SessionSummary) (string, error) {
	if len(summaries) == 0 {
		WarningMsg("No existing sessions found.")
		return "", nil
	}

	items := make([]selectItem, 0, len(summaries)+1)
	for _, s := range summaries {
		label := fmt.Sprintf("%s — %s — %s", s.Idea, s.Step.Label(), FormatRelativeTime(s.UpdatedAt))
		items = append(items, selectItem{label: label, value: s.ID})
	}
	items = append(items, selectItem{label: "← Back", value: backValue, meta: true})

	value, err := runSelect("Select a session:", items)
	if err != nil {
		return "", err
	}
	if value == backValue {
		return "", nil
	}
	return value, nil
}

func boundedIntValidator(min, max int) func(string) string {
	return func(s string) string {
		n, err := strconv.Atoi(s)
		if err != nil || n < min || n > max {
			return fmt.Sprintf("Please enter a number between %d and %d", min, max)
		}
		return ""
	}
}

func askBoundedInt(title string, def, min, max int) (int, error) {
	value, err := runInput(title, inputOpts{
		initial:  strconv.Itoa(def),
		required: true,
		validate: boundedIntValidator(min, max),
	})
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

// AskSessionConfig collects the generation parameters for a new session.
func AskSessionConfig(defaultProvider string) (app.SessionConfig, error) {
	var cfg app.SessionConfig
	var err error

	if cfg.FirstRoundQuestions, err = askBoundedInt("Number of questions in first round:", 5, 2, 8); err != nil {
		return cfg, err
	}
	if cfg.SubsequentRoundQuestions, err = askBoundedInt("Number of questions in subsequent rounds:", 5, 2, 6); err != nil {
		return cfg, err
	}
	if cfg.AnswersPerQuestion, err = askBoundedInt("Number of answer choices per question:", 4, 2, 6); err != nil {
		return cfg, err
	}

	items := []selectItem{
		{label: "Anthropic (Claude)", value: app.ProviderAnthropic},
		{label: "OpenAI (GPT)", value: app.ProviderOpenAI},
	}
	if defaultProvider == app.ProviderOpenAI {
		items[0], items[1] = items[1], items[0]
	}
	if cfg.Provider, err = runSelect("AI provider:", items); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// AskAPIKey prompts for a provider key, offering to store it in config.
func AskAPIKey(provider string) (key string, save bool, err error) {
	fmt.Println()
	WarningMsg(fmt.Sprintf("%s API key not found.", capitalize(provider)))
	fmt.Println(dimStyle.Render("You can set it as an environment variable or enter it now."))
	fmt.Println(dimStyle.Render("Environment variable: " + app.KeyEnvVar(provider)))
	fmt.Println()

	key, err = runInput(fmt.Sprintf("Enter your %s API key:", provider), inputOpts{
		password: true,
		required: true,
	})
	if err != nil {
		return "", false, err
	}
	save, err = runConfirm("Save this API key for future use?", true)
	if err != nil {
		return "", false, err
	}
	return key, save, nil
}

// MenuItem is one entry of a top-level menu.
type MenuItem struct {
	Label string
	Value string
}

// RunMenu shows a select prompt over menu items and returns the chosen value.
func RunMenu(title string, items []MenuItem) (string, error) {
	selectItems := make([]selectItem, 0, len(items))
	for _, item := range items {
		selectItems = append(selectItems, selectItem{label: item.Label, value: item.Value})
	}
	return runSelect(title, selectItems)
}

// Confirm asks a yes/no question with the given default.
func Confirm(prompt string, defaultYes bool) (bool, error) {
	return runConfirm(prompt, defaultYes)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
