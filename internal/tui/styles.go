package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jlawman/makeaplan-cli/internal/app"
)

const (
	colorAccent  = "#7C3AED"
	colorSuccess = "#10B981"
	colorWarn    = "#F59E0B"
	colorError   = "#EF4444"
	colorInfo    = "#3B82F6"
	colorMuted   = "#6B7280"
	colorFg      = "#E5E7EB"
	colorBorder  = "#374151"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)).Bold(true)
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorFg)).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)).Bold(true)
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarn))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorError))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(colorInfo))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorBorder)).
			Padding(0, 2)
)

// Banner prints the welcome header.
func Banner() {
	fmt.Println()
	fmt.Println(titleStyle.Render("  makeaplan"))
	fmt.Println(dimStyle.Render("  AI-powered product specification generator"))
	fmt.Println()
}

func Goodbye() {
	fmt.Println(dimStyle.Render("\nThanks for using makeaplan. Happy building!"))
}

func SuccessMsg(msg string) { fmt.Println(successStyle.Render("✓ " + msg)) }
func InfoMsg(msg string)    { fmt.Println(infoStyle.Render("ℹ " + msg)) }
func WarningMsg(msg string) { fmt.Println(warnStyle.Render("! " + msg)) }
func ErrorMsg(msg string)   { fmt.Println(errorStyle.Render("✗ " + msg)) }

func Header(title string) {
	fmt.Println()
	fmt.Println(titleStyle.Render(title))
	fmt.Println(dimStyle.Render(strings.Repeat("─", len(title))))
}

func KeyValue(key, value string) {
	fmt.Printf("%s %s\n", dimStyle.Render(key+":"), value)
}

func Box(title string, lines []string) {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	fmt.Println(boxStyle.Render(b.String()))
}

// StepColor returns the style used for a step label in list output.
func StepColor(step app.Step) lipgloss.Style {
	switch step {
	case app.StepInitialIdea:
		return warnStyle
	case app.StepQuestionsRound1, app.StepQuestionsRound2, app.StepQuestionsRound3:
		return infoStyle
	case app.StepFinalWriteup, app.StepGenerateFileStructure:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))
	case app.StepConvertToJSON:
		return successStyle
	default:
		return dimStyle
	}
}

// FormatRelativeTime renders a timestamp the way the list and pickers show
// it: "12m ago", "3h ago", "yesterday", "4d ago", then a plain date.
func FormatRelativeTime(t time.Time) string {
	diff := time.Since(t)
	days := int(diff.Hours() / 24)

	switch {
	case days == 0:
		hours := int(diff.Hours())
		if hours == 0 {
			return fmt.Sprintf("%dm ago", int(diff.Minutes()))
		}
		return fmt.Sprintf("%dh ago", hours)
	case days == 1:
		return "yesterday"
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("2006-01-02")
	}
}
