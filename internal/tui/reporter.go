package tui

import (
	"fmt"

	"github.com/jlawman/makeaplan-cli/internal/app"
)

// ConsoleReporter renders engine progress notifications to the terminal.
type ConsoleReporter struct{}

func NewConsoleReporter() *ConsoleReporter { return &ConsoleReporter{} }

func (ConsoleReporter) Step(step app.Step) {
	fmt.Println()
	fmt.Println(dimStyle.Render("── " + step.Label() + " ──"))
}

func (ConsoleReporter) Info(msg string)    { InfoMsg(msg) }
func (ConsoleReporter) Success(msg string) { SuccessMsg(msg) }

func (ConsoleReporter) Box(title string, lines []string) {
	Box(title, lines)
}
