package tui

import (
	"context"
	"time"

	"github.com/briandowns/spinner"

	"github.com/jlawman/makeaplan-cli/internal/app"
)

// SpinnerGenerator decorates a Generator with a terminal spinner for the
// duration of each provider call.
type SpinnerGenerator struct {
	Inner app.Generator
}

func WithSpinner(inner app.Generator) *SpinnerGenerator {
	return &SpinnerGenerator{Inner: inner}
}

func (g *SpinnerGenerator) spin(message string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Color("cyan", "bold")
	s.Start()
	return s
}

func (g *SpinnerGenerator) finish(s *spinner.Spinner, okMsg, failMsg string, err error) {
	s.Stop()
	if err != nil {
		ErrorMsg(failMsg)
		return
	}
	SuccessMsg(okMsg)
}

func (g *SpinnerGenerator) GenerateQuestions(ctx context.Context, idea string, round int, prior []app.QA, opts app.QuestionOpts) ([]app.Question, error) {
	s := g.spin("Generating questions...")
	questions, err := g.Inner.GenerateQuestions(ctx, idea, round, prior, opts)
	g.finish(s, "Questions generated", "Failed to generate questions", err)
	return questions, err
}

func (g *SpinnerGenerator) GenerateWriteup(ctx context.Context, idea string, questions, answers []string) (string, error) {
	s := g.spin("Generating technical specification...")
	writeup, err := g.Inner.GenerateWriteup(ctx, idea, questions, answers)
	g.finish(s, "Technical specification generated", "Failed to generate writeup", err)
	return writeup, err
}

func (g *SpinnerGenerator) GenerateFileStructure(ctx context.Context, writeup string) (string, error) {
	s := g.spin("Generating file structure...")
	structure, err := g.Inner.GenerateFileStructure(ctx, writeup)
	g.finish(s, "File structure generated", "Failed to generate file structure", err)
	return structure, err
}

func (g *SpinnerGenerator) ConvertToJSON(ctx context.Context, fileStructure string) (*app.FileStructureItem, error) {
	s := g.spin("Converting to JSON...")
	item, err := g.Inner.ConvertToJSON(ctx, fileStructure)
	g.finish(s, "JSON structure generated", "Failed to convert to JSON", err)
	return item, err
}
