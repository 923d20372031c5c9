package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// ExportFormat selects the artifact rendering at export time.
type ExportFormat string

const (
	FormatMarkdown ExportFormat = "markdown"
	FormatJSON     ExportFormat = "json"
	FormatBoth     ExportFormat = "both"
)

// ParseExportFormat validates a format string from the CLI.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case FormatMarkdown, FormatJSON, FormatBoth:
		return ExportFormat(s), nil
	default:
		return "", &ValidationError{Msg: fmt.Sprintf("invalid format %q: use markdown, json, or both", s)}
	}
}

// Prompter is the capability boundary to the user. AskQuestions returns one
// answer per question in the same order; an empty string means skipped.
type Prompter interface {
	AskQuestions(questions []Question, round int) ([]string, error)
	ConfirmContinue(prompt string) (bool, error)
	SelectExportFormat() (ExportFormat, error)
}

// Reporter receives progress notifications the engine wants shown to the
// user. Implementations render them; the engine never prints directly.
type Reporter interface {
	Step(step Step)
	Info(msg string)
	Success(msg string)
	Box(title string, lines []string)
}

// NopReporter discards all notifications.
type NopReporter struct{}

func (NopReporter) Step(Step)            {}
func (NopReporter) Info(string)          {}
func (NopReporter) Success(string)       {}
func (NopReporter) Box(string, []string) {}

var headingRe = regexp.MustCompile(`(?m)^#{1,3} `)
var treeGlyphRe = regexp.MustCompile(`[│├└]`)

// Engine walks a session through the workflow steps, persisting after every
// state transition. It owns the session for the duration of Run; no other
// component mutates it.
type Engine struct {
	Store    *FileSessionStore
	Gen      Generator
	Prompt   Prompter
	Exporter *Exporter
	UI       Reporter
	Logger   *Logger
}

// Run executes the workflow loop starting from the session's current step.
// Resuming a saved session re-enters here: the loop picks up at exactly the
// persisted step. A nil return with a non-terminal step means the user chose
// to pause; the session is durably saved either way.
func (e *Engine) Run(ctx context.Context, sess *Session) error {
	ui := e.UI
	if ui == nil {
		ui = NopReporter{}
	}

	for {
		ui.Step(sess.CurrentStep)

		switch sess.CurrentStep {
		case StepInitialIdea:
			sess.CurrentStep = StepQuestionsRound1
			if err := e.Store.Save(sess); err != nil {
				return err
			}

		case StepQuestionsRound1, StepQuestionsRound2, StepQuestionsRound3:
			cont, err := e.runQuestionRound(ctx, sess)
			if err != nil {
				return err
			}
			if !cont {
				ui.Info("Session saved. You can resume later with: makeaplan resume")
				return nil
			}

		case StepFinalWriteup:
			cont, err := e.runWriteup(ctx, sess, ui)
			if err != nil {
				return err
			}
			if !cont {
				return e.exportResults(sess, ui)
			}

		case StepGenerateFileStructure:
			cont, err := e.runFileStructure(ctx, sess, ui)
			if err != nil {
				return err
			}
			if !cont {
				return e.exportResults(sess, ui)
			}

		case StepConvertToJSON:
			return e.exportResults(sess, ui)

		default:
			return fmt.Errorf("workflow reached unknown step %s", sess.CurrentStep)
		}
	}
}

func (e *Engine) runQuestionRound(ctx context.Context, sess *Session) (bool, error) {
	var round int
	switch sess.CurrentStep {
	case StepQuestionsRound1:
		round = 1
	case StepQuestionsRound2:
		round = 2
	case StepQuestionsRound3:
		round = 3
	}

	count := sess.Config.SubsequentRoundQuestions
	if round == 1 {
		count = sess.Config.FirstRoundQuestions
	}

	questions, err := e.Gen.GenerateQuestions(ctx, sess.Idea, round, sess.PriorQA(), QuestionOpts{
		QuestionsCount:     count,
		AnswersPerQuestion: sess.Config.AnswersPerQuestion,
	})
	if err != nil {
		return false, e.failSave(sess, err)
	}

	answers, err := e.Prompt.AskQuestions(questions, round)
	if err != nil {
		return false, err
	}
	// Unanswered entries are empty strings, never absent.
	for len(answers) < len(questions) {
		answers = append(answers, "")
	}
	answers = answers[:len(questions)]

	sess.QuestionRounds = append(sess.QuestionRounds, QuestionRound{
		RoundNumber: round,
		Questions:   questions,
		Answers:     answers,
		Timestamp:   time.Now(),
	})

	switch sess.CurrentStep {
	case StepQuestionsRound1:
		sess.CurrentStep = StepQuestionsRound2
	case StepQuestionsRound2:
		sess.CurrentStep = StepQuestionsRound3
	default:
		sess.CurrentStep = StepFinalWriteup
	}
	if err := e.Store.Save(sess); err != nil {
		return false, err
	}

	return e.Prompt.ConfirmContinue("Continue to next step?")
}

func (e *Engine) runWriteup(ctx context.Context, sess *Session, ui Reporter) (bool, error) {
	var allQuestions, allAnswers []string
	for _, qa := range sess.PriorQA() {
		allQuestions = append(allQuestions, qa.Question)
		allAnswers = append(allAnswers, qa.Answer)
	}

	writeup, err := e.Gen.GenerateWriteup(ctx, sess.Idea, allQuestions, allAnswers)
	if err != nil {
		return false, e.failSave(sess, err)
	}

	sess.Writeup = writeup
	sess.CurrentStep = StepGenerateFileStructure
	if err := e.Store.Save(sess); err != nil {
		return false, err
	}

	ui.Box("Specification Complete", []string{
		"Technical specification generated!",
		fmt.Sprintf("Length: %d characters", len(writeup)),
		fmt.Sprintf("Sections: %d", len(headingRe.FindAllString(writeup, -1))),
	})

	return e.Prompt.ConfirmContinue("Generate file structure?")
}

func (e *Engine) runFileStructure(ctx context.Context, sess *Session, ui Reporter) (bool, error) {
	if sess.Writeup == "" {
		// Reaching this step without a writeup is a programming error, not a
		// recoverable generation failure.
		return false, errors.New("no writeup found")
	}

	structure, err := e.Gen.GenerateFileStructure(ctx, sess.Writeup)
	if err != nil {
		return false, e.failSave(sess, err)
	}

	sess.FileStructure = structure
	if err := e.Store.Save(sess); err != nil {
		return false, err
	}

	ui.Box("File Structure Complete", []string{
		"File structure generated!",
		fmt.Sprintf("Files/Dirs: %d", len(treeGlyphRe.FindAllString(structure, -1))),
	})

	cont, err := e.Prompt.ConfirmContinue("Convert to JSON format?")
	if err != nil {
		return false, err
	}
	if !cont {
		return false, nil
	}

	item, err := e.Gen.ConvertToJSON(ctx, sess.FileStructure)
	if err != nil {
		return false, e.failSave(sess, err)
	}

	sess.FileStructureJSON = item
	sess.CurrentStep = StepConvertToJSON
	if err := e.Store.Save(sess); err != nil {
		return false, err
	}

	ui.Success("Workflow complete!")
	return true, nil
}

// failSave persists the current (unchanged) state after a generation failure
// so the session stays resumable, then returns the original error. A failing
// save is logged; the generation error is still the one the caller sees.
func (e *Engine) failSave(sess *Session, cause error) error {
	if err := e.Store.Save(sess); err != nil {
		e.Logger.Error("failed to save session after generation error", map[string]interface{}{
			"session": sess.ID,
			"error":   err.Error(),
		})
	}
	return cause
}

func (e *Engine) exportResults(sess *Session, ui Reporter) error {
	format, err := e.Prompt.SelectExportFormat()
	if err != nil {
		return err
	}
	files, err := e.Exporter.ExportSession(sess, format)
	if err != nil {
		return err
	}

	lines := []string{"Your product specification is ready!", ""}
	lines = append(lines, files...)
	lines = append(lines, "", fmt.Sprintf("Session ID: %s", sess.ID))
	ui.Box("Export Complete", lines)
	return nil
}
