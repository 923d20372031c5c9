package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeGenerator counts calls and delegates to optional per-method hooks.
type fakeGenerator struct {
	questionCalls  int
	writeupCalls   int
	structureCalls int
	convertCalls   int

	questionsFn func(round int) ([]Question, error)
	writeupFn   func() (string, error)
	structureFn func() (string, error)
	convertFn   func() (*FileStructureItem, error)
}

func (f *fakeGenerator) GenerateQuestions(_ context.Context, _ string, round int, _ []QA, opts QuestionOpts) ([]Question, error) {
	f.questionCalls++
	if f.questionsFn != nil {
		return f.questionsFn(round)
	}
	questions := make([]Question, opts.QuestionsCount)
	for i := range questions {
		choices := make([]string, opts.AnswersPerQuestion)
		for j := range choices {
			choices[j] = fmt.Sprintf("Choice %d", j+1)
		}
		questions[i] = Question{Question: fmt.Sprintf("Round %d question %d?", round, i+1), Choices: choices}
	}
	return questions, nil
}

func (f *fakeGenerator) GenerateWriteup(context.Context, string, []string, []string) (string, error) {
	f.writeupCalls++
	if f.writeupFn != nil {
		return f.writeupFn()
	}
	return "# Spec\n\n## Overview\n\nGenerated.", nil
}

func (f *fakeGenerator) GenerateFileStructure(context.Context, string) (string, error) {
	f.structureCalls++
	if f.structureFn != nil {
		return f.structureFn()
	}
	return "project/\n├── main.go\n└── README.md", nil
}

func (f *fakeGenerator) ConvertToJSON(context.Context, string) (*FileStructureItem, error) {
	f.convertCalls++
	if f.convertFn != nil {
		return f.convertFn()
	}
	return &FileStructureItem{Type: "directory", Name: "project"}, nil
}

// fakePrompter answers every question with its first choice and walks a
// scripted sequence of continue decisions.
type fakePrompter struct {
	continues []bool
	calls     int
	format    ExportFormat
}

func (f *fakePrompter) AskQuestions(questions []Question, _ int) ([]string, error) {
	answers := make([]string, len(questions))
	for i, q := range questions {
		if len(q.Choices) > 0 {
			answers[i] = q.Choices[0]
		}
	}
	return answers, nil
}

func (f *fakePrompter) ConfirmContinue(string) (bool, error) {
	if f.calls < len(f.continues) {
		cont := f.continues[f.calls]
		f.calls++
		return cont, nil
	}
	f.calls++
	return true, nil
}

func (f *fakePrompter) SelectExportFormat() (ExportFormat, error) {
	if f.format == "" {
		return FormatMarkdown, nil
	}
	return f.format, nil
}

func newTestEngine(t *testing.T, gen Generator, prompt Prompter) (*Engine, *FileSessionStore) {
	t.Helper()
	store := newTestStore(t)
	return &Engine{
		Store:    store,
		Gen:      gen,
		Prompt:   prompt,
		Exporter: &Exporter{Dir: t.TempDir()},
		UI:       NopReporter{},
		Logger:   NewLogger(nil),
	}, store
}

func TestRun_PauseAfterFirstRound(t *testing.T) {
	gen := &fakeGenerator{}
	prompt := &fakePrompter{continues: []bool{false}}
	engine, store := newTestEngine(t, gen, prompt)

	sess, err := store.Create("A habit tracker", DefaultSessionConfig(ProviderAnthropic))
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.Run(context.Background(), sess); err != nil {
		t.Fatalf("Run: %v", err)
	}

	loaded, err := store.Load(sess.ID)
	if err != nil {
		t.Fatalf("Load after pause: %v", err)
	}
	if len(loaded.QuestionRounds) != 1 {
		t.Fatalf("QuestionRounds = %d, want 1", len(loaded.QuestionRounds))
	}
	if loaded.CurrentStep != StepQuestionsRound2 {
		t.Fatalf("CurrentStep = %v, want %v", loaded.CurrentStep, StepQuestionsRound2)
	}
	if gen.questionCalls != 1 {
		t.Fatalf("question generations = %d, want 1", gen.questionCalls)
	}
	round := loaded.QuestionRounds[0]
	if round.RoundNumber != 1 {
		t.Fatalf("RoundNumber = %d, want 1", round.RoundNumber)
	}
	if len(round.Answers) != len(round.Questions) {
		t.Fatalf("answers %d != questions %d", len(round.Answers), len(round.Questions))
	}
}

func TestRun_ResumeAtWriteupGeneratesOnce(t *testing.T) {
	gen := &fakeGenerator{}
	// Decline "Generate file structure?" so the run stops after the writeup.
	prompt := &fakePrompter{continues: []bool{false}}
	engine, store := newTestEngine(t, gen, prompt)

	sess, err := store.Create("A budgeting app", DefaultSessionConfig(ProviderAnthropic))
	if err != nil {
		t.Fatal(err)
	}
	sess.CurrentStep = StepFinalWriteup
	for round := 1; round <= 3; round++ {
		sess.QuestionRounds = append(sess.QuestionRounds, QuestionRound{
			RoundNumber: round,
			Questions:   []Question{{Question: "Q?", Choices: []string{"A", "B"}}},
			Answers:     []string{"A"},
		})
	}
	if err := store.Save(sess); err != nil {
		t.Fatal(err)
	}

	if err := engine.Run(context.Background(), sess); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if gen.questionCalls != 0 {
		t.Fatalf("question generations on resume = %d, want 0", gen.questionCalls)
	}
	if gen.writeupCalls != 1 {
		t.Fatalf("writeup generations = %d, want 1", gen.writeupCalls)
	}

	loaded, err := store.Load(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Writeup == "" {
		t.Fatal("writeup not persisted")
	}
	// The advance to the next step is persisted before the user is asked
	// anything, so a crash at the prompt resumes past the writeup.
	if loaded.CurrentStep != StepGenerateFileStructure {
		t.Fatalf("CurrentStep = %v, want %v", loaded.CurrentStep, StepGenerateFileStructure)
	}
}

func TestRun_ConvertFailureKeepsStep(t *testing.T) {
	convertErr := &GenerationError{Op: "json conversion", Err: errors.New("response contains no JSON object")}
	gen := &fakeGenerator{
		convertFn: func() (*FileStructureItem, error) { return nil, convertErr },
	}
	prompt := &fakePrompter{continues: []bool{true}}
	engine, store := newTestEngine(t, gen, prompt)

	sess, err := store.Create("A notes app", DefaultSessionConfig(ProviderAnthropic))
	if err != nil {
		t.Fatal(err)
	}
	sess.CurrentStep = StepGenerateFileStructure
	sess.Writeup = "# Spec"
	if err := store.Save(sess); err != nil {
		t.Fatal(err)
	}

	err = engine.Run(context.Background(), sess)
	if err == nil {
		t.Fatal("Run returned nil, want conversion error")
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("error = %T, want *GenerationError", err)
	}

	loaded, err := store.Load(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.CurrentStep != StepGenerateFileStructure {
		t.Fatalf("CurrentStep = %v, want %v (unchanged)", loaded.CurrentStep, StepGenerateFileStructure)
	}
	// The structure itself succeeded and is kept for the retry.
	if loaded.FileStructure == "" {
		t.Fatal("file structure not persisted before conversion failure")
	}
	if loaded.FileStructureJSON != nil {
		t.Fatal("fileStructureJson set despite conversion failure")
	}
}

func TestRun_QuestionFailureKeepsSessionResumable(t *testing.T) {
	genErr := &GenerationError{Op: "questions", Err: errors.New("expected 5 questions, got 2")}
	gen := &fakeGenerator{
		questionsFn: func(int) ([]Question, error) { return nil, genErr },
	}
	engine, store := newTestEngine(t, gen, &fakePrompter{})

	sess, err := store.Create("A chat app", DefaultSessionConfig(ProviderAnthropic))
	if err != nil {
		t.Fatal(err)
	}

	if err := engine.Run(context.Background(), sess); err == nil {
		t.Fatal("Run returned nil, want generation error")
	}

	loaded, err := store.Load(sess.ID)
	if err != nil {
		t.Fatalf("session not resumable after failure: %v", err)
	}
	if loaded.CurrentStep != StepQuestionsRound1 {
		t.Fatalf("CurrentStep = %v, want %v", loaded.CurrentStep, StepQuestionsRound1)
	}
	if len(loaded.QuestionRounds) != 0 {
		t.Fatalf("QuestionRounds = %d, want 0", len(loaded.QuestionRounds))
	}
}

func TestRun_FullWorkflowReachesTerminalStep(t *testing.T) {
	gen := &fakeGenerator{}
	prompt := &fakePrompter{format: FormatBoth}
	engine, store := newTestEngine(t, gen, prompt)

	sess, err := store.Create("A recipe box", DefaultSessionConfig(ProviderAnthropic))
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.Run(context.Background(), sess); err != nil {
		t.Fatalf("Run: %v", err)
	}

	loaded, err := store.Load(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.CurrentStep != StepConvertToJSON {
		t.Fatalf("CurrentStep = %v, want %v", loaded.CurrentStep, StepConvertToJSON)
	}
	if len(loaded.QuestionRounds) != 3 {
		t.Fatalf("QuestionRounds = %d, want 3", len(loaded.QuestionRounds))
	}
	if loaded.Writeup == "" || loaded.FileStructure == "" || loaded.FileStructureJSON == nil {
		t.Fatal("artifacts missing after full run")
	}
	if gen.questionCalls != 3 || gen.writeupCalls != 1 || gen.structureCalls != 1 || gen.convertCalls != 1 {
		t.Fatalf("call counts = %d/%d/%d/%d, want 3/1/1/1",
			gen.questionCalls, gen.writeupCalls, gen.structureCalls, gen.convertCalls)
	}
}

func TestRun_RerunningCompleteSessionOnlyExports(t *testing.T) {
	gen := &fakeGenerator{}
	prompt := &fakePrompter{}
	engine, store := newTestEngine(t, gen, prompt)

	sess, err := store.Create("A forum", DefaultSessionConfig(ProviderAnthropic))
	if err != nil {
		t.Fatal(err)
	}
	sess.CurrentStep = StepConvertToJSON
	sess.Writeup = "# Spec"
	sess.FileStructure = "project/"
	sess.FileStructureJSON = &FileStructureItem{Type: "directory", Name: "project"}
	if err := store.Save(sess); err != nil {
		t.Fatal(err)
	}

	if err := engine.Run(context.Background(), sess); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gen.questionCalls+gen.writeupCalls+gen.structureCalls+gen.convertCalls != 0 {
		t.Fatal("complete session triggered generation")
	}
}

func TestRun_ShortAnswerSlicePaddedWithSkips(t *testing.T) {
	gen := &fakeGenerator{}
	prompt := &shortAnswerPrompter{}
	engine, store := newTestEngine(t, gen, prompt)

	sess, err := store.Create("A game", DefaultSessionConfig(ProviderAnthropic))
	if err != nil {
		t.Fatal(err)
	}
	if err := engine.Run(context.Background(), sess); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.Load(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	round := loaded.QuestionRounds[0]
	if len(round.Answers) != len(round.Questions) {
		t.Fatalf("answers %d != questions %d", len(round.Answers), len(round.Questions))
	}
	for i := 1; i < len(round.Answers); i++ {
		if round.Answers[i] != "" {
			t.Fatalf("answer %d = %q, want empty (skipped)", i, round.Answers[i])
		}
	}
}

// shortAnswerPrompter answers only the first question, then pauses.
type shortAnswerPrompter struct{}

func (shortAnswerPrompter) AskQuestions(questions []Question, _ int) ([]string, error) {
	if len(questions) == 0 {
		return nil, nil
	}
	return []string{questions[0].Choices[0]}, nil
}

func (shortAnswerPrompter) ConfirmContinue(string) (bool, error)      { return false, nil }
func (shortAnswerPrompter) SelectExportFormat() (ExportFormat, error) { return FormatMarkdown, nil }
