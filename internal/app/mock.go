package app

import (
	"context"
	"fmt"
)

// MockGenerator simulates the provider for development runs and tests.
// Output is deterministic and shaped exactly like a well-behaved provider's.
type MockGenerator struct {
	Calls int
}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

func (m *MockGenerator) GenerateQuestions(_ context.Context, _ string, round int, _ []QA, opts QuestionOpts) ([]Question, error) {
	m.Calls++
	questions := make([]Question, opts.QuestionsCount)
	for i := range questions {
		choices := make([]string, opts.AnswersPerQuestion)
		for j := range choices {
			choices[j] = fmt.Sprintf("Option %d", j+1)
		}
		questions[i] = Question{
			Question: fmt.Sprintf("Round %d question %d: which direction matters most?", round, i+1),
			Choices:  choices,
		}
	}
	return questions, nil
}

func (m *MockGenerator) GenerateWriteup(_ context.Context, idea string, _, _ []string) (string, error) {
	m.Calls++
	return fmt.Sprintf("# %s\n\n## Executive Summary\n\nA mock technical specification for development runs.\n\n## Core Features\n\n- Feature one\n- Feature two\n", idea), nil
}

func (m *MockGenerator) GenerateFileStructure(_ context.Context, _ string) (string, error) {
	m.Calls++
	return "project/\n├── cmd/\n│   └── main.go - entry point\n├── internal/\n│   └── core.go - core logic\n└── README.md", nil
}

func (m *MockGenerator) ConvertToJSON(_ context.Context, _ string) (*FileStructureItem, error) {
	m.Calls++
	return &FileStructureItem{
		Type: "directory",
		Name: "project",
		Children: []FileStructureItem{
			{Type: "directory", Name: "cmd", Children: []FileStructureItem{
				{Type: "file", Name: "main.go", Description: "entry point"},
			}},
			{Type: "directory", Name: "internal", Children: []FileStructureItem{
				{Type: "file", Name: "core.go", Description: "core logic"},
			}},
			{Type: "file", Name: "README.md"},
		},
	}, nil
}
