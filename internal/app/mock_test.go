package app

import (
	"context"
	"testing"
)

func TestMockGenerator_ShapesMatchOpts(t *testing.T) {
	mock := NewMockGenerator()
	opts := QuestionOpts{QuestionsCount: 3, AnswersPerQuestion: 2}

	questions, err := mock.GenerateQuestions(context.Background(), "idea", 2, nil, opts)
	if err != nil {
		t.Fatalf("GenerateQuestions: %v", err)
	}
	if err := validateQuestions(questions, opts); err != nil {
		t.Fatalf("mock output fails validation: %v", err)
	}

	writeup, err := mock.GenerateWriteup(context.Background(), "My Idea", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if writeup == "" {
		t.Fatal("empty writeup")
	}

	structure, err := mock.GenerateFileStructure(context.Background(), writeup)
	if err != nil {
		t.Fatal(err)
	}
	item, err := mock.ConvertToJSON(context.Background(), structure)
	if err != nil {
		t.Fatal(err)
	}
	if item.Type != "directory" || len(item.Children) == 0 {
		t.Fatalf("root item = %+v", item)
	}

	if mock.Calls != 4 {
		t.Fatalf("Calls = %d, want 4", mock.Calls)
	}
}
