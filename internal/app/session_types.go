package app

import (
	"encoding/json"
	"fmt"
	"time"
)

// Step is a position in the linear specification workflow. Steps are ordered
// by their integer value; persisted records carry the string name.
type Step int

const (
	StepInitialIdea Step = iota
	StepQuestionsRound1
	StepQuestionsRound2
	StepQuestionsRound3
	StepFinalWriteup
	StepGenerateFileStructure
	StepConvertToJSON
)

var stepNames = map[Step]string{
	StepInitialIdea:           "INITIAL_IDEA",
	StepQuestionsRound1:       "QUESTIONS_ROUND_1",
	StepQuestionsRound2:       "QUESTIONS_ROUND_2",
	StepQuestionsRound3:       "QUESTIONS_ROUND_3",
	StepFinalWriteup:          "FINAL_WRITEUP",
	StepGenerateFileStructure: "GENERATE_FILE_STRUCTURE",
	StepConvertToJSON:         "CONVERT_TO_JSON",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STEP_%d", int(s))
}

// Label returns the human-facing name shown in list output and pickers.
func (s Step) Label() string {
	switch s {
	case StepInitialIdea:
		return "Initial"
	case StepQuestionsRound1:
		return "Questions 1/3"
	case StepQuestionsRound2:
		return "Questions 2/3"
	case StepQuestionsRound3:
		return "Questions 3/3"
	case StepFinalWriteup:
		return "Writeup"
	case StepGenerateFileStructure:
		return "File Structure"
	case StepConvertToJSON:
		return "Complete"
	default:
		return "Unknown"
	}
}

// ParseStep maps a persisted step name back to its Step value.
func ParseStep(name string) (Step, bool) {
	for step, n := range stepNames {
		if n == name {
			return step, true
		}
	}
	return 0, false
}

func (s Step) MarshalJSON() ([]byte, error) {
	name, ok := stepNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown workflow step %d", int(s))
	}
	return json.Marshal(name)
}

func (s *Step) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	step, ok := ParseStep(name)
	if !ok {
		return fmt.Errorf("unknown workflow step %q", name)
	}
	*s = step
	return nil
}

// Question is a single generated multiple-choice question.
type Question struct {
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
}

// QuestionRound records one completed round of Q&A. Answers is always the
// same length as Questions; a skipped question is an empty string.
type QuestionRound struct {
	RoundNumber int        `json:"roundNumber"`
	Questions   []Question `json:"questions"`
	Answers     []string   `json:"answers"`
	Timestamp   time.Time  `json:"timestamp"`
}

// FileStructureItem is one node of the generated project tree.
type FileStructureItem struct {
	Type        string              `json:"type"` // "file" or "directory"
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Children    []FileStructureItem `json:"children,omitempty"`
}

// SessionConfig holds the generation parameters chosen at session creation.
// It is immutable for the session's lifetime.
type SessionConfig struct {
	FirstRoundQuestions      int    `json:"firstRoundQuestions"`
	SubsequentRoundQuestions int    `json:"subsequentRoundQuestions"`
	AnswersPerQuestion       int    `json:"answersPerQuestion"`
	Provider                 string `json:"provider"` // "anthropic" or "openai"
	Model                    string `json:"model,omitempty"`
}

// DefaultSessionConfig is used when configuration questions are skipped.
func DefaultSessionConfig(provider string) SessionConfig {
	if provider == "" {
		provider = ProviderAnthropic
	}
	return SessionConfig{
		FirstRoundQuestions:      5,
		SubsequentRoundQuestions: 5,
		AnswersPerQuestion:       4,
		Provider:                 provider,
	}
}

// Session is the unit of persisted work: one product idea walked through the
// question rounds toward a specification and file structure.
type Session struct {
	ID                string             `json:"id"`
	Idea              string             `json:"idea"`
	CurrentStep       Step               `json:"currentStep"`
	QuestionRounds    []QuestionRound    `json:"questionRounds"`
	Writeup           string             `json:"writeup,omitempty"`
	FileStructure     string             `json:"fileStructure,omitempty"`
	FileStructureJSON *FileStructureItem `json:"fileStructureJson,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
	Config            SessionConfig      `json:"config"`
}

// QA is one prior question/answer pair passed back to the generator as
// context for follow-up rounds.
type QA struct {
	Question string
	Answer   string
}

// PriorQA flattens all recorded rounds into question/answer pairs, in order.
func (s *Session) PriorQA() []QA {
	var out []QA
	for _, round := range s.QuestionRounds {
		for i, q := range round.Questions {
			answer := ""
			if i < len(round.Answers) {
				answer = round.Answers[i]
			}
			out = append(out, QA{Question: q.Question, Answer: answer})
		}
	}
	return out
}

// SessionSummary is the list/picker projection of a stored session.
type SessionSummary struct {
	ID        string
	Idea      string
	UpdatedAt time.Time
	Step      Step
}
