package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// QuestionOpts sizes one round of generated questions.
type QuestionOpts struct {
	QuestionsCount     int
	AnswersPerQuestion int
}

// withDefaults fills unset counts so the prompt and the response validation
// always agree on the expected shape.
func (o QuestionOpts) withDefaults() QuestionOpts {
	if o.QuestionsCount <= 0 {
		o.QuestionsCount = 5
	}
	if o.AnswersPerQuestion <= 0 {
		o.AnswersPerQuestion = 4
	}
	return o
}

// Generator is the capability boundary to the language-model provider.
// Every call may block on network latency and may fail; no retries happen
// inside the gateway.
type Generator interface {
	GenerateQuestions(ctx context.Context, idea string, round int, prior []QA, opts QuestionOpts) ([]Question, error)
	GenerateWriteup(ctx context.Context, idea string, questions, answers []string) (string, error)
	GenerateFileStructure(ctx context.Context, writeup string) (string, error)
	ConvertToJSON(ctx context.Context, fileStructure string) (*FileStructureItem, error)
}

// promptSender is the single primitive each provider implements: one user
// prompt in, the model's text out.
type promptSender interface {
	SendPrompt(ctx context.Context, prompt string) (string, error)
}

// generator layers the prompt construction and response parsing shared by
// all providers over a promptSender.
type generator struct {
	sender promptSender
}

// NewGenerator resolves the provider named by the session config and returns
// a ready Generator, or an error when the provider is unknown or no API key
// is available.
func NewGenerator(cfg Config, sc SessionConfig) (Generator, error) {
	provider := sc.Provider
	if provider == "" {
		provider = cfg.DefaultProvider
	}
	if err := ValidateProvider(provider); err != nil {
		return nil, err
	}

	apiKey := cfg.APIKey(provider)
	if apiKey == "" {
		return nil, fmt.Errorf("no API key for %s: set %s or run `makeaplan config keys`", provider, KeyEnvVar(provider))
	}

	model := sc.Model
	if model == "" {
		model = cfg.DefaultModel
	}
	if model == "" {
		model = DefaultModelFor(provider)
	}

	switch provider {
	case ProviderAnthropic:
		return &generator{sender: newAnthropicSender(apiKey, model)}, nil
	case ProviderOpenAI:
		return &generator{sender: newOpenAISender(apiKey, model)}, nil
	default:
		return nil, &ValidationError{Msg: fmt.Sprintf("unknown provider %q", provider)}
	}
}

func (g *generator) GenerateQuestions(ctx context.Context, idea string, round int, prior []QA, opts QuestionOpts) ([]Question, error) {
	opts = opts.withDefaults()
	prompt := buildQuestionsPrompt(idea, round, prior, opts)
	response, err := g.sender.SendPrompt(ctx, prompt)
	if err != nil {
		return nil, &GenerationError{Op: "questions", Err: err}
	}
	questions := parseQuestions(response)
	if err := validateQuestions(questions, opts); err != nil {
		return nil, &GenerationError{Op: "questions", Err: err}
	}
	return questions, nil
}

func (g *generator) GenerateWriteup(ctx context.Context, idea string, questions, answers []string) (string, error) {
	prompt := buildWriteupPrompt(idea, questions, answers)
	response, err := g.sender.SendPrompt(ctx, prompt)
	if err != nil {
		return "", &GenerationError{Op: "writeup", Err: err}
	}
	return extractTagged(response, "writeup"), nil
}

func (g *generator) GenerateFileStructure(ctx context.Context, writeup string) (string, error) {
	prompt := buildFileStructurePrompt(writeup)
	response, err := g.sender.SendPrompt(ctx, prompt)
	if err != nil {
		return "", &GenerationError{Op: "file structure", Err: err}
	}
	return extractTagged(response, "filestructure"), nil
}

func (g *generator) ConvertToJSON(ctx context.Context, fileStructure string) (*FileStructureItem, error) {
	prompt := buildJSONConversionPrompt(fileStructure)
	response, err := g.sender.SendPrompt(ctx, prompt)
	if err != nil {
		return nil, &GenerationError{Op: "json conversion", Err: err}
	}
	item, err := extractFileStructureJSON(response)
	if err != nil {
		return nil, &GenerationError{Op: "json conversion", Err: err}
	}
	return item, nil
}

func buildQuestionsPrompt(idea string, round int, prior []QA, opts QuestionOpts) string {
	count := opts.QuestionsCount
	choices := opts.AnswersPerQuestion

	var b strings.Builder
	b.WriteString("You are an expert product designer and software architect helping to refine and develop product ideas.\n\n")

	if round == 1 {
		fmt.Fprintf(&b, "I have a product idea: %q.\n\n", idea)
		fmt.Fprintf(&b, "Please ask me %d multiple choice questions to better understand my requirements, target audience, and key features.\n", count)
	} else {
		fmt.Fprintf(&b, "Original idea: %q\n\n", idea)
		b.WriteString("Previous questions and answers:\n")
		for i, qa := range prior {
			fmt.Fprintf(&b, "Q%d: %s\n", i+1, qa.Question)
			fmt.Fprintf(&b, "A%d: %s\n\n", i+1, qa.Answer)
		}
		if round == 2 {
			fmt.Fprintf(&b, "Based on the previous answers, ask %d follow-up questions focusing on user experience, user stories, and product differentiation.\n", count)
		} else {
			fmt.Fprintf(&b, "Based on all previous answers, ask %d technical implementation questions about architecture, integrations, and development approach.\n", count)
		}
	}

	b.WriteString("\nFormat your response as:\n")
	b.WriteString("<questions>\n<question>\n<text>Your question here</text>\n<choices>\n")
	for i := 1; i <= choices; i++ {
		fmt.Fprintf(&b, "<choice>Option %d</choice>\n", i)
	}
	b.WriteString("</choices>\n</question>\n</questions>\n")
	fmt.Fprintf(&b, "\nProvide exactly %d questions with %d choices each.", count, choices)
	return b.String()
}

func buildWriteupPrompt(idea string, questions, answers []string) string {
	var qa strings.Builder
	for i, q := range questions {
		answer := ""
		if i < len(answers) {
			answer = answers[i]
		}
		fmt.Fprintf(&qa, "Q: %s\nA: %s\n\n", q, answer)
	}

	return fmt.Sprintf(`You are an expert product designer and software architect. Based on the following product idea and Q&A session, create a comprehensive technical specification document.

Original Idea: %q

Questions and Answers:
%s
Please create a detailed technical specification that includes:
1. Executive Summary
2. Product Overview and Goals
3. Target Audience and User Personas
4. Core Features and Functionality
5. Technical Architecture
6. Data Models and Database Design
7. API Design and Integrations
8. Security Considerations
9. Performance Requirements
10. Development Roadmap and Milestones

Use markdown formatting and be thorough but concise. Focus on actionable technical details.

Wrap your entire response in <writeup> tags.`, idea, qa.String())
}

func buildFileStructurePrompt(writeup string) string {
	return fmt.Sprintf(`Based on this technical specification, create an optimal file structure for the project.

Technical Specification:
%s

Please create a comprehensive file structure that:
1. Follows modern best practices
2. Groups related files logically
3. Includes all necessary configuration files
4. Identifies key dependencies and packages needed

Format the output as a tree structure with descriptions for important files/directories.

Wrap your response in <filestructure> tags.`, writeup)
}

func buildJSONConversionPrompt(fileStructure string) string {
	return fmt.Sprintf(`Convert this file structure to a JSON format:

%s

Create a JSON structure where each item has:
- type: "file" or "directory"
- name: the file/directory name
- description: (optional) description of the file/directory
- children: (for directories) array of child items

Wrap the JSON in <json> tags.`, fileStructure)
}

var (
	questionRe = regexp.MustCompile(`(?s)<question>.*?<text>(.*?)</text>.*?<choices>(.*?)</choices>.*?</question>`)
	choiceRe   = regexp.MustCompile(`(?s)<choice>(.*?)</choice>`)
	fenceRe    = regexp.MustCompile("(?i)^```(?:json)?\\s*|\\s*```$")
	tagRe      = regexp.MustCompile(`<[^>]*>`)
)

func parseQuestions(response string) []Question {
	var questions []Question
	for _, m := range questionRe.FindAllStringSubmatch(response, -1) {
		var choices []string
		for _, cm := range choiceRe.FindAllStringSubmatch(m[2], -1) {
			choices = append(choices, strings.TrimSpace(cm[1]))
		}
		questions = append(questions, Question{
			Question: strings.TrimSpace(m[1]),
			Choices:  choices,
		})
	}
	return questions
}

func validateQuestions(questions []Question, opts QuestionOpts) error {
	if len(questions) != opts.QuestionsCount {
		return fmt.Errorf("expected %d questions, got %d", opts.QuestionsCount, len(questions))
	}
	for i, q := range questions {
		if len(q.Choices) != opts.AnswersPerQuestion {
			return fmt.Errorf("question %d has %d choices, expected %d", i+1, len(q.Choices), opts.AnswersPerQuestion)
		}
	}
	return nil
}

// extractTagged pulls the content between <tag> and </tag>, falling back to
// the whole response when the provider skipped the tags.
func extractTagged(response, tag string) string {
	re := regexp.MustCompile(`(?s)<` + tag + `>(.*?)</` + tag + `>`)
	if m := re.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(response)
}

// extractFileStructureJSON recovers the JSON object from a provider response
// that may carry tags, code fences, or surrounding prose.
func extractFileStructureJSON(response string) (*FileStructureItem, error) {
	raw := extractTagged(response, "json")
	raw = fenceRe.ReplaceAllString(raw, "")
	raw = tagRe.ReplaceAllString(raw, "")

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, errors.New("response contains no JSON object")
	}
	raw = raw[start : end+1]

	var item FileStructureItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		return nil, err
	}
	return &item, nil
}
