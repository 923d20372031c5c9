package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Exporter renders session state into files under Dir (the process working
// directory when empty). File writes fail fast; errors propagate.
type Exporter struct {
	Dir string
}

func NewExporter(dir string) *Exporter {
	return &Exporter{Dir: dir}
}

func (e *Exporter) outputDir() string {
	if e.Dir != "" {
		return e.Dir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

var slugCleanRe = regexp.MustCompile(`[^a-z0-9]`)

// baseFileName derives the deterministic filename stem: a slug of the first
// 30 characters of the idea plus the session id plus an optional suffix.
func baseFileName(sess *Session, suffix string) string {
	idea := sess.Idea
	if runes := []rune(idea); len(runes) > 30 {
		idea = string(runes[:30])
	}
	slug := slugCleanRe.ReplaceAllString(strings.ToLower(idea), "-")
	return slug + "-" + sess.ID + suffix
}

// ExportSession writes the full session in the requested format(s) and
// returns the paths written.
func (e *Exporter) ExportSession(sess *Session, format ExportFormat) ([]string, error) {
	base := baseFileName(sess, "")
	var files []string

	if format == FormatMarkdown || format == FormatBoth {
		path := filepath.Join(e.outputDir(), base+".md")
		if err := os.WriteFile(path, []byte(e.renderMarkdown(sess)), 0o644); err != nil {
			return nil, err
		}
		files = append(files, path)
	}

	if format == FormatJSON || format == FormatBoth {
		doc := fullExportDoc(sess)
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		path := filepath.Join(e.outputDir(), base+".json")
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return nil, err
		}
		files = append(files, path)
	}

	return files, nil
}

// ExportSpecificationOnly writes just the writeup. Fails when no writeup has
// been generated yet.
func (e *Exporter) ExportSpecificationOnly(sess *Session, format ExportFormat) (string, error) {
	if sess.Writeup == "" {
		return "", fmt.Errorf("no specification found to export")
	}
	base := baseFileName(sess, "-spec")

	if format == FormatMarkdown {
		var b strings.Builder
		fmt.Fprintf(&b, "# %s - Technical Specification\n\n", sess.Idea)
		fmt.Fprintf(&b, "> Generated on %s using MakeAPlan CLI\n\n", sess.CreatedAt.Format("2006-01-02"))
		b.WriteString(sess.Writeup)
		fmt.Fprintf(&b, "\n\n---\n\n*Session ID: %s*\n", sess.ID)

		path := filepath.Join(e.outputDir(), base+".md")
		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return "", err
		}
		return path, nil
	}

	doc := map[string]interface{}{
		"metadata": map[string]interface{}{
			"id":        sess.ID,
			"createdAt": sess.CreatedAt,
			"updatedAt": sess.UpdatedAt,
			"type":      "specification",
		},
		"idea":          sess.Idea,
		"specification": sess.Writeup,
	}
	return e.writeJSONDoc(base, doc)
}

// ExportFileStructureOnly writes just the file structure. Fails when absent.
func (e *Exporter) ExportFileStructureOnly(sess *Session, format ExportFormat) (string, error) {
	if sess.FileStructure == "" {
		return "", fmt.Errorf("no file structure found to export")
	}
	base := baseFileName(sess, "-structure")

	if format == FormatMarkdown {
		var b strings.Builder
		fmt.Fprintf(&b, "# %s - File Structure\n\n", sess.Idea)
		fmt.Fprintf(&b, "> Generated on %s using MakeAPlan CLI\n\n", sess.CreatedAt.Format("2006-01-02"))
		b.WriteString("```\n")
		b.WriteString(sess.FileStructure)
		b.WriteString("\n```\n")
		fmt.Fprintf(&b, "\n---\n\n*Session ID: %s*\n", sess.ID)

		path := filepath.Join(e.outputDir(), base+".md")
		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return "", err
		}
		return path, nil
	}

	doc := map[string]interface{}{
		"metadata": map[string]interface{}{
			"id":        sess.ID,
			"createdAt": sess.CreatedAt,
			"updatedAt": sess.UpdatedAt,
			"type":      "file-structure",
		},
		"idea":          sess.Idea,
		"fileStructure": sess.FileStructure,
	}
	return e.writeJSONDoc(base, doc)
}

func (e *Exporter) writeJSONDoc(base string, doc map[string]interface{}) (string, error) {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(e.outputDir(), base+".json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type exportMetadata struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Config    SessionConfig `json:"config"`
}

type exportOutputs struct {
	Writeup           string             `json:"writeup,omitempty"`
	FileStructure     string             `json:"fileStructure,omitempty"`
	FileStructureJSON *FileStructureItem `json:"fileStructureJson,omitempty"`
}

type exportDoc struct {
	Metadata       exportMetadata  `json:"metadata"`
	Idea           string          `json:"idea"`
	QuestionRounds []QuestionRound `json:"questionRounds"`
	Outputs        exportOutputs   `json:"outputs"`
}

func fullExportDoc(sess *Session) exportDoc {
	return exportDoc{
		Metadata: exportMetadata{
			ID:        sess.ID,
			CreatedAt: sess.CreatedAt,
			UpdatedAt: sess.UpdatedAt,
			Config:    sess.Config,
		},
		Idea:           sess.Idea,
		QuestionRounds: sess.QuestionRounds,
		Outputs: exportOutputs{
			Writeup:           sess.Writeup,
			FileStructure:     sess.FileStructure,
			FileStructureJSON: sess.FileStructureJSON,
		},
	}
}

func (e *Exporter) renderMarkdown(sess *Session) string {
	var md strings.Builder

	fmt.Fprintf(&md, "# %s\n\n", sess.Idea)
	fmt.Fprintf(&md, "> Generated on %s using MakeAPlan CLI\n\n", sess.CreatedAt.Format("2006-01-02"))

	md.WriteString("## Table of Contents\n\n")
	md.WriteString("1. [Product Idea](#product-idea)\n")
	md.WriteString("2. [Discovery Process](#discovery-process)\n")
	if sess.Writeup != "" {
		md.WriteString("3. [Technical Specification](#technical-specification)\n")
	}
	if sess.FileStructure != "" {
		md.WriteString("4. [File Structure](#file-structure)\n")
	}
	md.WriteString("\n---\n\n")

	md.WriteString("## Product Idea\n\n")
	md.WriteString(sess.Idea)
	md.WriteString("\n\n")

	md.WriteString("## Discovery Process\n\n")
	md.WriteString("The following questions were asked to better understand the requirements:\n\n")
	for _, round := range sess.QuestionRounds {
		fmt.Fprintf(&md, "### Round %d\n\n", round.RoundNumber)
		for i, q := range round.Questions {
			if i >= len(round.Answers) || round.Answers[i] == "" {
				continue
			}
			fmt.Fprintf(&md, "**Q%d: %s**\n", i+1, q.Question)
			fmt.Fprintf(&md, "> %s\n\n", round.Answers[i])
		}
	}

	if sess.Writeup != "" {
		md.WriteString("---\n\n## Technical Specification\n\n")
		md.WriteString(sess.Writeup)
		md.WriteString("\n\n")
	}

	if sess.FileStructure != "" {
		md.WriteString("---\n\n## File Structure\n\n")
		md.WriteString("```\n")
		md.WriteString(sess.FileStructure)
		md.WriteString("\n```\n\n")
	}

	md.WriteString("---\n\n## Configuration\n\n")
	fmt.Fprintf(&md, "- **AI Provider**: %s\n", sess.Config.Provider)
	fmt.Fprintf(&md, "- **First Round Questions**: %d\n", sess.Config.FirstRoundQuestions)
	fmt.Fprintf(&md, "- **Subsequent Round Questions**: %d\n", sess.Config.SubsequentRoundQuestions)
	fmt.Fprintf(&md, "- **Answers Per Question**: %d\n", sess.Config.AnswersPerQuestion)

	return md.String()
}
