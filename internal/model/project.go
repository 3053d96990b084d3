package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProjectFile is the default analysis schema filename looked up in the
// working directory.
const ProjectFile = "qlassifai.yaml"

// Project is the user-authored analysis definition: which check attributes
// to extract, which model to use, and optional guidance for the prompts.
type Project struct {
	Version          string         `yaml:"version,omitempty"`
	Model            string         `yaml:"model,omitempty"`
	Provider         string         `yaml:"provider,omitempty"`
	ResearchQuestion string         `yaml:"research_question,omitempty"`
	WithReasons      bool           `yaml:"with_reasons,omitempty"`
	TextColumn       string         `yaml:"text_column,omitempty"`
	Checks           []projectCheck `yaml:"checks"`
}

type projectCheck struct {
	ID         string     `yaml:"id,omitempty"`
	Question   string     `yaml:"question"`
	AnswerType AnswerType `yaml:"type"`
	Categories []string   `yaml:"categories,omitempty"`
	Definition string     `yaml:"definition,omitempty"`
}

// LoadProject reads and validates a project file
func LoadProject(path string) (*Project, *Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read project file: %w", err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, nil, fmt.Errorf("parse project file %s: %w", path, err)
	}

	if len(p.Checks) == 0 {
		return nil, nil, fmt.Errorf("project file %s: no checks defined", path)
	}
	if p.Provider != "" && p.Provider != "openai" && p.Provider != "openrouter" {
		return nil, nil, fmt.Errorf("project file %s: provider must be openai or openrouter, got %q", path, p.Provider)
	}

	attrs := make([]CheckAttribute, 0, len(p.Checks))
	for i, c := range p.Checks {
		attr, err := NewCheckAttribute(c.ID, c.Question, c.AnswerType, c.Categories, c.Definition)
		if err != nil {
			return nil, nil, fmt.Errorf("project file %s: check %d: %w", path, i+1, err)
		}
		attrs = append(attrs, attr)
	}

	schema, err := NewSchema(attrs)
	if err != nil {
		return nil, nil, fmt.Errorf("project file %s: %w", path, err)
	}

	return &p, schema, nil
}

// ExampleProject returns a documented starter project definition
func ExampleProject() *Project {
	return &Project{
		Version:          "1.0",
		Model:            "gpt-4o-mini",
		Provider:         "openai",
		ResearchQuestion: "How do respondents experience the support services?",
		WithReasons:      true,
		Checks: []projectCheck{
			{
				ID:         "mentions_funding",
				Question:   "Does the text mention funding or financial support?",
				AnswerType: AnswerBoolean,
				Definition: "Count scholarships, grants and subsidies as financial support.",
			},
			{
				ID:         "overall_tone",
				Question:   "Which tone best describes the text?",
				AnswerType: AnswerCategorical,
				Categories: []string{"formal", "informal", "neutral"},
			},
		},
	}
}
