package model

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func writeProjectFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ProjectFile)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write project file: %v", err)
	}
	return path
}

func TestLoadProject_Valid(t *testing.T) {
	path := writeProjectFile(t, `
version: "1.0"
model: gpt-4o-mini
provider: openai
research_question: "How is the support perceived?"
with_reasons: true
checks:
  - id: mentions_funding
    question: "Does the text mention funding?"
    type: boolean
  - question: "Which tone best describes the text?"
    type: categorical
    categories: [formal, informal, neutral]
`)

	project, schema, err := LoadProject(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if project.Model != "gpt-4o-mini" || project.Provider != "openai" {
		t.Errorf("unexpected project settings: %+v", project)
	}
	if !project.WithReasons {
		t.Error("expected with_reasons to be set")
	}
	if schema.Len() != 2 {
		t.Fatalf("expected 2 attributes, got %d", schema.Len())
	}
	if _, ok := schema.ByID("mentions_funding"); !ok {
		t.Error("expected explicit id to be kept")
	}
	// The second check has no id, so one is derived from the question.
	if _, ok := schema.ByID("which_tone_best_describes_the_text"); !ok {
		t.Error("expected derived id for the second check")
	}
}

func TestLoadProject_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"no checks", "model: gpt-4o-mini\nchecks: []\n"},
		{"bad provider", "provider: anthropic\nchecks:\n  - question: Q?\n    type: boolean\n"},
		{"bad check", "checks:\n  - question: Q?\n    type: categorical\n    categories: [only_one]\n"},
		{"not yaml", "{{{{"},
	}

	for _, tc := range cases {
		path := writeProjectFile(t, tc.content)
		if _, _, err := LoadProject(path); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestLoadProject_MissingFile(t *testing.T) {
	if _, _, err := LoadProject(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestExampleProject_RoundTrips(t *testing.T) {
	data, err := yaml.Marshal(ExampleProject())
	if err != nil {
		t.Fatalf("marshal example project: %v", err)
	}

	path := writeProjectFile(t, string(data))
	_, schema, err := LoadProject(path)
	if err != nil {
		t.Fatalf("the example project must load cleanly: %v", err)
	}
	if schema.Len() != 2 {
		t.Errorf("expected 2 example checks, got %d", schema.Len())
	}
}
