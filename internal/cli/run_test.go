package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/JustusHenke/QlassifAI/internal/model"
)

const testProjectYAML = `model: project-model
checks:
  - id: mentions_funding
    question: "Does the text mention funding?"
    type: boolean
`

func writeTestProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, model.ProjectFile), []byte(testProjectYAML), 0644); err != nil {
		t.Fatalf("write project file: %v", err)
	}
	return dir
}

func TestLoadRun_GlobalConfigBetweenDefaultsAndProject(t *testing.T) {
	dir := writeTestProject(t)
	t.Setenv("OPENAI_API_KEY", "test-key")

	viper.Set("llm.model", "global-model")
	viper.Set("llm.timeout", 90*time.Second)
	viper.Set("llm.max_retries", 7)
	viper.Set("rate_limit.requests_per_second", 5.0)
	defer viper.Reset()

	cfg, schema, _, err := loadRun(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if schema.Len() != 1 {
		t.Fatalf("expected 1 check attribute, got %d", schema.Len())
	}
	if cfg.LLM.Model != "project-model" {
		t.Errorf("project file must override the global config, got model %q", cfg.LLM.Model)
	}
	if cfg.LLM.Timeout != 90*time.Second {
		t.Errorf("expected global timeout 90s, got %v", cfg.LLM.Timeout)
	}
	if cfg.LLM.MaxRetries != 7 {
		t.Errorf("expected global max retries 7, got %d", cfg.LLM.MaxRetries)
	}
	if cfg.RateLimit.RequestsPerSecond != 5 {
		t.Errorf("expected global rate limit 5 rps, got %v", cfg.RateLimit.RequestsPerSecond)
	}
}

func TestLoadRun_FlagsOverrideProjectFile(t *testing.T) {
	dir := writeTestProject(t)
	t.Setenv("OPENAI_API_KEY", "test-key")

	llmModel = "flag-model"
	defer func() { llmModel = "" }()

	cfg, _, _, err := loadRun(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LLM.Model != "flag-model" {
		t.Errorf("flag must override the project file, got model %q", cfg.LLM.Model)
	}
}

func TestLoadRun_MissingAPIKeyIsFatal(t *testing.T) {
	dir := writeTestProject(t)
	t.Setenv("OPENAI_API_KEY", "")

	if _, _, _, err := loadRun(dir); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestOutputPaths(t *testing.T) {
	analyzed, statistics := outputPaths(filepath.Join("data", "survey.xlsx"), "")
	if analyzed != filepath.Join("data", "survey_analyzed.xlsx") {
		t.Errorf("unexpected analyzed path %q", analyzed)
	}
	if statistics != filepath.Join("data", "survey_statistics.xlsx") {
		t.Errorf("unexpected statistics path %q", statistics)
	}

	analyzed, _ = outputPaths("survey.xlsx", "out")
	if analyzed != filepath.Join("out", "survey_analyzed.xlsx") {
		t.Errorf("expected output directory to win, got %q", analyzed)
	}
}
