package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JustusHenke/QlassifAI/internal/model"
)

// shared flags of the analyze and documents commands
var (
	projectPath      string
	llmModel         string
	llmProvider      string
	researchQuestion string
	withReasons      bool
	maxRetries       int
	callTimeout      time.Duration
	requestsPerSec   float64
	noCache          bool
	cacheDir         string
	outputDir        string
	textColumn       string
)

// registerRunFlags wires the shared pipeline flags onto a command
func registerRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&projectPath, "project", "", "project file with check attributes (default: qlassifai.yaml next to the input)")
	cmd.Flags().StringVar(&llmModel, "model", "", "LLM model name (overrides project file)")
	cmd.Flags().StringVar(&llmProvider, "provider", "", "LLM provider: openai or openrouter (overrides project file)")
	cmd.Flags().StringVar(&researchQuestion, "research-question", "", "research question injected as guidance (overrides project file)")
	cmd.Flags().BoolVar(&withReasons, "reasons", false, "request per-attribute justifications")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 0, "max attempts per retryable failure class (default 3)")
	cmd.Flags().DurationVar(&callTimeout, "timeout", 0, "timeout per LLM request (default 60s)")
	cmd.Flags().Float64Var(&requestsPerSec, "rps", 0, "max LLM requests per second (default 2)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable completion response caching")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "persist the completion cache to this directory")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for result workbooks (default: next to the input)")
}

// loadRun resolves the project definition, builds the runtime configuration
// from defaults, project file and flags, and fetches the API key from the
// environment. A missing key or unreadable project file is fatal before the
// pipeline starts.
func loadRun(inputDir string) (*model.Config, *model.Schema, *model.Project, error) {
	path := projectPath
	if path == "" {
		path = filepath.Join(inputDir, model.ProjectFile)
	}

	project, schema, err := model.LoadProject(path)
	if err != nil {
		return nil, nil, nil, err
	}

	cfg := model.DefaultConfig()
	applyGlobalConfig(cfg)

	// Project file overrides defaults and the global config, flags override
	// the project file.
	if project.Model != "" {
		cfg.LLM.Model = project.Model
	}
	if project.Provider != "" {
		cfg.LLM.Provider = project.Provider
	}
	cfg.LLM.ResearchContext = project.ResearchQuestion
	cfg.LLM.WithReasons = project.WithReasons

	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if researchQuestion != "" {
		cfg.LLM.ResearchContext = researchQuestion
	}
	if withReasons {
		cfg.LLM.WithReasons = true
	}
	if maxRetries > 0 {
		cfg.LLM.MaxRetries = maxRetries
	}
	if callTimeout > 0 {
		cfg.LLM.Timeout = callTimeout
	}
	if requestsPerSec > 0 {
		cfg.RateLimit.RequestsPerSecond = requestsPerSec
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if cacheDir != "" {
		cfg.Cache.Dir = cacheDir
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	cfg.Output.Verbose = verbose

	key, err := resolveAPIKey(cfg.LLM.Provider)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg.LLM.APIKey = key

	return cfg, schema, project, nil
}

// applyGlobalConfig layers values from the global config file and matching
// QLASSIFAI_* environment variables over the built-in defaults.
func applyGlobalConfig(cfg *model.Config) {
	if v := viper.GetString("llm.provider"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := viper.GetString("llm.model"); v != "" {
		cfg.LLM.Model = v
	}
	if v := viper.GetDuration("llm.timeout"); v > 0 {
		cfg.LLM.Timeout = v
	}
	if v := viper.GetInt("llm.max_retries"); v > 0 {
		cfg.LLM.MaxRetries = v
	}
	if v := viper.GetFloat64("llm.temperature"); v > 0 {
		cfg.LLM.Temperature = float32(v)
	}
	if v := viper.GetInt("chunker.target_size"); v > 0 {
		cfg.Chunker.TargetSize = v
	}
	if v := viper.GetInt("chunker.search_window"); v > 0 {
		cfg.Chunker.SearchWindow = v
	}
	if v := viper.GetFloat64("rate_limit.requests_per_second"); v > 0 {
		cfg.RateLimit.RequestsPerSecond = v
	}
	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	if v := viper.GetDuration("cache.ttl"); v > 0 {
		cfg.Cache.TTL = v
	}
	if v := viper.GetString("cache.dir"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := viper.GetString("output.dir"); v != "" {
		cfg.Output.Dir = v
	}
}

// resolveAPIKey reads the provider's API key from the environment, loading a
// .env file from the working directory first if one exists.
func resolveAPIKey(provider string) (string, error) {
	_ = godotenv.Load()

	envVar := "OPENAI_API_KEY"
	if strings.EqualFold(provider, "openrouter") {
		envVar = "OPENROUTER_API_KEY"
	}

	key := os.Getenv(envVar)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set (export it or add it to a .env file)", envVar)
	}
	return key, nil
}

// outputPaths derives the analyzed and statistics workbook paths next to the
// input, or inside the configured output directory.
func outputPaths(inputPath, dir string) (analyzed, statistics string) {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	if dir == "" {
		dir = filepath.Dir(inputPath)
	}
	return filepath.Join(dir, stem+"_analyzed.xlsx"), filepath.Join(dir, stem+"_statistics.xlsx")
}
