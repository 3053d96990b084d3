package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JustusHenke/QlassifAI/internal/pipeline"
	"github.com/JustusHenke/QlassifAI/internal/report"
	"github.com/JustusHenke/QlassifAI/internal/source"
)

// analyzeCmd represents the analyze command (survey mode)
var analyzeCmd = &cobra.Command{
	Use:   "analyze <workbook.xlsx>",
	Short: "Analyze free-text survey responses from an Excel workbook",
	Long: `Analyze reads every compatible sheet of an Excel workbook, runs each
text cell through the LLM extraction (paraphrase, sentiment, keywords and
the project's check attributes), clusters the collected keywords into
categories and writes two workbooks next to the input:

  <name>_analyzed.xlsx    one row per response with all analysis columns
  <name>_statistics.xlsx  category frequencies per sheet and combined

A sheet is compatible when one of its first rows contains a column named
text, answer, response, antwort or textantwort (override with --text-column).
Hidden rows are skipped. The check attributes come from a qlassifai.yaml
project file next to the workbook (override with --project).

Example:
  qlassifai analyze survey.xlsx
  qlassifai analyze survey.xlsx --text-column "Open feedback" --reasons
  qlassifai analyze survey.xlsx --provider openrouter --model meta-llama/llama-3.1-70b-instruct`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	registerRunFlags(analyzeCmd)
	analyzeCmd.Flags().StringVar(&textColumn, "text-column", "", "header of the column holding the responses")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	input := args[0]

	cfg, schema, project, err := loadRun(filepath.Dir(input))
	if err != nil {
		return err
	}

	column := project.TextColumn
	if textColumn != "" {
		column = textColumn
	}

	survey, err := source.LoadSurvey(input, column)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  QlassifAI Survey Analysis\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input:     %s\n", input)
	fmt.Fprintf(os.Stderr, "  Sheets:    %d (%d rows)\n", len(survey.Sheets), survey.TotalRows())
	fmt.Fprintf(os.Stderr, "  Checks:    %d\n", schema.Len())
	fmt.Fprintf(os.Stderr, "  Model:     %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "\n")

	p, err := pipeline.NewPipeline(cfg, schema)
	if err != nil {
		return err
	}

	ctx := context.Background()

	results, stats := p.AnalyzeSurvey(ctx, survey)

	fmt.Fprintf(os.Stderr, "\n⚙️  Categorizing keywords...\n")
	categories, assignments := p.CategorizeExtractions(ctx, results)
	fmt.Fprintf(os.Stderr, "✓ Built %d categories\n", len(categories))

	analyzedPath, statsPath := outputPaths(input, cfg.Output.Dir)
	if cfg.Output.Dir != "" {
		if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	writer := report.NewWriter(schema, cfg.LLM.WithReasons)
	if err := writer.WriteSurvey(analyzedPath, survey, results, assignments); err != nil {
		return err
	}

	sections := make([]report.Section, len(survey.Sheets))
	for i, sheet := range survey.Sheets {
		sections[i] = report.Section{Name: sheet.Name, Count: len(sheet.Rows)}
	}
	if err := report.WriteStatistics(statsPath, sections, assignments, categories); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n✓ Results:    %s\n", analyzedPath)
	fmt.Fprintf(os.Stderr, "✓ Statistics: %s\n", statsPath)
	fmt.Fprintf(os.Stderr, "\n%s\n", stats.Summary())

	return nil
}
