package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JustusHenke/QlassifAI/internal/model"
	"github.com/JustusHenke/QlassifAI/internal/pipeline"
	"github.com/JustusHenke/QlassifAI/internal/report"
	"github.com/JustusHenke/QlassifAI/internal/source"
)

// documentsCmd represents the documents command (document mode)
var documentsCmd = &cobra.Command{
	Use:   "documents <directory>",
	Short: "Analyze long documents from a directory",
	Long: `Documents analyzes every PDF, text and HTML file in a directory. Each
document is split into chunks at sentence boundaries, every chunk runs
through the LLM extraction, and the chunk results are merged into one
record per document. The merged keywords are then clustered into
categories and two workbooks are written next to the directory:

  <name>_analyzed.xlsx    one row per document with all analysis columns
  <name>_statistics.xlsx  category frequencies

The check attributes come from a qlassifai.yaml project file inside the
directory (override with --project).

Example:
  qlassifai documents ./reports
  qlassifai documents ./reports --reasons --output-dir ./results`,
	Args: cobra.ExactArgs(1),
	RunE: runDocuments,
}

func init() {
	rootCmd.AddCommand(documentsCmd)
	registerRunFlags(documentsCmd)
}

func runDocuments(cmd *cobra.Command, args []string) error {
	dir := args[0]

	cfg, schema, _, err := loadRun(dir)
	if err != nil {
		return err
	}

	docs, err := source.DiscoverDocuments(dir)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no analyzable documents in %s (expected .pdf, .txt, .html or .htm files)", dir)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  QlassifAI Document Analysis\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Directory: %s\n", dir)
	fmt.Fprintf(os.Stderr, "  Documents: %d\n", len(docs))
	fmt.Fprintf(os.Stderr, "  Checks:    %d\n", schema.Len())
	fmt.Fprintf(os.Stderr, "  Model:     %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	fmt.Fprintf(os.Stderr, "\n")

	p, err := pipeline.NewPipeline(cfg, schema)
	if err != nil {
		return err
	}

	ctx := context.Background()
	stats := &model.ProcessingStats{TotalUnits: len(docs)}

	results := make([]model.MergedResult, 0, len(docs))
	for i, doc := range docs {
		fmt.Printf("\nDocument %d/%d: %s\n", i+1, len(docs), doc.Name)

		text, err := source.ExtractText(doc)
		if err != nil {
			fmt.Printf("  ✗ %v\n", err)
			stats.AddFailure(fmt.Sprintf("%s: %v", doc.Name, err))
			results = append(results, model.MergedResult{Filename: doc.Name, Err: err.Error()})
			continue
		}

		merged := p.AnalyzeDocument(ctx, doc.Name, text)
		if merged.Errored() {
			stats.AddFailure(fmt.Sprintf("%s: %s", doc.Name, merged.Err))
		} else {
			stats.AddSuccess(merged.Usage)
		}
		results = append(results, merged)
	}

	fmt.Fprintf(os.Stderr, "\n⚙️  Categorizing keywords...\n")
	categories, assignments := p.CategorizeMerged(ctx, results)
	fmt.Fprintf(os.Stderr, "✓ Built %d categories\n", len(categories))

	analyzedPath, statsPath := outputPaths(dir, cfg.Output.Dir)
	if cfg.Output.Dir != "" {
		if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	writer := report.NewWriter(schema, cfg.LLM.WithReasons)
	if err := writer.WriteDocuments(analyzedPath, results, assignments); err != nil {
		return err
	}

	sections := []report.Section{{Name: "Documents", Count: len(results)}}
	if err := report.WriteStatistics(statsPath, sections, assignments, categories); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n✓ Results:    %s\n", analyzedPath)
	fmt.Fprintf(os.Stderr, "✓ Statistics: %s\n", statsPath)
	fmt.Fprintf(os.Stderr, "\n%s\n", stats.Summary())

	return nil
}
