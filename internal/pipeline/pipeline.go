package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/JustusHenke/QlassifAI/internal/cache"
	"github.com/JustusHenke/QlassifAI/internal/categorize"
	"github.com/JustusHenke/QlassifAI/internal/chunker"
	"github.com/JustusHenke/QlassifAI/internal/extract"
	"github.com/JustusHenke/QlassifAI/internal/llm"
	"github.com/JustusHenke/QlassifAI/internal/merge"
	"github.com/JustusHenke/QlassifAI/internal/model"
	"github.com/JustusHenke/QlassifAI/internal/source"
)

// Pipeline orchestrates the complete analysis: extraction per unit of text,
// merging per document, categorization per result set. Processing is
// strictly sequential; the remote service's rate limits are the bottleneck
// and seriality keeps token accounting and error attribution simple.
type Pipeline struct {
	chunker     *chunker.Chunker
	extractor   *extract.Extractor
	merger      *merge.Merger
	categorizer *categorize.Categorizer
	config      *model.Config
	out         io.Writer
}

// NewPipeline wires the pipeline from configuration. The completion client
// is decorated with a response cache (outermost, so cache hits skip the
// limiter) and a rate limiter.
func NewPipeline(cfg *model.Config, schema *model.Schema) (*Pipeline, error) {
	completer, err := llm.NewCompleter(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}

	if cfg.RateLimit.RequestsPerSecond > 0 {
		completer = llm.NewThrottledCompleter(completer, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}
	if cfg.Cache.Enabled {
		var store cache.Cache
		if cfg.Cache.Dir != "" {
			store = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		} else {
			store = cache.NewMemoryCache(cfg.Cache.TTL, 10*time.Minute)
		}
		completer = llm.NewCachedCompleter(completer, store, cfg.Cache.TTL, cfg.LLM.Model)
	}

	var logf func(string, ...interface{})
	if cfg.Output.Verbose {
		logf = func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}

	return &Pipeline{
		chunker: chunker.New(cfg.Chunker.TargetSize, cfg.Chunker.SearchWindow),
		extractor: extract.New(completer, schema, extract.Options{
			MaxRetries:       cfg.LLM.MaxRetries,
			Temperature:      cfg.LLM.Temperature,
			MaxTokens:        cfg.LLM.ExtractTokens,
			ResearchQuestion: cfg.LLM.ResearchContext,
			WithReasons:      cfg.LLM.WithReasons,
			Logf:             logf,
		}),
		merger: merge.New(schema),
		categorizer: categorize.New(completer, categorize.Options{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.ClusterTokens,
			Logf:        logf,
		}),
		config: cfg,
		out:    os.Stdout,
	}, nil
}

// SetOutput redirects progress output (used by tests)
func (p *Pipeline) SetOutput(w io.Writer) {
	p.out = w
}

// AnalyzeSurvey extracts every text cell of every sheet, one row at a time.
// The returned results align 1:1 with the survey's rows in sheet order; row
// failures are captured per result and never abort the batch.
func (p *Pipeline) AnalyzeSurvey(ctx context.Context, survey *source.Survey) ([]model.ExtractionResult, *model.ProcessingStats) {
	stats := &model.ProcessingStats{}
	var results []model.ExtractionResult

	for _, sheet := range survey.Sheets {
		fmt.Fprintf(p.out, "\nProcessing sheet: %s (%d rows)\n", sheet.Name, len(sheet.Rows))
		stats.TotalUnits += len(sheet.Rows)

		for i, row := range sheet.Rows {
			fmt.Fprintf(p.out, "  Row %d/%d: ", i+1, len(sheet.Rows))

			result := p.extractor.Extract(ctx, row.Text)
			if result.Errored() {
				fmt.Fprintf(p.out, "✗ %s\n", result.Err)
				stats.AddFailure(fmt.Sprintf("%s row %d: %s", sheet.Name, row.Index, result.Err))
			} else {
				fmt.Fprintln(p.out, "✓")
				stats.AddSuccess(result.Usage)
			}

			results = append(results, result)
		}
	}

	return results, stats
}

// AnalyzeDocument chunks one document's text, extracts each chunk and merges
// the successful chunk results. Failed chunks are dropped before merging;
// if every chunk fails the merged record carries the error.
func (p *Pipeline) AnalyzeDocument(ctx context.Context, filename, text string) model.MergedResult {
	chunks := p.chunker.Split(text)
	fmt.Fprintf(p.out, "  [1/3] Split into %d chunk(s)\n", len(chunks))

	fmt.Fprintf(p.out, "  [2/3] Analyzing chunks...\n")
	var succeeded []model.ExtractionResult
	var failures int
	for _, c := range chunks {
		fmt.Fprintf(p.out, "    → Chunk %d/%d (%d chars): ", c.ID+1, len(chunks), c.CharCount)

		result := p.extractor.Extract(ctx, c.Text)
		if result.Errored() {
			fmt.Fprintf(p.out, "✗ %s\n", result.Err)
			failures++
			continue
		}
		fmt.Fprintln(p.out, "✓")
		succeeded = append(succeeded, result)
	}

	fmt.Fprintf(p.out, "  [3/3] Merging results...\n")
	merged := p.merger.Merge(filename, succeeded)
	if merged.Err == "" && failures > 0 {
		fmt.Fprintf(p.out, "  Note: %d of %d chunks failed and were excluded\n", failures, len(chunks))
	}
	return merged
}

// CategorizeExtractions runs the keyword categorization pass over row results
func (p *Pipeline) CategorizeExtractions(ctx context.Context, results []model.ExtractionResult) (model.CategoryMap, [][]string) {
	records := make([]categorize.Record, len(results))
	for i := range results {
		records[i] = results[i]
	}
	return p.categorizer.Categorize(ctx, records)
}

// CategorizeMerged runs the keyword categorization pass over document results
func (p *Pipeline) CategorizeMerged(ctx context.Context, results []model.MergedResult) (model.CategoryMap, [][]string) {
	records := make([]categorize.Record, len(results))
	for i := range results {
		records[i] = results[i]
	}
	categories, assignments := p.categorizer.Categorize(ctx, records)

	// Merged records carry their categories inline as well; this is the one
	// mutation after construction.
	for i := range results {
		results[i].Categories = assignments[i]
	}

	return categories, assignments
}
