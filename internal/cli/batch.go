package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ppiankov/ifhere/internal/model"
	"github.com/ppiankov/ifhere/internal/pipeline"
	"github.com/ppiankov/ifhere/internal/worker"
)

var (
	batchStoriesFile   string
	batchCountriesFile string
	batchCountries     []string
	batchOutputDir     string
	batchFormats       []string
	batchConcurrency   int
	batchTimeout       time.Duration
	batchLang          string
	batchInline        bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Render every story for every country in parallel",
	Long: `Batch renders stories for many countries concurrently:
- Stories and countries default to everything available
- Lists can be narrowed with files (one id per line) or flags
- Each pair is written to <output-dir>/<country>/<story>.<format>
- A failed pair is reported and the batch continues
- A manifest.json with a run id summarizes the run

Example:
  ifhere batch
  ifhere batch --countries jp,gb --formats json,html
  ifhere batch --stories-file stories.txt --concurrency 8 --output-dir ./out`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchStoriesFile, "stories-file", "", "file with story ids, one per line (default: all stories)")
	batchCmd.Flags().StringVar(&batchCountriesFile, "countries-file", "", "file with country codes, one per line")
	batchCmd.Flags().StringSliceVar(&batchCountries, "countries", nil, "country codes (default: all countries)")
	batchCmd.Flags().StringVar(&batchOutputDir, "output-dir", "", "output directory (default: output.dir)")
	batchCmd.Flags().StringSliceVar(&batchFormats, "formats", nil, "output formats: json, md, html (default: output.formats)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVar(&batchLang, "lang", "", "display language (default: translate.default_language)")
	batchCmd.Flags().BoolVar(&batchInline, "inline", false, "emit comparisons inline")
}

func runBatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	cfg := a.cfg

	storyIDs := a.stories.IDs()
	if batchStoriesFile != "" {
		if storyIDs, err = worker.ReadListFile(batchStoriesFile); err != nil {
			return fmt.Errorf("read stories file: %w", err)
		}
	}
	countries := a.ref.Countries()
	switch {
	case batchCountriesFile != "":
		if countries, err = worker.ReadListFile(batchCountriesFile); err != nil {
			return fmt.Errorf("read countries file: %w", err)
		}
	case len(batchCountries) > 0:
		countries = batchCountries
	}

	outputDir := firstNonEmpty(batchOutputDir, cfg.Output.Dir)
	formats := cfg.Output.Formats
	if len(batchFormats) > 0 {
		formats = batchFormats
	}
	for _, f := range formats {
		if !pipeline.ValidFormat(f) {
			return fmt.Errorf("unknown format %q (want json, md or html)", f)
		}
	}
	workers := cfg.Concurrency.Workers
	if batchConcurrency > 0 {
		workers = batchConcurrency
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	total := len(storyIDs) * len(countries)
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  ifhere Batch Rendering\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Stories:      %d\n", len(storyIDs))
	fmt.Fprintf(os.Stderr, "  Countries:    %d\n", len(countries))
	fmt.Fprintf(os.Stderr, "  Jobs:         %s\n", humanize.Comma(int64(total)))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Formats:      %v\n", formats)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	renderer := pipeline.NewRenderer()
	processor := worker.NewBatchProcessor(a.pipeline, workers, cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize).
		WithSink(func(ts *model.TranslatedStory) ([]string, error) {
			return renderer.WriteFiles(outputDir, ts, formats)
		})

	finished := 0
	processor.WithProgress(func(r *worker.TranslateResult) {
		finished++
		a.logger.Debug("batch job finished",
			"story", r.StoryID, "country", r.Country,
			"done", finished, "total", total,
			"duration", r.Duration, "error", r.Error)
	})

	tmpl := pipeline.Request{
		Language:          firstNonEmpty(batchLang, cfg.Translate.DefaultLanguage),
		Contextualize:     cfg.Translate.Contextualize,
		InlineComparisons: cfg.Translate.InlineComparisons || batchInline,
	}

	fmt.Fprintf(os.Stderr, "⚙️  Rendering with %d workers...\n\n", workers)
	started := time.Now()
	results := processor.Process(ctx, worker.Requests(storyIDs, countries, tmpl))

	var written uint64
	for _, result := range results {
		if result.Error != nil {
			fmt.Fprintf(os.Stderr, "✗ %s/%s: %v\n", result.Country, result.StoryID, result.Error)
			continue
		}
		for _, f := range result.Files {
			if info, err := os.Stat(f); err == nil {
				written += uint64(info.Size())
			}
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ %s/%s\n", result.Country, result.StoryID)
		}
	}

	manifest := worker.NewManifest(results, started)
	manifestPath := filepath.Join(outputDir, "manifest.json")
	if err := manifest.Write(manifestPath); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Run:       %s\n", manifest.RunID)
	fmt.Fprintf(os.Stderr, "  Total:     %s jobs\n", humanize.Comma(int64(len(results))))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", manifest.Succeeded)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", manifest.Failed)
	fmt.Fprintf(os.Stderr, "  Written:   %s\n", humanize.Bytes(written))
	fmt.Fprintf(os.Stderr, "  Elapsed:   %s\n", time.Since(started).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "  Manifest:  %s\n", manifestPath)
	fmt.Fprintf(os.Stderr, "\n")

	if len(results) < total {
		return fmt.Errorf("batch stopped early: %d of %d jobs ran: %w", len(results), total, ctx.Err())
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
