package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ifhere/internal/pipeline"
)

var (
	trCountry   string
	trLang      string
	trNoContext bool
	trInline    bool
	trFormat    string
	trOut       string
)

// translateCmd represents the translate command
var translateCmd = &cobra.Command{
	Use:   "translate <story-id>",
	Short: "Render one story for a destination country",
	Long: `Translate renders a story with every marker resolved for a country.

Example:
  ifhere translate factory-collapse --country jp
  ifhere translate heat-wave -c de --lang de --format html --out heat-wave.html
  ifhere translate school-shooting -c gb --no-context --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&trCountry, "country", "c", "", "destination country code (default: reference default)")
	translateCmd.Flags().StringVar(&trLang, "lang", "", "display language (default: translate.default_language)")
	translateCmd.Flags().BoolVar(&trNoContext, "no-context", false, "render original values without substitution")
	translateCmd.Flags().BoolVar(&trInline, "inline", false, "emit comparisons inline instead of in tooltips")
	translateCmd.Flags().StringVarP(&trFormat, "format", "f", pipeline.FormatMarkdown, "output format: json, md, html")
	translateCmd.Flags().StringVarP(&trOut, "out", "o", "", "output file (default: stdout)")
}

func runTranslate(cmd *cobra.Command, args []string) (err error) {
	if !pipeline.ValidFormat(trFormat) {
		return fmt.Errorf("unknown format %q (want json, md or html)", trFormat)
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	req := pipeline.Request{
		StoryID:           args[0],
		Country:           trCountry,
		Language:          trLang,
		Contextualize:     a.cfg.Translate.Contextualize && !trNoContext,
		InlineComparisons: a.cfg.Translate.InlineComparisons || trInline,
	}
	if req.Country == "" {
		req.Country = a.ref.DefaultCountry()
	}
	if req.Language == "" {
		req.Language = a.cfg.Translate.DefaultLanguage
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Translating: %s → %s (%s)\n", req.StoryID, req.Country, req.Language)
	}

	ts, err := a.pipeline.Translate(req)
	if err != nil {
		return fmt.Errorf("translate failed: %w", err)
	}
	if ts.FallbackCountry {
		fmt.Fprintf(os.Stderr, "⚠️  Unknown country %q, rendered for %s\n", trCountry, ts.Country)
	}

	var w io.Writer = os.Stdout
	if trOut != "" {
		f, err := os.Create(trOut)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output: %w", closeErr)
			}
		}()
		w = f
	}

	if err := pipeline.NewRenderer().Render(w, ts, trFormat); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if trOut != "" && verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", trOut)
	}
	return nil
}
