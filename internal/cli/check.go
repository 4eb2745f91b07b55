package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/ifhere/internal/content"
	"github.com/ppiankov/ifhere/internal/validate"
)

var checkLinks bool

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify every story renders for every country",
	Long: `Check lints every story (marker syntax, undefined keys, language
variants), audits cited sources, and then renders each story for each
country, with and without substitution. Any failure exits non-zero.

With --links every source URL is also requested (HEAD, honoring
robots.txt) and dead links count as failures.

Run it after editing stories or reference data.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkLinks, "links", false, "request every source URL and fail on dead links")
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	problems := 0
	stories := a.stories.List()
	classifier := validate.NewAuthorityClassifier(a.cfg.Sources)
	for _, story := range stories {
		if err := content.Lint(story); err != nil {
			problems++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", story.ID, err)
		}
		issues := validate.Audit(story, classifier)
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "  %s\n", issue)
		}
		if validate.HasErrors(issues) {
			problems++
		}
	}

	if checkLinks {
		fmt.Fprintf(os.Stderr, "🔗 Checking source links...\n")
		for _, r := range validate.NewLinkChecker(a.cfg.Sources).Check(context.Background(), stories) {
			switch {
			case r.Disallowed:
				fmt.Fprintf(os.Stderr, "  - %s/%s: skipped by robots.txt (%s)\n", r.StoryID, r.SourceID, r.URL)
			case r.Dead:
				problems++
				fmt.Fprintf(os.Stderr, "✗ %s/%s: dead link %s %s\n", r.StoryID, r.SourceID, r.URL, r.Error)
			case !r.Accessible:
				fmt.Fprintf(os.Stderr, "  ! %s/%s: %s returned %d %s\n", r.StoryID, r.SourceID, r.URL, r.StatusCode, r.Error)
			case verbose:
				fmt.Fprintf(os.Stderr, "  ✓ %s/%s: %s (%s)\n", r.StoryID, r.SourceID, r.URL, r.Authority)
			}
		}
	}

	ids := a.stories.IDs()
	countries := a.ref.Countries()
	for _, f := range a.pipeline.Check(ids, countries) {
		problems++
		fmt.Fprintf(os.Stderr, "✗ %s/%s: %v\n", f.Country, f.StoryID, f.Err)
	}

	if problems > 0 {
		return fmt.Errorf("check failed: %d problem(s)", problems)
	}
	fmt.Fprintf(os.Stderr, "✓ %d stories render for %d countries\n", len(ids), len(countries))
	return nil
}
