package validate

import (
	"fmt"
	"net/url"

	"github.com/ppiankov/ifhere/internal/model"
)

// Issue is a problem found in a story's citations
type Issue struct {
	StoryID  string
	SourceID string
	Warning  bool // warnings are reported but do not fail a check
	Message  string
}

func (i Issue) String() string {
	level := "error"
	if i.Warning {
		level = "warning"
	}
	if i.SourceID == "" {
		return fmt.Sprintf("%s: %s: %s", level, i.StoryID, i.Message)
	}
	return fmt.Sprintf("%s: %s/%s: %s", level, i.StoryID, i.SourceID, i.Message)
}

// Audit checks a story's sources without touching the network. Links must
// be absolute http(s) URLs and source numbers positive and unique. A
// verified story citing only tertiary sources gets a warning.
func Audit(story *model.Story, classifier *AuthorityClassifier) []Issue {
	var issues []Issue
	numbers := make(map[int]string)
	best := model.TierUnknown

	for _, src := range story.Sources {
		issue := func(format string, args ...any) {
			issues = append(issues, Issue{StoryID: story.ID, SourceID: src.ID, Message: fmt.Sprintf(format, args...)})
		}

		if src.Number < 1 {
			issue("number must be positive, got %d", src.Number)
		} else if other, dup := numbers[src.Number]; dup {
			issue("number %d already used by %s", src.Number, other)
		} else {
			numbers[src.Number] = src.ID
		}

		u, err := url.Parse(src.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			issue("url %q is not an absolute http(s) link", src.URL)
			continue
		}

		tier := classifier.Classify(src.URL)
		if best == model.TierUnknown || tier < best {
			best = tier
		}
	}

	if story.Verified && (best == model.TierUnknown || best == model.TierTertiary) {
		issues = append(issues, Issue{
			StoryID: story.ID,
			Warning: true,
			Message: "verified story cites no primary or secondary source",
		})
	}

	return issues
}

// HasErrors reports whether any issue is not a warning
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if !i.Warning {
			return true
		}
	}
	return false
}
