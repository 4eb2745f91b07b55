// Package pipeline runs translation requests end to end: load the story,
// parse each text section, resolve markers and assemble segments.
package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/ifhere/internal/assemble"
	"github.com/ppiankov/ifhere/internal/cache"
	"github.com/ppiankov/ifhere/internal/compare"
	"github.com/ppiankov/ifhere/internal/locale"
	"github.com/ppiankov/ifhere/internal/markup"
	"github.com/ppiankov/ifhere/internal/model"
	"github.com/ppiankov/ifhere/internal/refdata"
	"github.com/ppiankov/ifhere/internal/resolve"
)

// StoryStore looks up stories by id
type StoryStore interface {
	Get(id string) (*model.Story, error)
}

// Request is one story rendered for one country and language
type Request struct {
	StoryID           string
	Country           string
	Language          string
	Contextualize     bool
	InlineComparisons bool
}

// Pipeline translates stories. It holds only read-only collaborators and
// an optional thread-safe cache, so one Pipeline serves concurrent requests.
type Pipeline struct {
	stories    StoryStore
	ref        refdata.Provider
	comparator *compare.Comparator
	cache      cache.Cache
	logger     *slog.Logger
}

// NewPipeline creates a pipeline without a cache
func NewPipeline(stories StoryStore, ref refdata.Provider) *Pipeline {
	return &Pipeline{
		stories:    stories,
		ref:        ref,
		comparator: compare.NewComparator(),
		logger:     slog.Default(),
	}
}

// WithCache memoizes translated stories in c. A nil cache disables caching.
func (p *Pipeline) WithCache(c cache.Cache) *Pipeline {
	p.cache = c
	return p
}

// WithLogger sets the logger
func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	p.logger = logger
	return p
}

// Translate renders the requested story. Any marker failure aborts the
// whole request; no partial story is returned.
func (p *Pipeline) Translate(req Request) (*model.TranslatedStory, error) {
	story, err := p.stories.Get(req.StoryID)
	if err != nil {
		return nil, err
	}
	lang := locale.Match(req.Language)

	key := cache.Key{
		StoryID:       story.ID,
		Country:       strings.ToLower(strings.TrimSpace(req.Country)),
		Language:      lang,
		Contextualize: req.Contextualize,
		Inline:        req.InlineComparisons,
	}
	if p.cache != nil {
		if cached, ok := p.cache.Get(key); ok {
			return cached, nil
		}
	}

	src := p.ref.Context(story.SourceCountry())
	dst := p.ref.Context(req.Country)
	if dst.FellBack {
		p.logger.Debug("translating into default country", "story", story.ID, "requested", req.Country, "country", dst.Code())
	}

	r := resolve.New(resolve.Config{
		Story:         story,
		Source:        src,
		Destination:   dst,
		Currencies:    p.ref,
		Formatter:     locale.NewFormatter(lang),
		Comparator:    p.comparator,
		Contextualize: req.Contextualize,
	})
	opts := assemble.Options{InlineComparisons: req.InlineComparisons}

	text := story.Text(lang)
	sections := []struct {
		name string
		text string
	}{
		{"title", text.Title},
		{"summary", text.Summary},
		{"content", text.Content},
	}
	segments := make([][]model.Segment, len(sections))
	for i, s := range sections {
		segs, err := translateSection(s.text, story, r, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, model.WithStory(err, story.ID))
		}
		segments[i] = segs
	}

	out := &model.TranslatedStory{
		ID:              story.ID,
		Title:           segments[0],
		Summary:         segments[1],
		Content:         segments[2],
		Country:         dst.Code(),
		SourceCountry:   src.Code(),
		FallbackCountry: dst.FellBack,
		Language:        lang,
		Contextualized:  r.Contextualized(),
		RevealOffsets:   assemble.RevealOffsets(segments...),
		Date:            story.Date,
		Severity:        story.Severity,
		Verified:        story.Verified,
		Tags:            story.Tags,
		Attribution:     story.Attribution,
	}

	if p.cache != nil {
		if err := p.cache.Put(key, out); err != nil {
			p.logger.Warn("cache write failed", "key", key.String(), "error", err)
		}
	}
	return out, nil
}

func translateSection(text string, story *model.Story, r *resolve.Resolver, opts assemble.Options) ([]model.Segment, error) {
	tokens, err := markup.Parse(text)
	if err != nil {
		return nil, err
	}
	if err := markup.CheckKeys(tokens, story.Markers); err != nil {
		return nil, err
	}
	return assemble.Assemble(tokens, r.Resolve, opts)
}

// CheckFailure is one story and country pair that failed to translate
type CheckFailure struct {
	StoryID string
	Country string
	Err     error
}

// Check translates every story into every country, both contextualized
// and not, and returns the pairs that fail
func (p *Pipeline) Check(storyIDs, countries []string) []CheckFailure {
	var failures []CheckFailure
	for _, id := range storyIDs {
		for _, country := range countries {
			for _, contextualize := range []bool{true, false} {
				_, err := p.Translate(Request{StoryID: id, Country: country, Contextualize: contextualize})
				if err != nil {
					failures = append(failures, CheckFailure{StoryID: id, Country: country, Err: err})
					break
				}
			}
		}
	}
	return failures
}
