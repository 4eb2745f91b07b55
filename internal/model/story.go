package model

import (
	"fmt"
	"time"
)

// Story is a narrative document with markers in its text fields
type Story struct {
	ID          string                      `yaml:"id" json:"id"`
	Title       string                      `yaml:"title" json:"title"`
	Summary     string                      `yaml:"summary" json:"summary"`
	Content     string                      `yaml:"content" json:"content"`
	Country     string                      `yaml:"country,omitempty" json:"country,omitempty"` // source country code
	Date        string                      `yaml:"date,omitempty" json:"date,omitempty"`
	Severity    string                      `yaml:"severity,omitempty" json:"severity,omitempty"`
	Verified    bool                        `yaml:"verified,omitempty" json:"verified,omitempty"`
	Tags        []string                    `yaml:"tags,omitempty" json:"tags,omitempty"`
	Attribution string                      `yaml:"attribution,omitempty" json:"attribution,omitempty"`
	Markers     map[string]MarkerDefinition `yaml:"markers" json:"markers"`
	Sources     []Source                    `yaml:"sources,omitempty" json:"sources,omitempty"`
	Images      []Image                     `yaml:"images,omitempty" json:"images,omitempty"`

	// Translations holds language variants of the text fields
	Translations map[string]TextVariant `yaml:"translations,omitempty" json:"translations,omitempty"`
}

// TextVariant is the title, summary and content of a story in one language
type TextVariant struct {
	Title   string `yaml:"title" json:"title"`
	Summary string `yaml:"summary" json:"summary"`
	Content string `yaml:"content" json:"content"`
}

// Source is a citation referenced with {{source:id}}
type Source struct {
	ID     string `yaml:"id" json:"id"`
	Number int    `yaml:"number" json:"number"`
	Title  string `yaml:"title" json:"title"`
	URL    string `yaml:"url" json:"url"`
}

// Image is an illustration referenced with {{image:id}}
type Image struct {
	ID             string `yaml:"id" json:"id"`
	Src            string `yaml:"src" json:"src"`
	Alt            string `yaml:"alt" json:"alt"`
	Caption        string `yaml:"caption,omitempty" json:"caption,omitempty"`
	ContentWarning string `yaml:"content_warning,omitempty" json:"content_warning,omitempty"`
	Credit         string `yaml:"credit,omitempty" json:"credit,omitempty"`
	CreditURL      string `yaml:"credit_url,omitempty" json:"credit_url,omitempty"`
}

// Text returns the text fields for lang, falling back to the base text
// field by field
func (s *Story) Text(lang string) TextVariant {
	base := TextVariant{Title: s.Title, Summary: s.Summary, Content: s.Content}
	v, ok := s.Translations[lang]
	if !ok {
		return base
	}
	if v.Title == "" {
		v.Title = base.Title
	}
	if v.Summary == "" {
		v.Summary = base.Summary
	}
	if v.Content == "" {
		v.Content = base.Content
	}
	return v
}

// FindSource returns the source with the given id
func (s *Story) FindSource(id string) (Source, bool) {
	for _, src := range s.Sources {
		if src.ID == id {
			return src, true
		}
	}
	return Source{}, false
}

// FindImage returns the image with the given id
func (s *Story) FindImage(id string) (Image, bool) {
	for _, img := range s.Images {
		if img.ID == id {
			return img, true
		}
	}
	return Image{}, false
}

// Validate checks the marker table and metadata. It does not parse text.
func (s *Story) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("story: missing id")
	}
	if !ValidKey(s.ID) {
		return fmt.Errorf("story %s: id must match [a-z0-9-]+", s.ID)
	}
	if s.Date != "" {
		if _, err := time.Parse("2006-01-02", s.Date); err != nil {
			return fmt.Errorf("story %s: date: %w", s.ID, err)
		}
	}
	for key, def := range s.Markers {
		if !ValidKey(key) {
			return fmt.Errorf("story %s: marker key %q must match [a-z0-9-]+", s.ID, key)
		}
		if IsReservedKey(key) {
			return fmt.Errorf("story %s: marker key %q is reserved", s.ID, key)
		}
		if err := def.Validate(); err != nil {
			return fmt.Errorf("story %s: marker %s: %w", s.ID, key, err)
		}
	}
	for key, def := range s.Markers {
		if def.Place == nil || def.Place.Within == "" {
			continue
		}
		ref, ok := s.Markers[def.Place.Within]
		if !ok || ref.Place == nil || ref.Place.Category != PlaceCity {
			return &MarkerError{Kind: ErrUnresolvedReference, StoryID: s.ID, Key: key,
				Snippet: "within: " + def.Place.Within}
		}
		if ref.Place.Within != "" {
			return &MarkerError{Kind: ErrUnresolvedReference, StoryID: s.ID, Key: key,
				Snippet: "within: " + def.Place.Within + " is itself scoped"}
		}
	}
	seen := make(map[string]bool)
	for _, src := range s.Sources {
		if seen["s:"+src.ID] {
			return fmt.Errorf("story %s: duplicate source id %q", s.ID, src.ID)
		}
		seen["s:"+src.ID] = true
	}
	for _, img := range s.Images {
		if seen["i:"+img.ID] {
			return fmt.Errorf("story %s: duplicate image id %q", s.ID, img.ID)
		}
		seen["i:"+img.ID] = true
	}
	return nil
}

// SourceCountry returns the story's source country, defaulting to us
func (s *Story) SourceCountry() string {
	if s.Country == "" {
		return "us"
	}
	return s.Country
}
