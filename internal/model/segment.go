package model

// SegmentKind classifies display segments for the rendering layer
type SegmentKind string

const (
	SegmentText       SegmentKind = "text"
	SegmentParagraph  SegmentKind = "paragraph"
	SegmentMarker     SegmentKind = "marker"
	SegmentSource     SegmentKind = "source"
	SegmentImage      SegmentKind = "image"
	SegmentComparison SegmentKind = "comparison"
)

// Segment is one unit of translated output. Original is nil when no
// substitution happened and is encoded as JSON null.
type Segment struct {
	Kind           SegmentKind `json:"kind"`
	Text           string      `json:"text"`
	Original       *string     `json:"original"`
	Type           MarkerKind  `json:"type,omitempty"`
	Key            string      `json:"key,omitempty"`
	Tooltip        string      `json:"tooltip,omitempty"`
	URL            string      `json:"url,omitempty"`
	Title          string      `json:"title,omitempty"`
	Src            string      `json:"src,omitempty"`
	Alt            string      `json:"alt,omitempty"`
	Caption        string      `json:"caption,omitempty"`
	ContentWarning string      `json:"contentWarning,omitempty"`
	Credit         string      `json:"credit,omitempty"`
	CreditURL      string      `json:"creditUrl,omitempty"`
}

// HasOriginal reports whether the segment carries a source-country value
func (s Segment) HasOriginal() bool {
	return s.Original != nil
}

// ResolvedValue is the outcome of resolving one marker
type ResolvedValue struct {
	Kind     MarkerKind
	Text     string
	Original *string
	Tooltip  string

	Source     *Source
	Image      *Image
	Comparison *Comparison
}

// Comparison anchors a scaled count to a comparable event
type Comparison struct {
	Event  ComparableEvent `json:"event"`
	Scaled int64           `json:"scaled"`
	Ratio  float64         `json:"ratio"`
	Band   string          `json:"band"`
	Phrase string          `json:"phrase"`
}

// TranslatedStory is the response to one translation request
type TranslatedStory struct {
	ID      string    `json:"id"`
	Title   []Segment `json:"title"`
	Summary []Segment `json:"summary"`
	Content []Segment `json:"content"`

	Country         string `json:"country"`
	SourceCountry   string `json:"source_country"`
	FallbackCountry bool   `json:"fallback_country,omitempty"`
	Language        string `json:"language"`
	Contextualized  bool   `json:"contextualized"`

	// RevealOffsets holds the starting reveal index of title, summary and content
	RevealOffsets []int `json:"reveal_offsets"`

	Date        string   `json:"date,omitempty"`
	Severity    string   `json:"severity,omitempty"`
	Verified    bool     `json:"verified"`
	Tags        []string `json:"tags,omitempty"`
	Attribution string   `json:"attribution,omitempty"`
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
