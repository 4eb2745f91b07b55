package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ppiankov/ifhere/internal/model"
)

// Output formats
const (
	FormatJSON     = "json"
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

// Renderer writes translated stories in the supported formats
type Renderer struct{}

// NewRenderer creates a renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// ValidFormat reports whether f names a supported output format
func ValidFormat(f string) bool {
	switch f {
	case FormatJSON, FormatMarkdown, FormatHTML:
		return true
	}
	return false
}

// Render writes ts to w in the given format
func (r *Renderer) Render(w io.Writer, ts *model.TranslatedStory, format string) error {
	switch format {
	case FormatJSON:
		return r.RenderJSON(w, ts)
	case FormatMarkdown:
		return r.RenderMarkdown(w, ts)
	case FormatHTML:
		return r.RenderHTML(w, ts)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// WriteFiles renders ts once per format into dir/<country>/<id>.<format>
// and returns the written paths
func (r *Renderer) WriteFiles(dir string, ts *model.TranslatedStory, formats []string) ([]string, error) {
	countryDir := filepath.Join(dir, ts.Country)
	if err := os.MkdirAll(countryDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var paths []string
	for _, format := range formats {
		path := filepath.Join(countryDir, ts.ID+"."+format)
		if err := r.writeFile(path, ts, format); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (r *Renderer) writeFile(path string, ts *model.TranslatedStory, format string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	if err := r.Render(f, ts, format); err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	return nil
}

// RenderJSON writes the story as indented JSON
func (r *Renderer) RenderJSON(w io.Writer, ts *model.TranslatedStory) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ts)
}

// RenderMarkdown writes a reader-facing Markdown version. Originals are
// dropped; comparisons and citations stay inline.
func (r *Renderer) RenderMarkdown(w io.Writer, ts *model.TranslatedStory) error {
	var b strings.Builder

	b.WriteString("# " + markdownText(ts.Title) + "\n\n")
	if summary := markdownText(ts.Summary); summary != "" {
		b.WriteString("_" + summary + "_\n\n")
	}
	if body := markdownText(ts.Content); body != "" {
		b.WriteString(body + "\n\n")
	}

	var sources []model.Segment
	seen := make(map[string]bool)
	for _, section := range [][]model.Segment{ts.Title, ts.Summary, ts.Content} {
		for _, s := range section {
			if s.Kind == model.SegmentSource && !seen[s.Key] {
				seen[s.Key] = true
				sources = append(sources, s)
			}
		}
	}
	if len(sources) > 0 {
		b.WriteString("## Sources\n\n")
		for _, s := range sources {
			fmt.Fprintf(&b, "%s [%s](%s)\n", s.Text, markdownLabel.Replace(s.Title), markdownURL.Replace(s.URL))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "---\n%s · %s", ts.Country, ts.Language)
	if ts.Date != "" {
		b.WriteString(" · " + ts.Date)
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// markdownLabel escapes link text so brackets in titles cannot close it early
var markdownLabel = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`)

// markdownURL percent-encodes the bytes that end a link destination
var markdownURL = strings.NewReplacer(`(`, "%28", `)`, "%29", " ", "%20", `<`, "%3C", `>`, "%3E")

func markdownText(segments []model.Segment) string {
	var b strings.Builder
	for _, s := range segments {
		switch s.Kind {
		case model.SegmentParagraph:
			b.WriteString("\n\n")
		case model.SegmentComparison:
			b.WriteString(" (" + s.Text + ")")
		case model.SegmentImage:
			fmt.Fprintf(&b, "![%s](%s)", markdownLabel.Replace(s.Alt), markdownURL.Replace(s.Src))
		default:
			b.WriteString(s.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

// RenderHTML writes an <article> fragment. Marker spans carry the original
// value and tooltip as attributes for hover reveal.
func (r *Renderer) RenderHTML(w io.Writer, ts *model.TranslatedStory) error {
	article := element(atom.Article,
		attr("data-country", ts.Country),
		attr("data-source-country", ts.SourceCountry),
		attr("lang", ts.Language))

	h1 := element(atom.H1)
	appendSegments(h1, ts.Title, 0)
	article.AppendChild(h1)

	offset := 0
	if len(ts.RevealOffsets) == 3 {
		offset = ts.RevealOffsets[1]
	}
	if len(ts.Summary) > 0 {
		summary := element(atom.P, attr("class", "summary"))
		appendSegments(summary, ts.Summary, offset)
		article.AppendChild(summary)
	}

	if len(ts.RevealOffsets) == 3 {
		offset = ts.RevealOffsets[2]
	}
	para := element(atom.P)
	for i, s := range splitParagraphs(ts.Content) {
		if i > 0 {
			article.AppendChild(para)
			para = element(atom.P)
		}
		offset = appendSegments(para, s, offset)
	}
	if para.FirstChild != nil {
		article.AppendChild(para)
	}

	if err := html.Render(w, article); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// appendSegments adds segment nodes to parent. reveal is the running index
// of segments with an original and is returned advanced.
func appendSegments(parent *html.Node, segments []model.Segment, reveal int) int {
	for _, s := range segments {
		switch s.Kind {
		case model.SegmentText:
			parent.AppendChild(text(s.Text))

		case model.SegmentMarker:
			attrs := []html.Attribute{attr("class", "marker marker-"+string(s.Type)), attr("data-key", s.Key)}
			if s.Original != nil {
				attrs = append(attrs, attr("data-original", *s.Original), attr("data-reveal", fmt.Sprint(reveal)))
				reveal++
			}
			if s.Tooltip != "" {
				attrs = append(attrs, attr("title", s.Tooltip))
			}
			span := element(atom.Span, attrs...)
			span.AppendChild(text(s.Text))
			parent.AppendChild(span)

		case model.SegmentComparison:
			span := element(atom.Span, attr("class", "comparison"))
			span.AppendChild(text(" (" + s.Text + ")"))
			parent.AppendChild(span)

		case model.SegmentSource:
			a := element(atom.A, attr("href", s.URL), attr("title", s.Title))
			a.AppendChild(text(s.Text))
			sup := element(atom.Sup, attr("class", "source"))
			sup.AppendChild(a)
			parent.AppendChild(sup)

		case model.SegmentImage:
			attrs := []html.Attribute{attr("class", "image")}
			if s.ContentWarning != "" {
				attrs = append(attrs, attr("data-content-warning", s.ContentWarning))
			}
			span := element(atom.Span, attrs...)
			span.AppendChild(element(atom.Img, attr("src", s.Src), attr("alt", s.Alt)))
			if s.Caption != "" || s.Credit != "" {
				span.AppendChild(imageCaption(s))
			}
			parent.AppendChild(span)
		}
	}
	return reveal
}

// imageCaption renders the caption and the credit, linked when a credit
// URL is set
func imageCaption(s model.Segment) *html.Node {
	caption := element(atom.Small)
	if s.Caption != "" {
		caption.AppendChild(text(s.Caption))
	}
	if s.Credit == "" {
		return caption
	}
	if s.Caption != "" {
		caption.AppendChild(text(" "))
	}
	credit := text(s.Credit)
	if s.CreditURL != "" {
		a := element(atom.A, attr("class", "credit"), attr("href", s.CreditURL))
		a.AppendChild(credit)
		credit = a
	}
	caption.AppendChild(credit)
	return caption
}

func splitParagraphs(segments []model.Segment) [][]model.Segment {
	var (
		out     [][]model.Segment
		current []model.Segment
	)
	for _, s := range segments {
		if s.Kind == model.SegmentParagraph {
			out = append(out, current)
			current = nil
			continue
		}
		current = append(current, s)
	}
	return append(out, current)
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}
