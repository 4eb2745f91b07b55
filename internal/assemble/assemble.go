// Package assemble turns a token stream and its resolved values into the
// ordered display segments consumed by renderers.
package assemble

import (
	"strings"

	"github.com/ppiankov/ifhere/internal/markup"
	"github.com/ppiankov/ifhere/internal/model"
)

// ResolveFunc resolves one marker token
type ResolveFunc func(markup.Token) (model.ResolvedValue, error)

// Options controls segment assembly
type Options struct {
	// InlineComparisons emits a comparison segment after each compared number
	InlineComparisons bool
}

// Assemble walks tokens in order. The first resolution error aborts
// assembly and no segments are returned.
func Assemble(tokens []markup.Token, resolve ResolveFunc, opts Options) ([]model.Segment, error) {
	segments := make([]model.Segment, 0, len(tokens))

	for _, tok := range tokens {
		switch tok.Kind {
		case markup.TokenText:
			segments = append(segments, model.Segment{Kind: model.SegmentText, Text: tok.Text})

		case markup.TokenParagraph:
			segments = append(segments, model.Segment{Kind: model.SegmentParagraph})

		case markup.TokenMarker:
			v, err := resolve(tok)
			if err != nil {
				return nil, err
			}
			segments = append(segments, fromValue(tok.Key, v))
			if opts.InlineComparisons && v.Comparison != nil {
				segments = append(segments, model.Segment{
					Kind: model.SegmentComparison,
					Text: v.Comparison.Phrase,
					Type: v.Kind,
					Key:  tok.Key,
				})
			}
		}
	}

	return segments, nil
}

// fromValue maps a resolved value to its segment
func fromValue(key string, v model.ResolvedValue) model.Segment {
	switch {
	case v.Source != nil:
		return model.Segment{
			Kind:  model.SegmentSource,
			Text:  v.Text,
			Type:  model.KindSource,
			Key:   v.Source.ID,
			URL:   v.Source.URL,
			Title: v.Source.Title,
		}
	case v.Image != nil:
		return model.Segment{
			Kind:           model.SegmentImage,
			Type:           model.KindImage,
			Key:            v.Image.ID,
			Src:            v.Image.Src,
			Alt:            v.Image.Alt,
			Caption:        v.Image.Caption,
			ContentWarning: v.Image.ContentWarning,
			Credit:         v.Image.Credit,
			CreditURL:      v.Image.CreditURL,
		}
	}

	return model.Segment{
		Kind:     model.SegmentMarker,
		Text:     v.Text,
		Original: v.Original,
		Type:     v.Kind,
		Key:      key,
		Tooltip:  v.Tooltip,
	}
}

// CountOriginals returns how many of the first n segments carry an original
// value. n beyond the slice length counts every segment.
func CountOriginals(segments []model.Segment, n int) int {
	if n > len(segments) {
		n = len(segments)
	}
	count := 0
	for _, s := range segments[:max(n, 0)] {
		if s.HasOriginal() {
			count++
		}
	}
	return count
}

// RevealOffsets returns the reveal index each section starts at, so a
// reveal sequence can run across title, summary and content as one list.
func RevealOffsets(sections ...[]model.Segment) []int {
	offsets := make([]int, len(sections))
	total := 0
	for i, s := range sections {
		offsets[i] = total
		total += CountOriginals(s, len(s))
	}
	return offsets
}

// PlainText concatenates the text of every non-paragraph segment, which
// reproduces the localized document without its paragraph breaks.
func PlainText(segments []model.Segment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Kind == model.SegmentParagraph {
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}
