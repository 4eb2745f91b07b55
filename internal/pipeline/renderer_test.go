package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/ppiankov/ifhere/internal/model"
)

func renderedStory(t *testing.T) *model.TranslatedStory {
	t.Helper()
	return translate(t, newTestPipeline(t), Request{StoryID: "fire", Country: "bb", Contextualize: true, InlineComparisons: true})
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer().RenderJSON(&buf, renderedStory(t)))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "fire", decoded["id"])

	// text segments keep an explicit null original
	title := decoded["title"].([]any)
	first := title[0].(map[string]any)
	v, present := first["original"]
	assert.True(t, present)
	assert.Nil(t, v)
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer().RenderMarkdown(&buf, renderedStory(t)))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Fire in Bton kills 200 people (two-thirds of the Bton fire)\n"))
	assert.Contains(t, out, "## Sources")
	assert.Contains(t, out, "[1] [Report](https://example.com)")
	assert.Contains(t, out, "bb · en · 2020-01-01")
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer().RenderHTML(&buf, renderedStory(t)))

	doc, err := html.Parse(&buf)
	require.NoError(t, err)

	var (
		spans      []*html.Node
		paragraphs int
		links      int
	)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "span":
				spans = append(spans, n)
			case "p":
				paragraphs++
			case "a":
				links++
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	assert.Equal(t, 3, paragraphs, "summary plus two content paragraphs")
	assert.Equal(t, 1, links)

	reveals := map[string]bool{}
	for _, s := range spans {
		for _, a := range s.Attr {
			if a.Key == "data-reveal" {
				reveals[a.Val] = true
			}
		}
	}
	assert.Len(t, reveals, 8, "every substituted marker gets a unique reveal index")
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	paths, err := NewRenderer().WriteFiles(dir, renderedStory(t), []string{FormatJSON, FormatMarkdown, FormatHTML})
	require.NoError(t, err)
	require.Len(t, paths, 3)

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
		assert.Equal(t, filepath.Join(dir, "bb"), filepath.Dir(p))
	}

	_, err = NewRenderer().WriteFiles(dir, renderedStory(t), []string{"pdf"})
	assert.Error(t, err)
}

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat("md"))
	assert.False(t, ValidFormat("pdf"))
}

func TestRenderMarkdown_EscapesSourceLinks(t *testing.T) {
	ts := &model.TranslatedStory{
		ID:       "links",
		Title:    []model.Segment{{Kind: model.SegmentText, Text: "Links"}},
		Country:  "bb",
		Language: "en",
		Content: []model.Segment{
			{Kind: model.SegmentText, Text: "See "},
			{Kind: model.SegmentSource, Text: "[1]", Key: "s1", Title: "Report [final]", URL: "https://example.com/a_(b) c"},
			{Kind: model.SegmentImage, Key: "i1", Alt: "scene [2]", Src: "/img/(1).jpg"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewRenderer().RenderMarkdown(&buf, ts))
	out := buf.String()

	assert.Contains(t, out, `[1] [Report \[final\]](https://example.com/a_%28b%29%20c)`)
	assert.Contains(t, out, `![scene \[2\]](/img/%281%29.jpg)`)
}

func TestRenderHTML_ImageCreditLink(t *testing.T) {
	ts := &model.TranslatedStory{
		ID:       "photo",
		Title:    []model.Segment{{Kind: model.SegmentText, Text: "Photo"}},
		Country:  "bb",
		Language: "en",
		Content: []model.Segment{
			{Kind: model.SegmentImage, Key: "i1", Src: "/a.jpg", Alt: "alt", Caption: "The site", Credit: "Jane Doe", CreditURL: "https://example.com/jane"},
			{Kind: model.SegmentImage, Key: "i2", Src: "/b.jpg", Alt: "alt", Credit: "Unlinked"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewRenderer().RenderHTML(&buf, ts))
	out := buf.String()

	assert.Contains(t, out, `<small>The site <a class="credit" href="https://example.com/jane">Jane Doe</a></small>`)
	assert.Contains(t, out, `<small>Unlinked</small>`)
	assert.Equal(t, 1, strings.Count(out, "<a "))
}
