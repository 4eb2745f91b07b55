// Package content loads stories from YAML files on disk or from the set
// bundled with the binary.
package content

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/ifhere/internal/markup"
	"github.com/ppiankov/ifhere/internal/model"
)

//go:embed stories/*.yaml
var bundled embed.FS

// Library is an immutable set of stories keyed by id
type Library struct {
	stories map[string]*model.Story
	ids     []string
}

// Load reads stories from dir, or the bundled set when dir is empty
func Load(dir string) (*Library, error) {
	if dir == "" {
		return LoadEmbedded()
	}
	return LoadDir(dir)
}

// LoadEmbedded loads the bundled stories
func LoadEmbedded() (*Library, error) {
	return loadFS(bundled, "stories")
}

// LoadDir loads every .yaml and .yml file in dir
func LoadDir(dir string) (*Library, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("content dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content dir: %s is not a directory", dir)
	}
	return loadFS(os.DirFS(dir), ".")
}

func loadFS(fsys fs.FS, root string) (*Library, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("read content dir: %w", err)
	}

	lib := &Library{stories: make(map[string]*model.Story)}
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		name := path.Join(root, e.Name())
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		story, err := ParseStory(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		if _, dup := lib.stories[story.ID]; dup {
			return nil, fmt.Errorf("%s: duplicate story id %q", e.Name(), story.ID)
		}
		lib.stories[story.ID] = story
		lib.ids = append(lib.ids, story.ID)
	}
	sort.Strings(lib.ids)

	return lib, nil
}

// ParseStory decodes one story document and validates its marker table.
// Unknown fields are rejected so typos in marker definitions surface early.
func ParseStory(data []byte) (*model.Story, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var story model.Story
	if err := dec.Decode(&story); err != nil {
		return nil, fmt.Errorf("parse story: %w", err)
	}
	if err := story.Validate(); err != nil {
		return nil, err
	}
	return &story, nil
}

// Lint parses every text field and language variant of the story and
// checks that each marker has a definition
func Lint(story *model.Story) error {
	variants := map[string]model.TextVariant{"": story.Text("")}
	for lang := range story.Translations {
		variants[lang] = story.Text(lang)
	}

	for lang, v := range variants {
		for field, text := range map[string]string{"title": v.Title, "summary": v.Summary, "content": v.Content} {
			tokens, err := markup.Parse(text)
			if err == nil {
				err = markup.CheckKeys(tokens, story.Markers)
			}
			if err != nil {
				where := field
				if lang != "" {
					where = lang + " " + field
				}
				return fmt.Errorf("%s: %w", where, model.WithStory(err, story.ID))
			}
		}
	}
	return nil
}

// Get returns the story with the given id
func (l *Library) Get(id string) (*model.Story, error) {
	s, ok := l.stories[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrStoryNotFound, id)
	}
	return s, nil
}

// IDs returns the story ids in sorted order
func (l *Library) IDs() []string {
	out := make([]string, len(l.ids))
	copy(out, l.ids)
	return out
}

// List returns the stories, newest first
func (l *Library) List() []*model.Story {
	out := make([]*model.Story, 0, len(l.ids))
	for _, id := range l.ids {
		out = append(out, l.stories[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// Len returns the number of stories
func (l *Library) Len() int {
	return len(l.ids)
}

func isYAML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
