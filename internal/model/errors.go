package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for translation failures. All of them abort the
// translation of one story into one country.
var (
	ErrMalformedDocument   = errors.New("malformed document")
	ErrUnknownMarkerKey    = errors.New("unknown marker key")
	ErrUnresolvedReference = errors.New("unresolved reference")
	ErrEmptyCandidatePool  = errors.New("empty candidate pool")
	ErrUnknownModifier     = errors.New("unknown marker modifier")
	ErrStoryNotFound       = errors.New("story not found")
)

// MarkerError describes a failure tied to a story and, usually, a marker key
type MarkerError struct {
	Kind    error  // one of the sentinels above
	StoryID string
	Key     string
	Snippet string
}

func (e *MarkerError) Error() string {
	msg := e.Kind.Error()
	if e.StoryID != "" {
		msg = fmt.Sprintf("%s in story %s", msg, e.StoryID)
	}
	if e.Key != "" {
		msg = fmt.Sprintf("%s: marker %q", msg, e.Key)
	}
	if e.Snippet != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Snippet)
	}
	return msg
}

func (e *MarkerError) Unwrap() error { return e.Kind }

// WithStory returns err with the story id attached when it is a MarkerError
// that does not carry one yet
func WithStory(err error, storyID string) error {
	var me *MarkerError
	if errors.As(err, &me) && me.StoryID == "" {
		cp := *me
		cp.StoryID = storyID
		return &cp
	}
	return err
}
