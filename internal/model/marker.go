package model

import (
	"fmt"
	"regexp"
)

// MarkerKind identifies which variant a marker definition carries
type MarkerKind string

const (
	KindPerson     MarkerKind = "person"
	KindPlace      MarkerKind = "place"
	KindNumber     MarkerKind = "number"
	KindCurrency   MarkerKind = "currency"
	KindEvent      MarkerKind = "event"
	KindOccupation MarkerKind = "occupation"
	KindSubject    MarkerKind = "subject"
	KindSource     MarkerKind = "source"
	KindImage      MarkerKind = "image"
)

// Reserved marker keys. Their suffix is an id into the story's sources or images.
const (
	ReservedSource = "source"
	ReservedImage  = "image"
)

// IsReservedKey reports whether key is looked up outside the marker table
func IsReservedKey(key string) bool {
	return key == ReservedSource || key == ReservedImage
}

// PlaceCategory classifies places in the reference catalog
type PlaceCategory string

const (
	PlaceCity               PlaceCategory = "city"
	PlaceLandmark           PlaceCategory = "landmark"
	PlaceGovernmentFacility PlaceCategory = "government-facility"
	PlaceUniversity         PlaceCategory = "university"
)

// Valid reports whether c is one of the known place categories
func (c PlaceCategory) Valid() bool {
	switch c {
	case PlaceCity, PlaceLandmark, PlaceGovernmentFacility, PlaceUniversity:
		return true
	}
	return false
}

// Gender selects a name pool
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderNeutral Gender = "neutral"
)

// keyPattern is the character class shared by marker keys and suffixes
var keyPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidKey reports whether s can be used as a marker key or suffix
func ValidKey(s string) bool {
	return keyPattern.MatchString(s)
}

// MarkerDefinition is a tagged variant: exactly one field is set
type MarkerDefinition struct {
	Person     *PersonMarker   `yaml:"person,omitempty" json:"person,omitempty"`
	Place      *PlaceMarker    `yaml:"place,omitempty" json:"place,omitempty"`
	Number     *NumberMarker   `yaml:"number,omitempty" json:"number,omitempty"`
	Currency   *CurrencyMarker `yaml:"currency,omitempty" json:"currency,omitempty"`
	Event      *LabelMarker    `yaml:"event,omitempty" json:"event,omitempty"`
	Occupation *LabelMarker    `yaml:"occupation,omitempty" json:"occupation,omitempty"`
	Subject    *LabelMarker    `yaml:"subject,omitempty" json:"subject,omitempty"`
}

// PersonMarker stands for a named individual
type PersonMarker struct {
	Name   string `yaml:"name,omitempty" json:"name,omitempty"`
	Gender Gender `yaml:"gender" json:"gender"`
	Age    int    `yaml:"age,omitempty" json:"age,omitempty"`
	Role   string `yaml:"role,omitempty" json:"role,omitempty"`
}

// PlaceMarker stands for a city, landmark or facility.
// Within names another place marker of category city.
type PlaceMarker struct {
	Name     string        `yaml:"name" json:"name"`
	Category PlaceCategory `yaml:"category" json:"category"`
	Size     string        `yaml:"size,omitempty" json:"size,omitempty"`
	Within   string        `yaml:"within,omitempty" json:"within,omitempty"`
}

// NumberMarker stands for a count, typically casualties
type NumberMarker struct {
	Count       int64   `yaml:"count" json:"count"`
	Unit        string  `yaml:"unit,omitempty" json:"unit,omitempty"`
	Scale       bool    `yaml:"scale,omitempty" json:"scale,omitempty"`
	ScaleFactor float64 `yaml:"scale_factor,omitempty" json:"scale_factor,omitempty"`
	Category    string  `yaml:"category,omitempty" json:"category,omitempty"` // comparable event category
	Compare     bool    `yaml:"compare,omitempty" json:"compare,omitempty"`
}

// Factor returns the scale factor, defaulting to 1
func (n *NumberMarker) Factor() float64 {
	if n.ScaleFactor <= 0 {
		return 1
	}
	return n.ScaleFactor
}

// CurrencyMarker stands for an amount of money in a source currency
type CurrencyMarker struct {
	Amount   float64 `yaml:"amount" json:"amount"`
	Currency string  `yaml:"currency" json:"currency"` // ISO 4217
	Period   string  `yaml:"period,omitempty" json:"period,omitempty"`
}

// LabelMarker covers event, occupation and subject markers.
// Examples maps a destination country code to candidate labels.
type LabelMarker struct {
	Value    string              `yaml:"value" json:"value"`
	Category string              `yaml:"category,omitempty" json:"category,omitempty"`
	Examples map[string][]string `yaml:"examples,omitempty" json:"examples,omitempty"`
}

// Kind returns the variant carried by the definition, or "" when none or
// more than one is set
func (d MarkerDefinition) Kind() MarkerKind {
	var kind MarkerKind
	n := 0
	set := func(ok bool, k MarkerKind) {
		if ok {
			kind = k
			n++
		}
	}
	set(d.Person != nil, KindPerson)
	set(d.Place != nil, KindPlace)
	set(d.Number != nil, KindNumber)
	set(d.Currency != nil, KindCurrency)
	set(d.Event != nil, KindEvent)
	set(d.Occupation != nil, KindOccupation)
	set(d.Subject != nil, KindSubject)
	if n != 1 {
		return ""
	}
	return kind
}

// Label returns the label variant for event, occupation and subject markers
func (d MarkerDefinition) Label() *LabelMarker {
	switch {
	case d.Event != nil:
		return d.Event
	case d.Occupation != nil:
		return d.Occupation
	default:
		return d.Subject
	}
}

// Validate checks the definition in isolation
func (d MarkerDefinition) Validate() error {
	switch d.Kind() {
	case "":
		return fmt.Errorf("marker must define exactly one of person, place, number, currency, event, occupation, subject")
	case KindPerson:
		switch d.Person.Gender {
		case GenderMale, GenderFemale, GenderNeutral:
		default:
			return fmt.Errorf("person: unknown gender %q", d.Person.Gender)
		}
	case KindPlace:
		if !d.Place.Category.Valid() {
			return fmt.Errorf("place: unknown category %q", d.Place.Category)
		}
	case KindNumber:
		if d.Number.Count < 0 {
			return fmt.Errorf("number: negative count %d", d.Number.Count)
		}
	case KindCurrency:
		if d.Currency.Currency == "" {
			return fmt.Errorf("currency: missing currency code")
		}
	}
	return nil
}
