// Package resolve turns marker tokens into localized values for one
// translation request.
package resolve

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ppiankov/ifhere/internal/compare"
	"github.com/ppiankov/ifhere/internal/locale"
	"github.com/ppiankov/ifhere/internal/markup"
	"github.com/ppiankov/ifhere/internal/model"
)

// Marker suffixes
const (
	SuffixOriginal   = "original"
	SuffixLocal      = "local"
	SuffixComparable = "comparable"
	SuffixAge        = "age"
	SuffixRole       = "role"
)

// CurrencyLookup finds conversion entries by ISO code
type CurrencyLookup interface {
	Currency(code string) (model.Currency, bool)
}

// Config holds everything a Resolver needs for one request
type Config struct {
	Story         *model.Story
	Source        *model.CountryContext
	Destination   *model.CountryContext
	Currencies    CurrencyLookup
	Formatter     *locale.Formatter
	Comparator    *compare.Comparator
	Contextualize bool
}

// Resolver resolves markers of one story into one country. It memoizes by
// marker key so repeated markers render identically across sections. A
// Resolver is not safe for concurrent use; build one per request.
type Resolver struct {
	story         *model.Story
	src           *model.CountryContext
	dst           *model.CountryContext
	currencies    CurrencyLookup
	format        *locale.Formatter
	comparator    *compare.Comparator
	contextualize bool

	memo      map[string]entry
	resolving map[string]bool
}

// entry is a memoized base value
type entry struct {
	value  model.ResolvedValue
	scaled int64 // numbers only
}

// New creates a resolver. Contextualization is disabled when the
// destination is the story's own country.
func New(cfg Config) *Resolver {
	if cfg.Formatter == nil {
		cfg.Formatter = locale.NewFormatter("en")
	}
	if cfg.Comparator == nil {
		cfg.Comparator = compare.NewComparator()
	}
	return &Resolver{
		story:         cfg.Story,
		src:           cfg.Source,
		dst:           cfg.Destination,
		currencies:    cfg.Currencies,
		format:        cfg.Formatter,
		comparator:    cfg.Comparator,
		contextualize: cfg.Contextualize && cfg.Source.Code() != cfg.Destination.Code(),
		memo:          make(map[string]entry),
		resolving:     make(map[string]bool),
	}
}

// Contextualized reports whether values are substituted at all
func (r *Resolver) Contextualized() bool {
	return r.contextualize
}

// Resolve resolves one marker token
func (r *Resolver) Resolve(tok markup.Token) (model.ResolvedValue, error) {
	switch tok.Key {
	case model.ReservedSource:
		src, ok := r.story.FindSource(tok.Suffix)
		if !ok {
			return model.ResolvedValue{}, r.fail(model.ErrUnresolvedReference, tok.Key, "source id "+tok.Suffix)
		}
		return model.ResolvedValue{
			Kind:   model.KindSource,
			Text:   "[" + strconv.Itoa(src.Number) + "]",
			Source: &src,
		}, nil

	case model.ReservedImage:
		img, ok := r.story.FindImage(tok.Suffix)
		if !ok {
			return model.ResolvedValue{}, r.fail(model.ErrUnresolvedReference, tok.Key, "image id "+tok.Suffix)
		}
		return model.ResolvedValue{Kind: model.KindImage, Image: &img}, nil
	}

	def, ok := r.story.Markers[tok.Key]
	if !ok {
		return model.ResolvedValue{}, r.fail(model.ErrUnknownMarkerKey, tok.Key, tok.Text)
	}

	e, err := r.value(tok.Key)
	if err != nil {
		return model.ResolvedValue{}, err
	}
	v := e.value

	switch tok.Suffix {
	case "":
		if def.Number != nil && def.Number.Compare {
			r.attachComparison(&v, def.Number, e.scaled)
		}

	case SuffixOriginal:
		if v.Original != nil {
			v.Text = *v.Original
		}
		v.Original = nil
		v.Tooltip = ""

	case SuffixLocal:
		v.Original = nil

	case SuffixComparable:
		if def.Number == nil {
			return model.ResolvedValue{}, r.fail(model.ErrUnknownModifier, tok.Key, "comparable applies to numbers only")
		}
		r.attachComparison(&v, def.Number, e.scaled)

	case SuffixAge, SuffixRole:
		if def.Person == nil {
			return model.ResolvedValue{}, r.fail(model.ErrUnknownModifier, tok.Key, tok.Suffix+" applies to people only")
		}
		text := def.Person.Role
		if tok.Suffix == SuffixAge {
			text = ""
			if def.Person.Age > 0 {
				text = strconv.Itoa(def.Person.Age)
			}
		}
		if text == "" {
			return model.ResolvedValue{}, r.fail(model.ErrUnresolvedReference, tok.Key, tok.Suffix+" not defined")
		}
		v = model.ResolvedValue{Kind: model.KindPerson, Text: text}

	default:
		return model.ResolvedValue{}, r.fail(model.ErrUnknownModifier, tok.Key, tok.Suffix)
	}

	return v, nil
}

// value resolves the suffix-free value of key, memoized
func (r *Resolver) value(key string) (entry, error) {
	if e, ok := r.memo[key]; ok {
		return e, nil
	}
	if r.resolving[key] {
		return entry{}, r.fail(model.ErrUnresolvedReference, key, "reference cycle")
	}
	def, ok := r.story.Markers[key]
	if !ok {
		return entry{}, r.fail(model.ErrUnknownMarkerKey, key, "")
	}

	r.resolving[key] = true
	defer delete(r.resolving, key)

	var (
		e   entry
		err error
	)
	switch def.Kind() {
	case model.KindPerson:
		e.value, err = r.person(key, def.Person)
	case model.KindPlace:
		e.value, err = r.place(key, def.Place)
	case model.KindNumber:
		e.value, e.scaled = r.number(def.Number)
	case model.KindCurrency:
		e.value, err = r.money(key, def.Currency)
	case model.KindEvent, model.KindOccupation, model.KindSubject:
		e.value = r.label(key, def.Kind(), def.Label())
	default:
		err = r.fail(model.ErrUnknownMarkerKey, key, "definition has no single variant")
	}
	if err != nil {
		return entry{}, err
	}

	r.memo[key] = e
	return e, nil
}

func (r *Resolver) person(key string, p *model.PersonMarker) (model.ResolvedValue, error) {
	original := p.Name
	if original == "" {
		original = genericPerson(p.Gender)
	}
	if !r.contextualize {
		return plain(model.KindPerson, original), nil
	}

	pool := r.dst.Country.Names[p.Gender]
	if len(pool) == 0 {
		return model.ResolvedValue{}, r.fail(model.ErrEmptyCandidatePool, key,
			fmt.Sprintf("no %s names for %s", p.Gender, r.dst.Code()))
	}
	// Seeded by key and gender only, so a key names the same person in
	// every story regardless of the other markers around it.
	name := pool[Index(len(pool), key, string(p.Gender))]
	return substituted(model.KindPerson, name, original), nil
}

func (r *Resolver) place(key string, p *model.PlaceMarker) (model.ResolvedValue, error) {
	var pool []string
	if p.Within != "" {
		ref, ok := r.story.Markers[p.Within]
		if !ok || ref.Place == nil || ref.Place.Category != model.PlaceCity {
			return model.ResolvedValue{}, r.fail(model.ErrUnresolvedReference, key, "within "+p.Within+" is not a city marker")
		}
		city, err := r.value(p.Within)
		if err != nil {
			return model.ResolvedValue{}, err
		}
		if r.contextualize {
			if c, ok := r.dst.Country.FindCity(city.value.Text); ok {
				pool = c.Places[p.Category]
			}
		}
	}
	if !r.contextualize {
		return plain(model.KindPlace, p.Name), nil
	}

	if len(pool) == 0 {
		pool = r.dst.Country.Places[p.Category]
	}
	if len(pool) == 0 {
		return model.ResolvedValue{}, r.fail(model.ErrEmptyCandidatePool, key,
			fmt.Sprintf("no %s places for %s", p.Category, r.dst.Code()))
	}
	name := pool[Index(len(pool), r.story.ID, key)]
	return substituted(model.KindPlace, name, p.Name), nil
}

func (r *Resolver) number(n *model.NumberMarker) (model.ResolvedValue, int64) {
	original := r.format.Quantity(n.Count, n.Unit)
	if !r.contextualize || !n.Scale {
		return plain(model.KindNumber, original), n.Count
	}

	scaled := compare.Scale(n.Count, r.src.Population(), r.dst.Population(), n.Factor())
	text := r.format.Quantity(scaled, n.Unit)
	v := substituted(model.KindNumber, text, original)
	v.Tooltip = fmt.Sprintf("%s in %s, adjusted for population, is %s in %s",
		original, r.src.Country.Name, text, r.dst.Country.Name)
	return v, scaled
}

func (r *Resolver) money(key string, c *model.CurrencyMarker) (model.ResolvedValue, error) {
	from, ok := r.currencies.Currency(c.Currency)
	if !ok {
		return model.ResolvedValue{}, r.fail(model.ErrUnresolvedReference, key, "currency "+c.Currency)
	}

	suffix := ""
	if c.Period != "" {
		suffix = " per " + c.Period
	}
	amount := decimal.NewFromFloat(c.Amount)
	original := r.format.Money(from.Symbol, from.Code, amount) + suffix
	to := r.dst.Currency
	if !r.contextualize || to.Code == from.Code {
		return plain(model.KindCurrency, original), nil
	}

	ratio := decimal.NewFromFloat(to.PerUSD).Div(decimal.NewFromFloat(from.PerUSD))
	converted := amount.Mul(ratio)
	v := substituted(model.KindCurrency, r.format.Money(to.Symbol, to.Code, converted)+suffix, original)
	v.Tooltip = fmt.Sprintf("Converted at 1 %s = %s %s", from.Code, ratio.Round(4).String(), to.Code)
	return v, nil
}

func (r *Resolver) label(key string, kind model.MarkerKind, l *model.LabelMarker) model.ResolvedValue {
	if !r.contextualize {
		return plain(kind, l.Value)
	}
	pool := l.Examples[r.dst.Code()]
	if len(pool) == 0 {
		return plain(kind, l.Value)
	}
	return substituted(kind, pool[Index(len(pool), r.story.ID, key)], l.Value)
}

// attachComparison anchors a number to the nearest comparable event. A
// missing event leaves the value untouched.
func (r *Resolver) attachComparison(v *model.ResolvedValue, n *model.NumberMarker, scaled int64) {
	if !r.contextualize {
		return
	}
	cmp := r.comparator.Compare(scaled, r.dst.Country.Events, n.Category)
	if cmp == nil {
		return
	}
	v.Comparison = cmp
	detail := fmt.Sprintf("%s (%s)", cmp.Phrase, r.format.Quantity(cmp.Event.Casualties, "deaths"))
	if cmp.Event.Year > 0 {
		detail = fmt.Sprintf("%s (%s, %d)", cmp.Phrase, r.format.Quantity(cmp.Event.Casualties, "deaths"), cmp.Event.Year)
	}
	if v.Tooltip == "" {
		v.Tooltip = detail
	} else {
		v.Tooltip = v.Tooltip + "; " + detail
	}
}

func (r *Resolver) fail(kind error, key, snippet string) error {
	return &model.MarkerError{Kind: kind, StoryID: r.story.ID, Key: key, Snippet: snippet}
}

func plain(kind model.MarkerKind, text string) model.ResolvedValue {
	return model.ResolvedValue{Kind: kind, Text: text}
}

func substituted(kind model.MarkerKind, text, original string) model.ResolvedValue {
	return model.ResolvedValue{Kind: kind, Text: text, Original: model.StringPtr(original)}
}

func genericPerson(g model.Gender) string {
	switch g {
	case model.GenderMale:
		return "a man"
	case model.GenderFemale:
		return "a woman"
	default:
		return "a person"
	}
}
