// Package refdata loads the per-country reference tables (names, places,
// currencies, comparable events). Tables are read once and never mutated.
package refdata

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/currency"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/ifhere/internal/model"
)

//go:embed data/countries.yaml
var embeddedData []byte

// Provider exposes read-only reference data
type Provider interface {
	// Context returns the country context for code, falling back to the
	// default country when code is unknown
	Context(code string) *model.CountryContext

	// Currency looks up a currency by ISO code
	Currency(code string) (model.Currency, bool)

	// Countries lists the available country codes in sorted order
	Countries() []string
}

// file is the on-disk layout of a reference data file
type file struct {
	Default    string                    `yaml:"default"`
	Currencies map[string]model.Currency `yaml:"currencies"`
	Countries  map[string]*model.Country `yaml:"countries"`
}

// Store is the in-memory Provider implementation
type Store struct {
	defaultCode string
	countries   map[string]*model.Country
	currencies  map[string]model.Currency
	codes       []string
	logger      *slog.Logger
}

// LoadEmbedded loads the dataset compiled into the binary
func LoadEmbedded(defaultCountry string) (*Store, error) {
	return Parse(embeddedData, defaultCountry)
}

// LoadFile loads reference data from a YAML file
func LoadFile(path, defaultCountry string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference data: %w", err)
	}
	return Parse(data, defaultCountry)
}

// Load loads from path, or the embedded dataset when path is empty
func Load(path, defaultCountry string) (*Store, error) {
	if path == "" {
		return LoadEmbedded(defaultCountry)
	}
	return LoadFile(path, defaultCountry)
}

// Parse decodes and validates reference data. defaultCountry overrides the
// file's own default when non-empty.
func Parse(data []byte, defaultCountry string) (*Store, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse reference data: %w", err)
	}

	s := &Store{
		defaultCode: strings.ToLower(f.Default),
		countries:   make(map[string]*model.Country, len(f.Countries)),
		currencies:  make(map[string]model.Currency, len(f.Currencies)),
		logger:      slog.Default(),
	}
	if defaultCountry != "" {
		s.defaultCode = strings.ToLower(defaultCountry)
	}

	for code, cur := range f.Currencies {
		code = strings.ToUpper(code)
		if _, err := currency.ParseISO(code); err != nil {
			return nil, fmt.Errorf("currency %s: %w", code, err)
		}
		if cur.PerUSD <= 0 {
			return nil, fmt.Errorf("currency %s: per_usd must be positive", code)
		}
		cur.Code = code
		s.currencies[code] = cur
	}

	for code, c := range f.Countries {
		code = strings.ToLower(code)
		if c == nil {
			return nil, fmt.Errorf("country %s: empty entry", code)
		}
		c.Code = code
		c.Currency = strings.ToUpper(c.Currency)
		if c.Population <= 0 {
			return nil, fmt.Errorf("country %s: population must be positive", code)
		}
		if _, ok := s.currencies[c.Currency]; !ok {
			return nil, fmt.Errorf("country %s: unknown currency %q", code, c.Currency)
		}
		seen := make(map[int]bool, len(c.Events))
		for _, ev := range c.Events {
			if seen[ev.ID] {
				return nil, fmt.Errorf("country %s: duplicate event id %d", code, ev.ID)
			}
			seen[ev.ID] = true
		}
		s.countries[code] = c
		s.codes = append(s.codes, code)
	}
	sort.Strings(s.codes)

	if _, ok := s.countries[s.defaultCode]; !ok {
		return nil, fmt.Errorf("default country %q not present in reference data", s.defaultCode)
	}

	return s, nil
}

// WithLogger sets the logger used for fallback notices
func (s *Store) WithLogger(logger *slog.Logger) *Store {
	s.logger = logger
	return s
}

// Context implements Provider
func (s *Store) Context(code string) *model.CountryContext {
	requested := strings.ToLower(strings.TrimSpace(code))
	c, ok := s.countries[requested]
	fellBack := false
	if !ok {
		s.logger.Debug("unknown country, using default", "requested", code, "default", s.defaultCode)
		c = s.countries[s.defaultCode]
		fellBack = true
	}
	return &model.CountryContext{
		Requested: requested,
		Country:   c,
		Currency:  s.currencies[c.Currency],
		FellBack:  fellBack,
	}
}

// Currency implements Provider
func (s *Store) Currency(code string) (model.Currency, bool) {
	cur, ok := s.currencies[strings.ToUpper(code)]
	return cur, ok
}

// Countries implements Provider
func (s *Store) Countries() []string {
	out := make([]string, len(s.codes))
	copy(out, s.codes)
	return out
}

// Country returns the country with the given code without fallback
func (s *Store) Country(code string) (*model.Country, bool) {
	c, ok := s.countries[strings.ToLower(code)]
	return c, ok
}

// DefaultCountry returns the fallback country code
func (s *Store) DefaultCountry() string {
	return s.defaultCode
}
