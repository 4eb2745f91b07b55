package model

import "strings"

// Country is the reference data for one destination country
type Country struct {
	Code       string                     `yaml:"-" json:"code"`
	Name       string                     `yaml:"name" json:"name"`
	Population int64                      `yaml:"population" json:"population"`
	Currency   string                     `yaml:"currency" json:"currency"`
	Names      map[Gender][]string        `yaml:"names" json:"-"`
	Places     map[PlaceCategory][]string `yaml:"places" json:"-"`
	Cities     []City                     `yaml:"cities,omitempty" json:"-"`
	Events     []ComparableEvent          `yaml:"events,omitempty" json:"-"`
}

// City scopes landmark and facility lists to one city
type City struct {
	Name   string                     `yaml:"name"`
	Places map[PlaceCategory][]string `yaml:"places"`
}

// FindCity returns the city with the given name, case-insensitively
func (c *Country) FindCity(name string) (*City, bool) {
	for i := range c.Cities {
		if strings.EqualFold(c.Cities[i].Name, name) {
			return &c.Cities[i], true
		}
	}
	return nil, false
}

// ComparableEvent is a historical tragedy in a destination country
type ComparableEvent struct {
	ID         int    `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	Category   string `yaml:"category" json:"category"`
	Casualties int64  `yaml:"casualties" json:"casualties"`
	Year       int    `yaml:"year,omitempty" json:"year,omitempty"`
}

// Currency is a conversion table entry
type Currency struct {
	Code   string  `yaml:"-" json:"code"`
	Symbol string  `yaml:"symbol" json:"symbol"`
	PerUSD float64 `yaml:"per_usd" json:"per_usd"`
}

// CountryContext is the active country for one translation request
type CountryContext struct {
	Requested string // code as requested
	Country   *Country
	Currency  Currency
	FellBack  bool // Country is the default because Requested is unknown
}

// Code returns the code of the resolved country
func (c *CountryContext) Code() string {
	return c.Country.Code
}

// Population returns the resolved country's population
func (c *CountryContext) Population() int64 {
	return c.Country.Population
}
