// Package locale formats counts and money for a display language and
// matches requested languages against the supported set.
package locale

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Supported lists the display languages, default first
var Supported = []language.Tag{
	language.English,
	language.Spanish,
	language.French,
	language.German,
	language.Portuguese,
	language.Japanese,
}

var matcher = language.NewMatcher(Supported)

// wholeUnitsFrom is the amount at and above which money drops its minor units
var wholeUnitsFrom = decimal.NewFromInt(1000)

// Match returns the supported language closest to code. Unknown or empty
// codes map to English.
func Match(code string) string {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return Supported[0].String()
	}
	_, idx, _ := matcher.Match(tag)
	return Supported[idx].String()
}

// MatchAccept picks a supported language from an Accept-Language header
func MatchAccept(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return Supported[0].String()
	}
	_, idx, _ := matcher.Match(tags...)
	return Supported[idx].String()
}

// Formatter renders numbers for one language
type Formatter struct {
	lang    string
	printer *message.Printer
}

// NewFormatter creates a formatter for the closest supported language
func NewFormatter(code string) *Formatter {
	lang := Match(code)
	return &Formatter{
		lang:    lang,
		printer: message.NewPrinter(language.MustParse(lang)),
	}
}

// Language returns the matched language code
func (f *Formatter) Language() string {
	return f.lang
}

// Count formats an integer with locale grouping
func (f *Formatter) Count(n int64) string {
	return f.printer.Sprintf("%d", n)
}

// Quantity formats a count followed by an optional unit
func (f *Formatter) Quantity(n int64, unit string) string {
	if unit == "" {
		return f.Count(n)
	}
	return f.Count(n) + " " + unit
}

// Money formats amount with symbol prefixed. Minor units follow the
// currency's standard scale and are dropped from 1,000 upwards.
func (f *Formatter) Money(symbol, code string, amount decimal.Decimal) string {
	scale := 2
	if unit, err := currency.ParseISO(code); err == nil {
		scale, _ = currency.Standard.Rounding(unit)
	}
	if amount.Abs().GreaterThanOrEqual(wholeUnitsFrom) {
		scale = 0
	}

	rounded := amount.Round(int32(scale))
	if rounded.IsInteger() {
		scale = 0
	}
	var digits string
	if scale == 0 {
		digits = f.printer.Sprintf("%d", rounded.IntPart())
	} else {
		digits = f.printer.Sprint(number.Decimal(rounded.InexactFloat64(), number.Scale(scale)))
	}
	return symbol + digits
}
