// Package compare scales casualty counts by population and anchors them to
// comparable events in the destination country.
package compare

import (
	"math"
	"strconv"

	"github.com/ppiankov/ifhere/internal/model"
)

// Comparison bands
const (
	BandApproximately = "approximately"
	BandFraction      = "fraction"
	BandSmallFraction = "small-fraction"
	BandMultiple      = "multiple"
)

// fraction is one entry of the fixed fraction vocabulary
type fraction struct {
	value float64
	words string
}

var fractions = []fraction{
	{1.0 / 3.0, "one-third"},
	{0.5, "half"},
	{2.0 / 3.0, "two-thirds"},
	{0.75, "three-quarters"},
}

var numberWords = []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}

// Scale adjusts count by the destination/source population ratio and an
// extra factor. A count of at least 1 never scales to 0.
func Scale(count, srcPopulation, dstPopulation int64, factor float64) int64 {
	if count <= 0 || srcPopulation <= 0 {
		return count
	}
	if factor <= 0 {
		factor = 1
	}
	scaled := int64(math.Round(float64(count) * float64(dstPopulation) / float64(srcPopulation) * factor))
	if scaled < 1 {
		scaled = 1
	}
	return scaled
}

// Comparator phrases a scaled count relative to a comparable event
type Comparator struct {
	ApproxLow         float64 // lower bound of the "approximately" band
	ApproxHigh        float64 // upper bound of the "approximately" band
	FractionTolerance float64 // max distance to a named fraction
}

// NewComparator creates a comparator with the standard bands
func NewComparator() *Comparator {
	return &Comparator{
		ApproxLow:         0.85,
		ApproxHigh:        1.15,
		FractionTolerance: 0.1,
	}
}

// Nearest returns the event of the given category whose casualty count is
// closest to scaled. Ties go to the smaller absolute event id. An empty
// category matches every event.
func Nearest(events []model.ComparableEvent, scaled int64, category string) (model.ComparableEvent, bool) {
	var (
		best     model.ComparableEvent
		bestDiff int64 = -1
	)
	for _, ev := range events {
		if ev.Casualties <= 0 {
			continue
		}
		if category != "" && ev.Category != category {
			continue
		}
		diff := ev.Casualties - scaled
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff || (diff == bestDiff && absInt(ev.ID) < absInt(best.ID)) {
			best = ev
			bestDiff = diff
		}
	}
	return best, bestDiff >= 0
}

// Compare finds the nearest event and phrases the comparison. It returns
// nil when no event of the category exists.
func (c *Comparator) Compare(scaled int64, events []model.ComparableEvent, category string) *model.Comparison {
	ev, ok := Nearest(events, scaled, category)
	if !ok {
		return nil
	}
	ratio := float64(scaled) / float64(ev.Casualties)
	band, phrase := c.Phrase(ratio, ev.Name)
	return &model.Comparison{
		Event:  ev,
		Scaled: scaled,
		Ratio:  ratio,
		Band:   band,
		Phrase: phrase,
	}
}

// Phrase returns the band and comparison phrase for ratio = scaled / event
func (c *Comparator) Phrase(ratio float64, event string) (string, string) {
	switch {
	case ratio >= c.ApproxLow && ratio <= c.ApproxHigh:
		return BandApproximately, approximately(event)

	case ratio < c.ApproxLow:
		best := fractions[0]
		for _, f := range fractions[1:] {
			if math.Abs(ratio-f.value) < math.Abs(ratio-best.value) {
				best = f
			}
		}
		if math.Abs(ratio-best.value) > c.FractionTolerance {
			return BandSmallFraction, "a small fraction of " + event
		}
		return BandFraction, best.words + " of " + event

	default:
		n := int64(math.Round(ratio))
		if n <= 1 {
			return BandApproximately, approximately(event)
		}
		return BandMultiple, Times(n) + " " + event
	}
}

// Times spells a multiplier: "three times", "12 times"
func Times(n int64) string {
	if n >= 0 && n < int64(len(numberWords)) {
		return numberWords[n] + " times"
	}
	return strconv.FormatInt(n, 10) + " times"
}

func approximately(event string) string {
	return "approximately as many as " + event
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
