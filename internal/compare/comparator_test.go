package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/ifhere/internal/model"
)

func TestScale(t *testing.T) {
	tests := []struct {
		name   string
		count  int64
		src    int64
		dst    int64
		factor float64
		want   int64
	}{
		{"double population", 100, 1000, 2000, 1, 200},
		{"base one never zero", 1, 1000, 10, 1, 1},
		{"zero stays zero", 0, 1000, 2000, 1, 0},
		{"half population", 100, 2000, 1000, 1, 50},
		{"extra factor", 100, 1000, 1000, 1.5, 150},
		{"default factor", 100, 1000, 2000, 0, 200},
		{"rounds to nearest", 10, 3, 1, 1, 3},
		{"real populations", 2977, 335000000, 124500000, 1, 1106},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Scale(tt.count, tt.src, tt.dst, tt.factor))
		})
	}
}

func TestNearest(t *testing.T) {
	events := []model.ComparableEvent{
		{ID: 3, Name: "c", Category: "terrorism", Casualties: 100},
		{ID: 1, Name: "a", Category: "terrorism", Casualties: 300},
		{ID: 2, Name: "b", Category: "disaster", Casualties: 190},
		{ID: 4, Name: "zero", Category: "terrorism", Casualties: 0},
	}

	ev, ok := Nearest(events, 180, "terrorism")
	require.True(t, ok)
	assert.Equal(t, "c", ev.Name)

	ev, ok = Nearest(events, 180, "")
	require.True(t, ok)
	assert.Equal(t, "b", ev.Name)

	_, ok = Nearest(events, 180, "aviation")
	assert.False(t, ok)

	_, ok = Nearest(nil, 10, "")
	assert.False(t, ok)
}

func TestNearest_TieBreaksOnSmallerID(t *testing.T) {
	events := []model.ComparableEvent{
		{ID: 9, Name: "later", Casualties: 100},
		{ID: -2, Name: "earlier", Casualties: 300},
	}
	ev, ok := Nearest(events, 200, "")
	require.True(t, ok)
	assert.Equal(t, "earlier", ev.Name)
}

func TestComparator_Phrase(t *testing.T) {
	c := NewComparator()

	tests := []struct {
		name   string
		ratio  float64
		band   string
		phrase string
	}{
		{"exact", 1.0, BandApproximately, "approximately as many as X"},
		{"low edge", 0.85, BandApproximately, "approximately as many as X"},
		{"high edge", 1.15, BandApproximately, "approximately as many as X"},
		{"forty percent", 0.4, BandFraction, "one-third of X"},
		{"half", 0.52, BandFraction, "half of X"},
		{"two thirds", 0.66, BandFraction, "two-thirds of X"},
		{"three quarters", 0.8, BandFraction, "three-quarters of X"},
		{"tiny", 0.05, BandSmallFraction, "a small fraction of X"},
		{"rounds to one", 1.4, BandApproximately, "approximately as many as X"},
		{"three times", 3.0, BandMultiple, "three times X"},
		{"rounds to two", 1.6, BandMultiple, "two times X"},
		{"large", 41.7, BandMultiple, "42 times X"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			band, phrase := c.Phrase(tt.ratio, "X")
			assert.Equal(t, tt.band, band)
			assert.Equal(t, tt.phrase, phrase)
		})
	}
}

func TestComparator_Compare(t *testing.T) {
	c := NewComparator()
	events := []model.ComparableEvent{
		{ID: 1, Name: "the flood", Category: "disaster", Casualties: 500},
		{ID: 2, Name: "the bombing", Category: "terrorism", Casualties: 100},
	}

	cmp := c.Compare(100, events, "terrorism")
	require.NotNil(t, cmp)
	assert.Equal(t, BandApproximately, cmp.Band)
	assert.Equal(t, "approximately as many as the bombing", cmp.Phrase)
	assert.Equal(t, int64(100), cmp.Scaled)
	assert.InDelta(t, 1.0, cmp.Ratio, 1e-9)

	cmp = c.Compare(40, events, "terrorism")
	require.NotNil(t, cmp)
	assert.Equal(t, "one-third of the bombing", cmp.Phrase)

	cmp = c.Compare(300, events, "terrorism")
	require.NotNil(t, cmp)
	assert.Equal(t, "three times the bombing", cmp.Phrase)

	assert.Nil(t, c.Compare(100, events, "aviation"))
}

func TestTimes(t *testing.T) {
	assert.Equal(t, "two times", Times(2))
	assert.Equal(t, "ten times", Times(10))
	assert.Equal(t, "11 times", Times(11))
}
