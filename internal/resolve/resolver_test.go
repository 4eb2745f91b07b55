package resolve

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/ifhere/internal/markup"
	"github.com/ppiankov/ifhere/internal/model"
	"github.com/ppiankov/ifhere/internal/refdata"
)

const fixtureData = `
default: src
currencies:
  USD: {symbol: "$", per_usd: 1}
  JPY: {symbol: "¥", per_usd: 150}
countries:
  src:
    name: Sourceland
    population: 1000
    currency: USD
    names: {male: [Sam Source], female: [Sue Source]}
    places: {city: [Source City], landmark: [Source Tower]}
  dst:
    name: Destland
    population: 2000
    currency: JPY
    names:
      male: [Aki, Ben, Cho]
      female: [Dana]
    places:
      city: [Alpha, Beta]
      landmark: [Generic Park]
    cities:
      - name: Alpha
        places: {landmark: [Alpha Bridge]}
      - name: Beta
        places: {landmark: [Beta Bridge]}
    events:
      - {id: 1, name: the flood, category: disaster, casualties: 200, year: 1999}
      - {id: 2, name: the attack, category: terrorism, casualties: 600}
`

func fixtureStore(t *testing.T) *refdata.Store {
	t.Helper()
	store, err := refdata.Parse([]byte(fixtureData), "")
	require.NoError(t, err)
	return store
}

func fixtureStory(id string) *model.Story {
	return &model.Story{
		ID:      id,
		Country: "src",
		Markers: map[string]model.MarkerDefinition{
			"victim":   {Person: &model.PersonMarker{Name: "John Smith", Gender: model.GenderMale, Age: 34, Role: "teacher"}},
			"witness":  {Person: &model.PersonMarker{Gender: model.GenderMale}},
			"stranger": {Person: &model.PersonMarker{Gender: model.GenderNeutral}},
			"hometown": {Place: &model.PlaceMarker{Name: "Springfield", Category: model.PlaceCity}},
			"memorial": {Place: &model.PlaceMarker{Name: "Lincoln Park", Category: model.PlaceLandmark, Within: "hometown"}},
			"bad-ref":  {Place: &model.PlaceMarker{Name: "Nowhere", Category: model.PlaceLandmark, Within: "victim"}},
			"deaths":   {Number: &model.NumberMarker{Count: 100, Unit: "people", Scale: true, Category: "disaster"}},
			"planes":   {Number: &model.NumberMarker{Count: 100, Unit: "people", Scale: true, Category: "aviation"}},
			"floors":   {Number: &model.NumberMarker{Count: 12}},
			"fine":     {Currency: &model.CurrencyMarker{Amount: 10, Currency: "USD", Period: "day"}},
			"bogus":    {Currency: &model.CurrencyMarker{Amount: 10, Currency: "XXX"}},
			"job":      {Occupation: &model.LabelMarker{Value: "firefighter", Examples: map[string][]string{"dst": {"fire officer"}}}},
			"topic":    {Subject: &model.LabelMarker{Value: "gun control"}},
		},
		Sources: []model.Source{{ID: "s1", Number: 1, Title: "Report", URL: "https://example.com/r"}},
		Images:  []model.Image{{ID: "i1", Src: "/img/a.jpg", Alt: "A photo"}},
	}
}

func newResolver(t *testing.T, story *model.Story, dest string, contextualize bool) *Resolver {
	t.Helper()
	store := fixtureStore(t)
	return New(Config{
		Story:         story,
		Source:        store.Context(story.SourceCountry()),
		Destination:   store.Context(dest),
		Currencies:    store,
		Contextualize: contextualize,
	})
}

func resolveText(t *testing.T, r *Resolver, marker string) model.ResolvedValue {
	t.Helper()
	tokens, err := markup.Parse(marker)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	v, err := r.Resolve(tokens[0])
	require.NoError(t, err)
	return v
}

func resolveErr(t *testing.T, r *Resolver, marker string) error {
	t.Helper()
	tokens, err := markup.Parse(marker)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	_, err = r.Resolve(tokens[0])
	require.Error(t, err)
	return err
}

func TestResolve_PersonDeterministic(t *testing.T) {
	first := resolveText(t, newResolver(t, fixtureStory("a"), "dst", true), "{{victim}}")
	second := resolveText(t, newResolver(t, fixtureStory("a"), "dst", true), "{{victim}}")

	assert.Equal(t, first.Text, second.Text)
	assert.Contains(t, []string{"Aki", "Ben", "Cho"}, first.Text)
	require.NotNil(t, first.Original)
	assert.Equal(t, "John Smith", *first.Original)
}

func TestResolve_PersonSameKeyAcrossStories(t *testing.T) {
	a := resolveText(t, newResolver(t, fixtureStory("story-a"), "dst", true), "{{victim}}")
	b := resolveText(t, newResolver(t, fixtureStory("story-b"), "dst", true), "{{victim}}")
	assert.Equal(t, a.Text, b.Text)
}

func TestResolve_PersonRepeatsAreMemoized(t *testing.T) {
	r := newResolver(t, fixtureStory("a"), "dst", true)
	victim := resolveText(t, r, "{{victim}}")
	witness := resolveText(t, r, "{{witness}}")

	require.NotNil(t, witness.Original)
	assert.Equal(t, "a man", *witness.Original)
	assert.Equal(t, victim.Text, resolveText(t, r, "{{victim}}").Text)
}

// collidingKey returns a key other than key that hashes to the same male
// name slot in a pool of size n
func collidingKey(t *testing.T, key string, n int) string {
	t.Helper()
	want := Index(n, key, string(model.GenderMale))
	for i := 0; i < 1000; i++ {
		k := fmt.Sprintf("p%d", i)
		if Index(n, k, string(model.GenderMale)) == want {
			return k
		}
	}
	t.Fatalf("no key collides with %s", key)
	return ""
}

func TestResolve_PersonNameIgnoresOtherMarkers(t *testing.T) {
	other := collidingKey(t, "victim", 3)

	alone := resolveText(t, newResolver(t, fixtureStory("story-a"), "dst", true), "{{victim}}")

	crowded := fixtureStory("story-b")
	crowded.Markers[other] = model.MarkerDefinition{Person: &model.PersonMarker{Name: "Bob Jones", Gender: model.GenderMale}}
	r := newResolver(t, crowded, "dst", true)
	first := resolveText(t, r, "{{"+other+"}}")
	victim := resolveText(t, r, "{{victim}}")

	assert.Equal(t, alone.Text, victim.Text)
	assert.Equal(t, first.Text, victim.Text)

	reversed := newResolver(t, crowded, "dst", true)
	assert.Equal(t, victim.Text, resolveText(t, reversed, "{{victim}}").Text)
}

func TestResolve_EmptyNamePool(t *testing.T) {
	err := resolveErr(t, newResolver(t, fixtureStory("a"), "dst", true), "{{stranger}}")
	assert.ErrorIs(t, err, model.ErrEmptyCandidatePool)

	var me *model.MarkerError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "a", me.StoryID)
	assert.Equal(t, "stranger", me.Key)
}

func TestResolve_PlaceWithinCity(t *testing.T) {
	r := newResolver(t, fixtureStory("a"), "dst", true)

	// resolving the dependent first forces the city to resolve
	memorial := resolveText(t, r, "{{memorial}}")
	city := resolveText(t, r, "{{hometown}}")

	assert.Contains(t, []string{"Alpha", "Beta"}, city.Text)
	assert.Equal(t, city.Text+" Bridge", memorial.Text)
	require.NotNil(t, memorial.Original)
	assert.Equal(t, "Lincoln Park", *memorial.Original)
}

func TestResolve_PlaceBadWithin(t *testing.T) {
	err := resolveErr(t, newResolver(t, fixtureStory("a"), "dst", true), "{{bad-ref}}")
	assert.ErrorIs(t, err, model.ErrUnresolvedReference)
}

func TestResolve_NumberScaled(t *testing.T) {
	v := resolveText(t, newResolver(t, fixtureStory("a"), "dst", true), "{{deaths}}")

	assert.Equal(t, "200 people", v.Text)
	require.NotNil(t, v.Original)
	assert.Equal(t, "100 people", *v.Original)
	assert.Contains(t, v.Tooltip, "adjusted for population")
	assert.Nil(t, v.Comparison)
}

func TestResolve_NumberUnscaledHasNoOriginal(t *testing.T) {
	v := resolveText(t, newResolver(t, fixtureStory("a"), "dst", true), "{{floors}}")
	assert.Equal(t, "12", v.Text)
	assert.Nil(t, v.Original)
}

func TestResolve_Comparable(t *testing.T) {
	v := resolveText(t, newResolver(t, fixtureStory("a"), "dst", true), "{{deaths:comparable}}")

	require.NotNil(t, v.Comparison)
	assert.Equal(t, "approximately as many as the flood", v.Comparison.Phrase)
	assert.Contains(t, v.Tooltip, "approximately as many as the flood (200 deaths, 1999)")
	assert.Equal(t, "200 people", v.Text)
}

func TestResolve_ComparableWithoutEvent(t *testing.T) {
	v := resolveText(t, newResolver(t, fixtureStory("a"), "dst", true), "{{planes:comparable}}")
	assert.Nil(t, v.Comparison)
	assert.Equal(t, "200 people", v.Text)
}

func TestResolve_Currency(t *testing.T) {
	v := resolveText(t, newResolver(t, fixtureStory("a"), "dst", true), "{{fine}}")

	assert.Equal(t, "¥1,500 per day", v.Text)
	require.NotNil(t, v.Original)
	assert.Equal(t, "$10 per day", *v.Original)
	assert.Equal(t, "Converted at 1 USD = 150 JPY", v.Tooltip)

	err := resolveErr(t, newResolver(t, fixtureStory("a"), "dst", true), "{{bogus}}")
	assert.ErrorIs(t, err, model.ErrUnresolvedReference)
}

func TestResolve_Labels(t *testing.T) {
	r := newResolver(t, fixtureStory("a"), "dst", true)

	job := resolveText(t, r, "{{job}}")
	assert.Equal(t, "fire officer", job.Text)
	require.NotNil(t, job.Original)
	assert.Equal(t, "firefighter", *job.Original)

	topic := resolveText(t, r, "{{topic}}")
	assert.Equal(t, "gun control", topic.Text)
	assert.Nil(t, topic.Original)
	assert.Equal(t, model.KindSubject, topic.Kind)
}

func TestResolve_SourcesAndImages(t *testing.T) {
	r := newResolver(t, fixtureStory("a"), "dst", true)

	src := resolveText(t, r, "{{source:s1}}")
	assert.Equal(t, "[1]", src.Text)
	require.NotNil(t, src.Source)
	assert.Equal(t, "https://example.com/r", src.Source.URL)

	img := resolveText(t, r, "{{image:i1}}")
	assert.Equal(t, "", img.Text)
	require.NotNil(t, img.Image)
	assert.Equal(t, "A photo", img.Image.Alt)

	assert.ErrorIs(t, resolveErr(t, r, "{{source:s9}}"), model.ErrUnresolvedReference)
	assert.ErrorIs(t, resolveErr(t, r, "{{image:i9}}"), model.ErrUnresolvedReference)
}

func TestResolve_Suffixes(t *testing.T) {
	r := newResolver(t, fixtureStory("a"), "dst", true)

	assert.Equal(t, "34", resolveText(t, r, "{{victim:age}}").Text)
	assert.Equal(t, "teacher", resolveText(t, r, "{{victim:role}}").Text)

	orig := resolveText(t, r, "{{victim:original}}")
	assert.Equal(t, "John Smith", orig.Text)
	assert.Nil(t, orig.Original)

	local := resolveText(t, r, "{{deaths:local}}")
	assert.Equal(t, "200 people", local.Text)
	assert.Nil(t, local.Original)

	assert.ErrorIs(t, resolveErr(t, r, "{{witness:age}}"), model.ErrUnresolvedReference)
	assert.ErrorIs(t, resolveErr(t, r, "{{hometown:age}}"), model.ErrUnknownModifier)
	assert.ErrorIs(t, resolveErr(t, r, "{{victim:comparable}}"), model.ErrUnknownModifier)
	assert.ErrorIs(t, resolveErr(t, r, "{{victim:shoe-size}}"), model.ErrUnknownModifier)
	assert.ErrorIs(t, resolveErr(t, r, "{{nobody}}"), model.ErrUnknownMarkerKey)
}

func TestResolve_NotContextualized(t *testing.T) {
	r := newResolver(t, fixtureStory("a"), "dst", false)
	assert.False(t, r.Contextualized())

	tests := map[string]string{
		"{{victim}}":            "John Smith",
		"{{witness}}":           "a man",
		"{{memorial}}":          "Lincoln Park",
		"{{deaths}}":            "100 people",
		"{{deaths:comparable}}": "100 people",
		"{{fine}}":              "$10 per day",
		"{{job}}":               "firefighter",
	}
	for marker, want := range tests {
		t.Run(marker, func(t *testing.T) {
			v := resolveText(t, r, marker)
			assert.Equal(t, want, v.Text)
			assert.Nil(t, v.Original)
			assert.Nil(t, v.Comparison)
			assert.Empty(t, v.Tooltip)
		})
	}
}

func TestResolve_SameCountryIsNotContextualized(t *testing.T) {
	r := newResolver(t, fixtureStory("a"), "src", true)
	assert.False(t, r.Contextualized())
	assert.Equal(t, "John Smith", resolveText(t, r, "{{victim}}").Text)
}

func TestResolve_RoundTripOriginals(t *testing.T) {
	markers := []string{"{{victim}}", "{{witness}}", "{{hometown}}", "{{memorial}}", "{{deaths}}", "{{fine}}", "{{job}}"}

	on := newResolver(t, fixtureStory("a"), "dst", true)
	off := newResolver(t, fixtureStory("a"), "dst", false)
	for _, m := range markers {
		localized := resolveText(t, on, m)
		plain := resolveText(t, off, m)
		require.NotNil(t, localized.Original, m)
		assert.Equal(t, plain.Text, *localized.Original, m)
	}
}

func TestIndex(t *testing.T) {
	assert.Equal(t, 0, Index(0, "x"))
	assert.Equal(t, Index(7, "story", "key"), Index(7, "story", "key"))

	seen := make(map[int]bool)
	for i := 0; i < 50; i++ {
		idx := Index(5, "story", strings.Repeat("k", i+1))
		require.True(t, idx >= 0 && idx < 5)
		seen[idx] = true
	}
	assert.Greater(t, len(seen), 1)
}
