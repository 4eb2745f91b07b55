package validate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/ifhere/internal/content"
	"github.com/ppiankov/ifhere/internal/model"
)

func init() {
	checkSleepFunc = func(d time.Duration) {}
}

func testConfig() model.SourcesConfig {
	return model.SourcesConfig{
		PrimaryDomains:   []string{"ilo.org"},
		SecondaryDomains: []string{"wikipedia.org", "reuters.com"},
		Timeout:          5 * time.Second,
		Workers:          4,
		UserAgent:        "ifhere-test",
	}
}

func TestAuthorityClassifier_Classify(t *testing.T) {
	c := NewAuthorityClassifier(testConfig())

	tests := []struct {
		url  string
		want model.AuthorityTier
	}{
		{"https://www.ilo.org/report", model.TierPrimary},
		{"https://ilo.org", model.TierPrimary},
		{"https://www.governor.virginia.gov/", model.TierPrimary},
		{"https://press.uchicago.edu/book", model.TierPrimary},
		{"https://www.ox.ac.uk/", model.TierPrimary},
		{"https://en.wikipedia.org/wiki/Fire", model.TierSecondary},
		{"https://REUTERS.com/world", model.TierSecondary},
		{"https://someblog.example.com/post", model.TierTertiary},
		{"https://notilo.org/", model.TierTertiary},
		{"not a url", model.TierTertiary},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.url))
		})
	}
}

func TestAudit_Issues(t *testing.T) {
	c := NewAuthorityClassifier(testConfig())

	story := &model.Story{
		ID:       "fire",
		Verified: true,
		Sources: []model.Source{
			{ID: "s1", Number: 1, URL: "https://blog.example.com/a"},
			{ID: "s2", Number: 1, URL: "https://blog.example.com/b"},
			{ID: "s3", Number: 0, URL: "ftp://files.example.com/c"},
		},
	}

	issues := Audit(story, c)
	require.Len(t, issues, 4)
	assert.Equal(t, "s2", issues[0].SourceID)
	assert.Contains(t, issues[0].Message, "already used by s1")
	assert.Contains(t, issues[1].Message, "must be positive")
	assert.Contains(t, issues[2].Message, "not an absolute http(s) link")
	assert.True(t, issues[3].Warning)
	assert.Contains(t, issues[3].String(), "warning: fire: verified story")
	assert.True(t, HasErrors(issues))
}

func TestAudit_CleanStory(t *testing.T) {
	c := NewAuthorityClassifier(testConfig())

	story := &model.Story{
		ID:       "fire",
		Verified: true,
		Sources: []model.Source{
			{ID: "s1", Number: 1, URL: "https://blog.example.com/a"},
			{ID: "s2", Number: 2, URL: "https://www.ilo.org/"},
		},
	}
	assert.Empty(t, Audit(story, c))

	unverified := &model.Story{ID: "rumor"}
	assert.Empty(t, Audit(unverified, c))
	assert.False(t, HasErrors(nil))
}

func checkOne(t *testing.T, cfg model.SourcesConfig, url string) model.SourceCheck {
	t.Helper()
	story := &model.Story{ID: "fire", Sources: []model.Source{{ID: "s1", Number: 1, URL: url}}}
	results := NewLinkChecker(cfg).Check(context.Background(), []*model.Story{story})
	require.Len(t, results, 1)
	assert.Equal(t, "fire", results[0].StoryID)
	assert.Equal(t, "s1", results[0].SourceID)
	return results[0]
}

func TestLinkChecker_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "ifhere-test", r.Header.Get("User-Agent"))
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2023 15:04:05 GMT")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := checkOne(t, testConfig(), server.URL+"/report")
	assert.True(t, result.Accessible)
	assert.False(t, result.Dead)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "127.0.0.1", result.Host)
	assert.Equal(t, model.TierTertiary, result.Authority)
	require.NotNil(t, result.LastModified)
	assert.Equal(t, 2023, result.LastModified.Year())
}

func TestLinkChecker_Dead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer server.Close()

	result := checkOne(t, testConfig(), server.URL)
	assert.False(t, result.Accessible)
	assert.True(t, result.Dead)
	assert.Equal(t, http.StatusGone, result.StatusCode)
}

func TestLinkChecker_Redirect(t *testing.T) {
	final := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer final.Close()

	redirect := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL+"/moved", http.StatusMovedPermanently)
	}))
	defer redirect.Close()

	result := checkOne(t, testConfig(), redirect.URL)
	assert.True(t, result.Accessible)
	assert.Equal(t, final.URL+"/moved", result.RedirectURL)
}

func TestLinkChecker_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := checkOne(t, testConfig(), server.URL)
	assert.True(t, result.Accessible)
	assert.Equal(t, int32(3), calls.Load())
}

func TestLinkChecker_RespectsRobots(t *testing.T) {
	var heads atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
			return
		}
		heads.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.RespectRobots = true

	blocked := checkOne(t, cfg, server.URL+"/private/report")
	assert.True(t, blocked.Disallowed)
	assert.False(t, blocked.Accessible)
	assert.False(t, blocked.Dead)
	assert.Equal(t, int32(0), heads.Load())

	open := checkOne(t, cfg, server.URL+"/public")
	assert.False(t, open.Disallowed)
	assert.True(t, open.Accessible)
	assert.Equal(t, int32(1), heads.Load())
}

func TestLinkChecker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testConfig()
	cfg.Workers = 1
	story := &model.Story{ID: "fire", Sources: []model.Source{
		{ID: "s1", URL: "http://127.0.0.1:1/a"},
		{ID: "s2", URL: "http://127.0.0.1:1/b"},
	}}
	results := NewLinkChecker(cfg).Check(ctx, []*model.Story{story})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.Accessible)
		assert.NotEmpty(t, r.Error)
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(model.SourceCheck{StatusCode: 502}))
	assert.True(t, isRetryable(model.SourceCheck{StatusCode: 429}))
	assert.True(t, isRetryable(model.SourceCheck{Error: "request failed: dial tcp: connection refused"}))
	assert.False(t, isRetryable(model.SourceCheck{StatusCode: 404}))
	assert.False(t, isRetryable(model.SourceCheck{Error: strings.ToUpper("invalid url")}))
}

func TestAudit_BundledStories(t *testing.T) {
	lib, err := content.LoadEmbedded()
	require.NoError(t, err)

	c := NewAuthorityClassifier(model.DefaultConfig().Sources)
	for _, story := range lib.List() {
		assert.Empty(t, Audit(story, c), "story %s", story.ID)
	}
}
