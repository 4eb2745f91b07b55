package validate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/ifhere/internal/model"
	"github.com/ppiankov/ifhere/internal/worker"
)

const checkMaxRetries = 3

// checkSleepFunc is the sleep between retries, replaced in tests
var checkSleepFunc = time.Sleep

// LinkChecker checks that cited source links still resolve
type LinkChecker struct {
	httpClient *http.Client
	maxWorkers int
	userAgent  string
	authority  *AuthorityClassifier
	robots     *RobotsChecker // nil when robots.txt is ignored
	limiter    *worker.Limiter
	paced      sync.Map // hosts whose crawl delay is applied to limiter
}

// NewLinkChecker creates a checker from the sources config
func NewLinkChecker(cfg model.SourcesConfig) *LinkChecker {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 8
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "ifhere-linkcheck/0.1"
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: newProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}

	c := &LinkChecker{
		httpClient: client,
		maxWorkers: workers,
		userAgent:  userAgent,
		authority:  NewAuthorityClassifier(cfg),
		limiter:    worker.NewLimiter(0, 1),
	}
	if cfg.RespectRobots {
		c.robots = NewRobotsChecker(userAgent, client)
	}
	return c
}

// Check checks every source of every story concurrently. Results follow
// the order of stories and their sources.
func (c *LinkChecker) Check(ctx context.Context, stories []*model.Story) []model.SourceCheck {
	type target struct {
		storyID string
		source  model.Source
	}
	var targets []target
	for _, s := range stories {
		for _, src := range s.Sources {
			targets = append(targets, target{storyID: s.ID, source: src})
		}
	}

	results := make([]model.SourceCheck, len(targets))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, c.maxWorkers)

	for i, t := range targets {
		wg.Add(1)
		go func(idx int, t target) {
			defer wg.Done()

			base := model.SourceCheck{StoryID: t.storyID, SourceID: t.source.ID, URL: t.source.URL}
			select {
			case <-ctx.Done():
				base.Error = "context cancelled"
				results[idx] = base
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = c.checkWithRetry(ctx, base)
		}(i, t)
	}
	wg.Wait()

	return results
}

// checkSingle sends one HEAD request for the link in base
func (c *LinkChecker) checkSingle(ctx context.Context, base model.SourceCheck) model.SourceCheck {
	result := base
	result.Authority = c.authority.Classify(base.URL)

	parsed, err := url.Parse(base.URL)
	if err != nil || parsed.Host == "" {
		result.Error = "invalid url"
		result.Dead = true
		return result
	}
	result.Host = parsed.Hostname()

	if c.robots != nil {
		allowed, delay, _ := c.robots.CanFetch(ctx, base.URL)
		if !allowed {
			result.Disallowed = true
			return result
		}
		if _, seen := c.paced.LoadOrStore(result.Host, true); !seen && delay > 0 {
			c.limiter.SetRate(result.Host, 1/delay.Seconds(), 1)
		}
	}
	if err := c.limiter.Wait(ctx, result.Host); err != nil {
		result.Error = fmt.Sprintf("rate limit: %v", err)
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, base.URL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		result.Dead = true
		return result
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.Dead = true
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.Accessible = true
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		result.Dead = true
	}

	if final := resp.Request.URL.String(); final != base.URL {
		result.RedirectURL = final
	}

	if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
		if t, err := time.Parse(time.RFC1123, lastModified); err == nil {
			result.LastModified = &t
		}
	}

	return result
}

// checkWithRetry retries transient failures with exponential backoff
func (c *LinkChecker) checkWithRetry(ctx context.Context, base model.SourceCheck) model.SourceCheck {
	var result model.SourceCheck
	for attempt := 0; attempt < checkMaxRetries; attempt++ {
		result = c.checkSingle(ctx, base)
		if !isRetryable(result) {
			return result
		}
		if attempt < checkMaxRetries-1 {
			checkSleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return result
}

// isRetryable reports results that indicate transient failures
func isRetryable(result model.SourceCheck) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == http.StatusTooManyRequests {
		return true
	}
	s := strings.ToLower(result.Error)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
