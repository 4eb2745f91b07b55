package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/ifhere/internal/model"
	"github.com/ppiankov/ifhere/internal/pipeline"
)

// Translator renders one story for one country
type Translator interface {
	Translate(req pipeline.Request) (*model.TranslatedStory, error)
}

// Sink receives each translated story, typically to write it to disk, and
// returns the files it produced
type Sink func(ts *model.TranslatedStory) ([]string, error)

// TranslateJob represents one story and country pair
type TranslateJob struct {
	Request    pipeline.Request
	Translator Translator
	Limiter    *Limiter
	Sink       Sink
}

// Execute translates the pair and hands the story to the sink
func (j *TranslateJob) Execute(ctx context.Context) *TranslateResult {
	start := time.Now()
	result := &TranslateResult{StoryID: j.Request.StoryID, Country: j.Request.Country}
	defer func() { result.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Request.Country); err != nil {
			result.Error = fmt.Errorf("rate limit: %w", err)
			return result
		}
	}

	story, err := j.Translator.Translate(j.Request)
	if err != nil {
		result.Error = err
		return result
	}
	result.Story = story

	if j.Sink != nil {
		files, err := j.Sink(story)
		result.Files = files
		if err != nil {
			result.Error = fmt.Errorf("write output: %w", err)
		}
	}
	return result
}

// TranslateResult represents the result of a translation job
type TranslateResult struct {
	StoryID  string
	Country  string
	Story    *model.TranslatedStory
	Files    []string
	Duration time.Duration
	Error    error
}

// BatchProcessor translates many story and country pairs concurrently.
// A failed pair is recorded and the batch continues.
type BatchProcessor struct {
	translator  Translator
	concurrency int
	limiter     *Limiter
	sink        Sink
	progress    func(*TranslateResult)
}

// NewBatchProcessor creates a new batch processor. rps <= 0 disables
// per-country pacing.
func NewBatchProcessor(translator Translator, concurrency int, rps float64, burst int) *BatchProcessor {
	b := &BatchProcessor{
		translator:  translator,
		concurrency: concurrency,
	}
	if rps > 0 {
		b.limiter = NewLimiter(rps, burst)
	}
	return b
}

// WithSink sets where translated stories go
func (b *BatchProcessor) WithSink(sink Sink) *BatchProcessor {
	b.sink = sink
	return b
}

// WithProgress sets fn to be called once per finished job, in completion
// order, while the batch is still running
func (b *BatchProcessor) WithProgress(fn func(*TranslateResult)) *BatchProcessor {
	b.progress = fn
	return b
}

// Process runs every request and returns the results sorted by story id,
// then country
func (b *BatchProcessor) Process(ctx context.Context, reqs []pipeline.Request) []*TranslateResult {
	if len(reqs) == 0 {
		return []*TranslateResult{}
	}

	pool := NewPoolContext(ctx, b.concurrency).OnResult(b.progress)
	pool.Start()

	for _, req := range reqs {
		pool.Submit(&TranslateJob{
			Request:    req,
			Translator: b.translator,
			Limiter:    b.limiter,
			Sink:       b.sink,
		})
	}

	out := pool.Wait()
	sort.Slice(out, func(i, j int) bool {
		if out[i].StoryID != out[j].StoryID {
			return out[i].StoryID < out[j].StoryID
		}
		return out[i].Country < out[j].Country
	})
	return out
}

// Requests builds the cross product of stories and countries, copying the
// remaining fields from tmpl
func Requests(storyIDs, countries []string, tmpl pipeline.Request) []pipeline.Request {
	reqs := make([]pipeline.Request, 0, len(storyIDs)*len(countries))
	for _, id := range storyIDs {
		for _, country := range countries {
			req := tmpl
			req.StoryID = id
			req.Country = country
			reqs = append(reqs, req)
		}
	}
	return reqs
}

// ReadListFile reads story ids or country codes from a file, one per line.
// Blank lines and # comments are skipped and duplicates dropped.
func ReadListFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var items []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			items = append(items, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return items, nil
}

// Manifest summarizes one batch run
type Manifest struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Succeeded  int             `json:"succeeded"`
	Failed     int             `json:"failed"`
	Jobs       []ManifestEntry `json:"jobs"`
}

// ManifestEntry is one job in a manifest
type ManifestEntry struct {
	StoryID    string   `json:"story_id"`
	Country    string   `json:"country"`
	Files      []string `json:"files,omitempty"`
	DurationMS int64    `json:"duration_ms"`
	Error      string   `json:"error,omitempty"`
}

// NewManifest builds a manifest for results under a fresh run id
func NewManifest(results []*TranslateResult, startedAt time.Time) *Manifest {
	m := &Manifest{
		RunID:      uuid.NewString(),
		StartedAt:  startedAt.UTC(),
		FinishedAt: time.Now().UTC(),
		Jobs:       make([]ManifestEntry, 0, len(results)),
	}
	for _, r := range results {
		entry := ManifestEntry{
			StoryID:    r.StoryID,
			Country:    r.Country,
			Files:      r.Files,
			DurationMS: r.Duration.Milliseconds(),
		}
		if r.Error != nil {
			entry.Error = r.Error.Error()
			m.Failed++
		} else {
			m.Succeeded++
		}
		m.Jobs = append(m.Jobs, entry)
	}
	return m
}

// Write stores the manifest as indented JSON at path
func (m *Manifest) Write(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
