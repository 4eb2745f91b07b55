// Package server exposes translated stories over a JSON HTTP API for the
// rendering layer.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ppiankov/ifhere/internal/locale"
	"github.com/ppiankov/ifhere/internal/model"
	"github.com/ppiankov/ifhere/internal/pipeline"
	"github.com/ppiankov/ifhere/internal/refdata"
)

// Translator renders one story for one country
type Translator interface {
	Translate(req pipeline.Request) (*model.TranslatedStory, error)
}

// StoryLister lists the available stories
type StoryLister interface {
	List() []*model.Story
}

// Server serves the story API
type Server struct {
	translator Translator
	stories    StoryLister
	ref        refdata.Provider
	defaults   model.TranslateConfig
	renderer   *pipeline.Renderer
	logger     *slog.Logger
}

// New creates a server. defaults supplies values for omitted query parameters.
func New(translator Translator, stories StoryLister, ref refdata.Provider, defaults model.TranslateConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		translator: translator,
		stories:    stories,
		ref:        ref,
		defaults:   defaults,
		renderer:   pipeline.NewRenderer(),
		logger:     logger,
	}
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/countries", s.handleCountries)
		r.Get("/stories", s.handleStories)
		r.Get("/stories/{id}", s.handleStory)
	})

	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, cfg model.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// countryInfo is the public view of a country
type countryInfo struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Population int64  `json:"population"`
	Currency   string `json:"currency"`
}

func (s *Server) handleCountries(w http.ResponseWriter, _ *http.Request) {
	codes := s.ref.Countries()
	out := make([]countryInfo, 0, len(codes))
	for _, code := range codes {
		c := s.ref.Context(code).Country
		out = append(out, countryInfo{Code: c.Code, Name: c.Name, Population: c.Population, Currency: c.Currency})
	}
	writeJSON(w, http.StatusOK, out)
}

// storyInfo is a story listing entry
type storyInfo struct {
	ID       string   `json:"id"`
	Country  string   `json:"source_country"`
	Date     string   `json:"date,omitempty"`
	Severity string   `json:"severity,omitempty"`
	Verified bool     `json:"verified"`
	Tags     []string `json:"tags,omitempty"`
}

func (s *Server) handleStories(w http.ResponseWriter, _ *http.Request) {
	stories := s.stories.List()
	out := make([]storyInfo, 0, len(stories))
	for _, st := range stories {
		out = append(out, storyInfo{
			ID:       st.ID,
			Country:  st.SourceCountry(),
			Date:     st.Date,
			Severity: st.Severity,
			Verified: st.Verified,
			Tags:     st.Tags,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	contextualize, err := boolParam(q.Get("contextualize"), s.defaults.Contextualize)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "contextualize must be a boolean")
		return
	}
	inline, err := boolParam(q.Get("inline"), s.defaults.InlineComparisons)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "inline must be a boolean")
		return
	}
	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatJSON
	}
	if !pipeline.ValidFormat(format) {
		writeError(w, http.StatusBadRequest, "bad_request", "format must be json, md or html")
		return
	}

	lang := q.Get("lang")
	switch {
	case lang != "":
		lang = locale.Match(lang)
	case r.Header.Get("Accept-Language") != "":
		lang = locale.MatchAccept(r.Header.Get("Accept-Language"))
	default:
		lang = s.defaults.DefaultLanguage
	}

	ts, err := s.translator.Translate(pipeline.Request{
		StoryID:           chi.URLParam(r, "id"),
		Country:           q.Get("country"),
		Language:          lang,
		Contextualize:     contextualize,
		InlineComparisons: inline,
	})
	if err != nil {
		s.writeTranslateError(w, r, err)
		return
	}

	switch format {
	case pipeline.FormatMarkdown:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	case pipeline.FormatHTML:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	default:
		writeJSON(w, http.StatusOK, ts)
		return
	}
	if err := s.renderer.Render(w, ts, format); err != nil {
		s.logger.Error("render failed", "story", ts.ID, "format", format, "error", err)
	}
}

func (s *Server) writeTranslateError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, model.ErrStoryNotFound) {
		writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	var me *model.MarkerError
	if errors.As(err, &me) {
		s.logger.Warn("translation failed", "request_id", chimw.GetReqID(r.Context()), "error", err)
		writeError(w, http.StatusUnprocessableEntity, errorCode(me.Kind), err.Error())
		return
	}
	s.logger.Error("translation failed", "request_id", chimw.GetReqID(r.Context()), "error", err)
	writeError(w, http.StatusInternalServerError, "internal_error", "translation failed")
}

// errorCode maps a translation sentinel to a stable API code
func errorCode(kind error) string {
	switch {
	case errors.Is(kind, model.ErrMalformedDocument):
		return "malformed_document"
	case errors.Is(kind, model.ErrUnknownMarkerKey):
		return "unknown_marker_key"
	case errors.Is(kind, model.ErrUnresolvedReference):
		return "unresolved_reference"
	case errors.Is(kind, model.ErrEmptyCandidatePool):
		return "empty_candidate_pool"
	case errors.Is(kind, model.ErrUnknownModifier):
		return "unknown_modifier"
	default:
		return "translation_error"
	}
}

func boolParam(raw string, def bool) (bool, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.ParseBool(raw)
}

// errorResponse is the API error envelope
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}
