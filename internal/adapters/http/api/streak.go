package api

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/okian/streakcard/internal/adapters/render"
	"github.com/okian/streakcard/pkg/logger"
)

const noStoreCacheControl = "no-store, no-cache, must-revalidate, proxy-revalidate"

// StreakHandler serves per-user streak summaries and cards.
type StreakHandler struct {
	deps     Dependencies
	renderer CardRenderer
	clock    func() time.Time
	logger   logger.Logger
}

// NewStreakHandler creates a new streak handler.
func NewStreakHandler(deps Dependencies, renderer CardRenderer, clock func() time.Time, l logger.Logger) *StreakHandler {
	return &StreakHandler{deps: deps, renderer: renderer, clock: clock, logger: l}
}

// HandleRoot handles GET / requests.
func (h *StreakHandler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "GitHub Streak API is running!"})
}

// HandleGetStreak handles GET /streak/{username} requests.
func (h *StreakHandler) HandleGetStreak(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		writeFailure(w, badRequest("missing username"))
		return
	}
	sum, err := h.deps.Summary(r.Context(), username)
	if err != nil {
		h.logFailure(r.Context(), "streak lookup failed", username, err)
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// HandleGetImage handles GET /streak/{username}/image requests.
func (h *StreakHandler) HandleGetImage(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		writeFailure(w, badRequest("missing username"))
		return
	}
	q := r.URL.Query()
	format, err := render.ParseFormat(q.Get("format"))
	if err != nil {
		writeFailure(w, err)
		return
	}

	sum, err := h.deps.Summary(r.Context(), username)
	if err != nil {
		h.logFailure(r.Context(), "streak lookup failed", username, err)
		writeFailure(w, err)
		return
	}

	// Render into memory so a failure can still produce a JSON error.
	var buf bytes.Buffer
	card := render.Card{
		Username: sum.Username,
		Result:   sum.Result(),
		Now:      h.clock(),
		Theme:    q.Get("theme"),
		Lang:     q.Get("lang"),
	}
	contentType, err := h.renderer.Render(&buf, card, format)
	if err != nil {
		h.logFailure(r.Context(), "card render failed", username, err)
		writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", noStoreCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// HandleThemes handles GET /themes requests.
func (h *StreakHandler) HandleThemes(w http.ResponseWriter, _ *http.Request) {
	names := render.ThemeNames()
	themes := make([]render.Theme, 0, len(names))
	for _, name := range names {
		t, _ := render.LookupTheme(name)
		themes = append(themes, t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"default": render.DefaultTheme, "themes": themes})
}

// HandleLanguages handles GET /languages requests.
func (h *StreakHandler) HandleLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"default": render.DefaultLanguage, "languages": render.LanguageCodes()})
}

func (h *StreakHandler) logFailure(ctx context.Context, msg, username string, err error) {
	logFailure(ctx, h.logger, msg, err, logger.String("username", username))
}
