package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/vokinneberg/research-assistant/internal/assistant"
	"github.com/vokinneberg/research-assistant/internal/render"
	"github.com/vokinneberg/research-assistant/internal/session"
	"github.com/vokinneberg/research-assistant/internal/types"
)

// SessionCookie names the cookie carrying the session ID
const SessionCookie = "ra_session"

//go:generate mockgen -source=handlers.go -destination=mock_handlers.go -package=http

// Assistant defines the interface for a per-session query controller
type Assistant interface {
	View() assistant.View
	Submit(query string) bool
}

// Sessions defines the interface for session lookup and creation
type Sessions interface {
	Get(id string) (Assistant, bool)
	Create() (string, Assistant)
}

type storeSessions struct {
	store *session.Store
}

// FromStore exposes a session store as Sessions
func FromStore(store *session.Store) Sessions {
	return storeSessions{store: store}
}

func (s storeSessions) Get(id string) (Assistant, bool) {
	c, ok := s.store.Get(id)
	if !ok {
		return nil, false
	}
	return c, true
}

func (s storeSessions) Create() (string, Assistant) {
	return s.store.Create()
}

type Handler struct {
	sessions Sessions
}

// NewHandlers initializes handlers with dependencies
func NewHandlers(sessions Sessions) *Handler {
	return &Handler{
		sessions: sessions,
	}
}

// PageHandler renders the search page for the caller's session
func (h *Handler) PageHandler(w http.ResponseWriter, r *http.Request) {
	a := h.session(w, r)

	var buf bytes.Buffer
	if err := render.Page(&buf, a.View()); err != nil {
		slog.Error("Error rendering page", "error", err)
		errorResponse(w, http.StatusInternalServerError, "Failed to render page", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Error writing page", "error", err)
	}
}

// SearchHandler submits the posted query and sends the browser back to the page
func (h *Handler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if err := r.ParseForm(); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid form body", err)
		return
	}

	a := h.session(w, r)
	if !a.Submit(r.PostFormValue("query")) {
		slog.Debug("Empty query ignored")
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// StateHandler returns the caller's page state as JSON. It never starts a
// session; callers without one get the idle state.
func (h *Handler) StateHandler(w http.ResponseWriter, r *http.Request) {
	view := assistant.View{State: assistant.Idle{}}
	if a, ok := h.lookup(r); ok {
		view = a.View()
	}

	response := types.StateResponse{
		Status: view.State.Status(),
		Query:  view.Query,
	}
	switch s := view.State.(type) {
	case assistant.Success:
		response.Result = s.Result
	case assistant.Failed:
		response.Error = s.Message
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// session returns the caller's assistant, starting a new session when the
// cookie is missing or stale
func (h *Handler) session(w http.ResponseWriter, r *http.Request) Assistant {
	if a, ok := h.lookup(r); ok {
		return a
	}

	id, a := h.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return a
}

// lookup returns the caller's assistant without creating a session
func (h *Handler) lookup(r *http.Request) (Assistant, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}
	return h.sessions.Get(cookie.Value)
}

func errorResponse(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errorMsg := message
	if err != nil {
		errorMsg = fmt.Sprintf("%s: %v", message, err)
	}

	if err := json.NewEncoder(w).Encode(types.ErrorResponse{
		Error:   http.StatusText(status),
		Message: errorMsg,
	}); err != nil {
		slog.Error("Error encoding error response", "error", err, "status", status)
	}
}
