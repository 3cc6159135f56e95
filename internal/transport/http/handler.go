package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"liveclass-admin/internal/app"
	"liveclass-admin/internal/domain"
)

// SessionHeader carries the admin session id for the results endpoints.
const SessionHeader = "X-Session-ID"

const maxUploadBytes = 32 << 20

// Handler serves the dashboard actions as JSON endpoints.
type Handler struct {
	live      *app.LiveService
	results   *app.ResultsService
	questions *app.QuestionService
	settings  *app.SettingsService
	sessions  app.SessionRepository
	loc       *time.Location
}

// Services bundles what the handler drives.
type Services struct {
	Live      *app.LiveService
	Results   *app.ResultsService
	Questions *app.QuestionService
	Settings  *app.SettingsService
	Sessions  app.SessionRepository
	Location  *time.Location
}

func NewHandler(s Services) *Handler {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		live:      s.Live,
		results:   s.Results,
		questions: s.Questions,
		settings:  s.Settings,
		sessions:  s.Sessions,
		loc:       loc,
	}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/live", h.getLive)
	mux.HandleFunc("POST /api/live/start", h.startLive)
	mux.HandleFunc("POST /api/live/end", h.endLive)

	mux.HandleFunc("POST /api/results/load", h.loadResults)
	mux.HandleFunc("POST /api/results/select", h.toggleSelect)
	mux.HandleFunc("POST /api/results/select-all", h.toggleSelectAll)
	mux.HandleFunc("POST /api/results/delete", h.deleteSelected)
	mux.HandleFunc("GET /api/results/report", h.report)
	mux.HandleFunc("DELETE /api/results/session", h.dropSession)

	mux.HandleFunc("GET /api/settings/timer", h.getTimer)
	mux.HandleFunc("PUT /api/settings/timer", h.setTimer)
	mux.HandleFunc("POST /api/questions", h.uploadQuestions)
}

type startLiveRequest struct {
	Link string `json:"link"`
}

type selectRequest struct {
	ID string `json:"id"`
}

type timerRequest struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

type timerResponse struct {
	Timer int `json:"timer"`
}

type deleteResponse struct {
	Deleted     []string          `json:"deleted"`
	Failed      map[string]string `json:"failed,omitempty"`
	View        app.SelectionView `json:"view"`
	ReloadError string            `json:"reloadError,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func (h *Handler) getLive(w http.ResponseWriter, r *http.Request) {
	state, err := h.live.Current(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) startLive(w http.ResponseWriter, r *http.Request) {
	var req startLiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid request body"})
		return
	}
	state, err := h.live.StartLive(r.Context(), req.Link)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	slog.Info("live class started", "url", state.URL)
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) endLive(w http.ResponseWriter, r *http.Request) {
	archived, err := h.live.EndLive(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	slog.Info("live class ended", "archive", archived.ID, "url", archived.URL)
	writeJSON(w, http.StatusOK, archived)
}

func (h *Handler) loadResults(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "missing " + SessionHeader})
		return
	}
	session := h.sessions.GetOrCreate(id)
	if _, err := h.results.Load(r.Context(), session); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

func (h *Handler) toggleSelect(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid request body"})
		return
	}
	if _, err := session.ToggleSelect(req.ID); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session.View())
}

func (h *Handler) toggleSelectAll(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	session.ToggleSelectAll()
	writeJSON(w, http.StatusOK, session.View())
}

func (h *Handler) deleteSelected(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	requested := session.Selection()
	batch, err := h.results.DeleteSelected(r.Context(), session)
	if err != nil && !errors.Is(err, domain.ErrPartialDelete) {
		h.fail(w, r, err)
		return
	}

	resp := deleteResponse{Deleted: []string{}}
	for _, id := range requested {
		if e := batch.Outcomes[id]; e != nil {
			if resp.Failed == nil {
				resp.Failed = make(map[string]string)
			}
			resp.Failed[id] = e.Error()
			continue
		}
		resp.Deleted = append(resp.Deleted, id)
	}
	if _, loadErr := h.results.Load(r.Context(), session); loadErr != nil {
		resp.ReloadError = loadErr.Error()
	}
	resp.View = session.View()

	status := http.StatusOK
	if !batch.OK() {
		slog.Warn("partial results delete", "session", session.ID(), "failed", len(resp.Failed), "requested", len(requested))
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, resp)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	doc, err := app.RenderPrintableReport(session.Results(), h.loc)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

func (h *Handler) dropSession(w http.ResponseWriter, r *http.Request) {
	if id := r.Header.Get(SessionHeader); id != "" {
		h.sessions.Delete(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getTimer(w http.ResponseWriter, r *http.Request) {
	total, err := h.settings.Timer(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, timerResponse{Timer: total})
}

func (h *Handler) setTimer(w http.ResponseWriter, r *http.Request) {
	var req timerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid request body"})
		return
	}
	total, err := h.settings.SetTimer(r.Context(), req.Hours, req.Minutes, req.Seconds)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, timerResponse{Timer: total})
}

func (h *Handler) uploadQuestions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid multipart form"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["images"]
	options := r.MultipartForm.Value["correctOption"]

	uploads := make([]app.QuestionUpload, 0, len(headers))
	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for i, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorPayload{Message: "unable to open " + fh.Filename})
			return
		}
		opened = append(opened, f)
		opt := ""
		if i < len(options) {
			opt = options[i]
		}
		uploads = append(uploads, app.QuestionUpload{
			Filename:      fh.Filename,
			ContentType:   fh.Header.Get("Content-Type"),
			Body:          f,
			CorrectOption: opt,
		})
	}

	stored, err := h.questions.Upload(r.Context(), uploads)
	if err != nil {
		slog.Error("question upload failed", "stored", len(stored), "requested", len(uploads), "error", err)
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*app.ResultsSession, bool) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "missing " + SessionHeader})
		return nil, false
	}
	session, ok := h.sessions.Get(id)
	if !ok {
		h.fail(w, r, domain.ErrSessionNotFound)
		return nil, false
	}
	return session, true
}

// fail converts an operation error into a response; nothing here ends the process.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidLink),
		errors.Is(err, domain.ErrInvalidOption),
		errors.Is(err, domain.ErrNoQuestions),
		errors.Is(err, domain.ErrInvalidTimer):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrResultNotLoaded):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoActiveStream),
		errors.Is(err, domain.ErrEmptySelection):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPartialDelete):
		return http.StatusMultiStatus
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "error", err)
	}
}
