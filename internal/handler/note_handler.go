package handler

import (
	"net/http"

	"github.com/go-chi/chi"
	chimw "github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"todo-service/internal/middleware"
	"todo-service/internal/service"
	"todo-service/pkg/logger"
	"todo-service/pkg/metrics"
)

// TasksPath is the single resource path; the HTTP method selects the operation
const TasksPath = "/todo/tasks"

type NoteHandler struct {
	service service.NoteService
	log     *logger.Logger
}

func NewNoteHandler(noteService service.NoteService, log *logger.Logger) *NoteHandler {
	return &NoteHandler{
		service: noteService,
		log:     log,
	}
}

// Tasks serves every method on TasksPath. Parameters come from the query
// string and, for PUT and PATCH, a form-encoded body.
func (h *NoteHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.log.WithRequestID(chimw.GetReqID(r.Context())).WithError(err).Debug("malformed form")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	resp, err := h.service.Handle(r.Context(), r.Method, r.Form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	switch body := resp.Body.(type) {
	case nil:
		w.WriteHeader(resp.Status)
	case string:
		render.Status(r, resp.Status)
		render.PlainText(w, r, body)
	default:
		render.Status(r, resp.Status)
		render.JSON(w, r, body)
	}
}

// writeError maps a service error to its status; error bodies are empty
func (h *NoteHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := service.KindOf(err)
	if kind == service.KindInternal {
		h.log.WithRequestID(chimw.GetReqID(r.Context())).WithFields(logrus.Fields{
			"method": r.Method,
			"error":  err.Error(),
		}).Error("note store failure")
	}
	w.WriteHeader(kind.StatusCode())
}

// Ping is the liveness probe
func Ping(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, "pong")
}

// NewRouter wires the note handler and the operational endpoints.
// m and healthHandler may be nil.
func NewRouter(h *NoteHandler, log *logger.Logger, m *metrics.Metrics, healthHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	if m != nil {
		r.Use(m.Middleware)
	}

	r.HandleFunc(TasksPath, h.Tasks)

	r.Get("/ping", Ping)
	if healthHandler != nil {
		r.Method(http.MethodGet, "/health", healthHandler)
	}
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	return r
}
