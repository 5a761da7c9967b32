package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todo-service/internal/health"
	"todo-service/internal/models"
	"todo-service/internal/repository"
	"todo-service/internal/service"
	"todo-service/pkg/db"
	"todo-service/pkg/logger"
	"todo-service/pkg/metrics"
)

func newTestRouter(repo repository.NoteRepository) http.Handler {
	log := logger.Discard()
	svc := service.NewNoteService(repo, nil, log)
	return NewRouter(NewNoteHandler(svc, log), log, nil, nil)
}

func do(t *testing.T, h http.Handler, method string, params url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, TasksPath+"?"+params.Encode(), nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeNote(t *testing.T, rec *httptest.ResponseRecorder) models.Note {
	t.Helper()
	var note models.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &note))
	return note
}

func TestNoteHandler_Lifecycle(t *testing.T) {
	router := newTestRouter(repository.NewMemoryNoteRepository())

	rec := do(t, router, http.MethodPut, url.Values{"user_ip": {"1.2.3.4"}, "note_text": {"buy milk"}})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "1", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	rec = do(t, router, http.MethodGet, url.Values{"user_ip": {"1.2.3.4"}, "notes_status": {"any"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"id":1,"user_ip":"1.2.3.4","note_text":"buy milk","note_status":false}`, rec.Body.String())

	rec = do(t, router, http.MethodPatch, url.Values{"note_id": {"1"}, "note_text": {"buy milk"}, "note_status": {"true"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeNote(t, rec).Done)

	rec = do(t, router, http.MethodGet, url.Values{"user_ip": {"1.2.3.4"}, "notes_status": {"complete"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.Note{ID: 1, UserIP: "1.2.3.4", Text: "buy milk", Done: true}, decodeNote(t, rec))

	rec = do(t, router, http.MethodDelete, url.Values{"note_id": {"1"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Body.String())

	rec = do(t, router, http.MethodGet, url.Values{"user_ip": {"1.2.3.4"}, "notes_status": {"any"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestNoteHandler_FormBody(t *testing.T) {
	router := newTestRouter(repository.NewMemoryNoteRepository())

	form := url.Values{"user_ip": {"10.0.0.1"}, "note_text": {"from body"}}
	req := httptest.NewRequest(http.MethodPut, TasksPath, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "1", rec.Body.String())
}

func TestNoteHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		params   url.Values
		wantCode int
	}{
		{"put text too long", http.MethodPut, url.Values{"user_ip": {"1.2.3.4"}, "note_text": {strings.Repeat("a", 129)}}, http.StatusBadRequest},
		{"put missing user_ip", http.MethodPut, url.Values{"note_text": {"x"}}, http.StatusBadRequest},
		{"get bad status", http.MethodGet, url.Values{"user_ip": {"1.2.3.4"}, "notes_status": {"invalid_message"}}, http.StatusBadRequest},
		{"get nothing stored", http.MethodGet, url.Values{"user_ip": {"1.2.3.4"}, "notes_status": {"any"}}, http.StatusNotFound},
		{"delete zero id", http.MethodDelete, url.Values{"note_id": {"0"}}, http.StatusBadRequest},
		{"patch bad status", http.MethodPatch, url.Values{"note_id": {"1"}, "note_text": {"x"}, "note_status": {"invalid_status"}}, http.StatusBadRequest},
		{"post", http.MethodPost, url.Values{}, http.StatusMethodNotAllowed},
		{"options", http.MethodOptions, url.Values{}, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(repository.NewMemoryNoteRepository())
			rec := do(t, router, tt.method, tt.params)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Empty(t, rec.Body.String())
		})
	}
}

func TestNoteHandler_PatchMissingNote(t *testing.T) {
	router := newTestRouter(repository.NewMemoryNoteRepository())

	rec := do(t, router, http.MethodPatch, url.Values{"note_id": {"42"}, "note_text": {"x"}, "note_status": {"false"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestNoteHandler_SQLRepository(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	router := newTestRouter(repository.NewNoteRepository(conn, nil, db.MySQL))

	t.Run("Create", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO todo_list_table (user_ip, note_text, note_status) VALUES (?, ?, ?)`)).
			WithArgs("1.2.3.4", "buy milk", 0).
			WillReturnResult(sqlmock.NewResult(5, 1))
		mock.ExpectCommit()

		rec := do(t, router, http.MethodPut, url.Values{"user_ip": {"1.2.3.4"}, "note_text": {"buy milk"}})
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "5", rec.Body.String())
	})

	t.Run("Get_ReturnsNewest", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "user_ip", "note_text", "note_status"}).
			AddRow(3, "1.2.3.4", "old", nil).
			AddRow(5, "1.2.3.4", "buy milk", 0)
		mock.ExpectQuery("SELECT id, user_ip, note_text, note_status FROM todo_list_table WHERE user_ip = \\? AND COALESCE").
			WithArgs("1.2.3.4").
			WillReturnRows(rows)

		rec := do(t, router, http.MethodGet, url.Values{"user_ip": {"1.2.3.4"}, "notes_status": {"uncomplete"}})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.Note{ID: 5, UserIP: "1.2.3.4", Text: "buy milk"}, decodeNote(t, rec))
	})

	t.Run("Delete_StoreFailure", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM todo_list_table WHERE id = ?`)).
			WithArgs(int64(5)).
			WillReturnError(errors.New("connection reset"))

		rec := do(t, router, http.MethodDelete, url.Values{"note_id": {"5"}})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("Create_NoInsertID", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO todo_list_table`)).
			WithArgs("1.2.3.4", "lost", 0).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		rec := do(t, router, http.MethodPut, url.Values{"user_ip": {"1.2.3.4"}, "note_text": {"lost"}})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRouter_OperationalEndpoints(t *testing.T) {
	log := logger.Discard()
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	checker := health.NewChecker("todo-service", time.Second)
	checker.Register("database", health.PingFunc(func(context.Context) error { return nil }))

	svc := service.NewNoteService(repository.NewMemoryNoteRepository(), nil, log)
	router := NewRouter(NewNoteHandler(svc, log), log, m, checker)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	do(t, router, http.MethodPost, url.Values{})

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `todo_test_requests_total{method="POST",status="405"} 1`)
}
