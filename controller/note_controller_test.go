package controller

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/notesphere/backend/services"
)

func newNoteRouter(svc services.NoteService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	c := NewNoteController(svc, 20)
	notes := router.Group("/api/notes", RequireUser())
	notes.POST("", c.CreateNote)
	notes.GET("", c.GetNotes)
	notes.GET("/search", c.SearchNotes)
	notes.PUT("/:id", c.UpdateNote)
	notes.DELETE("/:id", c.DeleteNote)
	return router
}

func doRequest(router *gin.Engine, method, path, body, userID string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequireUser(t *testing.T) {
	router := newNoteRouter(&fakeNoteService{})

	tests := []struct {
		name   string
		userID string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"non-numeric", "alice", http.StatusUnauthorized},
		{"zero", "0", http.StatusUnauthorized},
		{"negative", "-3", http.StatusUnauthorized},
		{"valid", "7", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(router, http.MethodGet, "/api/notes", "", tt.userID)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCreateNote_Created(t *testing.T) {
	router := newNoteRouter(&fakeNoteService{})

	rec := doRequest(router, http.MethodPost, "/api/notes", `{"text":"Had a great day"}`, "7")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"content":"Had a great day"`)
}

func TestCreateNote_MissingText(t *testing.T) {
	router := newNoteRouter(&fakeNoteService{})

	rec := doRequest(router, http.MethodPost, "/api/notes", `{}`, "7")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateNote_ValidationFailure(t *testing.T) {
	svc := &fakeNoteService{err: &services.ValidationError{Field: "text", Reason: "content must be between 3 and 2000 characters"}}
	router := newNoteRouter(svc)

	rec := doRequest(router, http.MethodPost, "/api/notes", `{"text":"ab"}`, "7")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "between 3 and 2000")
}

func TestUpdateNote_NotFound(t *testing.T) {
	svc := &fakeNoteService{err: services.ErrNoteNotFound}
	router := newNoteRouter(svc)

	rec := doRequest(router, http.MethodPut, "/api/notes/99", `{"text":"new content"}`, "7")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteNote_NoContent(t *testing.T) {
	router := newNoteRouter(&fakeNoteService{})

	rec := doRequest(router, http.MethodDelete, "/api/notes/4", "", "7")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSearchNotes_EmbeddingUnavailable(t *testing.T) {
	svc := &fakeNoteService{err: fmt.Errorf("search: %w", services.ErrEmbeddingUnavailable)}
	router := newNoteRouter(svc)

	rec := doRequest(router, http.MethodGet, "/api/notes/search?q=park", "", "7")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
