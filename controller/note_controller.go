package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/notesphere/backend/models"
	"github.com/notesphere/backend/services"
)

const userIDKey = "userID"

// RequireUser extracts the user identity injected by the fronting auth layer
// and rejects requests that arrive without one. Credential and session
// handling itself lives outside this service.
func RequireUser() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw := ctx.GetHeader("X-User-ID")
		userID, err := strconv.ParseInt(raw, 10, 64)
		if raw == "" || err != nil || userID <= 0 {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid user identity"})
			return
		}
		ctx.Set(userIDKey, userID)
		ctx.Next()
	}
}

func currentUserID(ctx *gin.Context) int64 {
	return ctx.GetInt64(userIDKey)
}

// respondError maps the service error taxonomy onto HTTP statuses. Anything
// untyped becomes a generic 500 with the given fallback message.
func respondError(ctx *gin.Context, err error, fallback string) {
	var vErr *services.ValidationError
	switch {
	case errors.Is(err, services.ErrNoteNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Note not found"})
	case errors.Is(err, services.ErrInvalidCallback):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrEmbeddingUnavailable):
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "Embedding service unavailable"})
	case errors.As(err, &vErr):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// NoteController handles the user-facing note endpoints. It depends on the
// NoteService to perform the actual business logic.
type NoteController struct {
	noteService services.NoteService
	searchLimit int
}

// NewNoteController is a constructor function that creates a new
// NoteController. This is called from main.go to inject the service
// dependency.
func NewNoteController(service services.NoteService, searchLimit int) *NoteController {
	return &NoteController{
		noteService: service,
		searchLimit: searchLimit,
	}
}

// CreateNote is the Gin handler for POST /api/notes. The note is returned as
// soon as it is persisted; enrichment arrives later over the callbacks.
func (c *NoteController) CreateNote(ctx *gin.Context) {
	var req models.NoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	note, err := c.noteService.CreateNote(ctx.Request.Context(), currentUserID(ctx), req.Text)
	if err != nil {
		respondError(ctx, err, "Failed to create note")
		return
	}
	ctx.JSON(http.StatusCreated, note)
}

// UpdateNote is the Gin handler for PUT /api/notes/:id.
func (c *NoteController) UpdateNote(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid note id"})
		return
	}

	var req models.NoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	note, err := c.noteService.UpdateNote(ctx.Request.Context(), id, currentUserID(ctx), req.Text)
	if err != nil {
		respondError(ctx, err, "Failed to update note")
		return
	}
	ctx.JSON(http.StatusOK, note)
}

// DeleteNote is the Gin handler for DELETE /api/notes/:id.
func (c *NoteController) DeleteNote(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid note id"})
		return
	}

	if err := c.noteService.DeleteNote(ctx.Request.Context(), id, currentUserID(ctx)); err != nil {
		respondError(ctx, err, "Failed to delete note")
		return
	}
	ctx.Status(http.StatusNoContent)
}

// GetNotes is the Gin handler for GET /api/notes.
func (c *NoteController) GetNotes(ctx *gin.Context) {
	notes, err := c.noteService.ListNotes(ctx.Request.Context(), currentUserID(ctx))
	if err != nil {
		respondError(ctx, err, "Failed to retrieve notes")
		return
	}
	ctx.JSON(http.StatusOK, models.ListNotesResponse{Count: len(notes), Notes: notes})
}

// SearchNotes is the Gin handler for GET /api/notes/search?q=. A blank query
// falls back to the full list; an unreachable embedding worker does not.
func (c *NoteController) SearchNotes(ctx *gin.Context) {
	notes, err := c.noteService.SearchNotes(ctx.Request.Context(), currentUserID(ctx), ctx.Query("q"), c.searchLimit)
	if err != nil {
		respondError(ctx, err, "Failed to search notes")
		return
	}
	ctx.JSON(http.StatusOK, models.ListNotesResponse{Count: len(notes), Notes: notes})
}
