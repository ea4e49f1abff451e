package controller

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/notesphere/backend/models"
	"github.com/notesphere/backend/services"
)

// CallbackController terminates the untrusted inbound path from the analysis
// worker. Bodies are bound as loose maps so each kind can apply its own
// defaulting and coercion rules instead of failing on shape mismatches the
// worker is allowed to produce.
type CallbackController struct {
	noteService services.NoteService
}

// NewCallbackController creates a new CallbackController.
func NewCallbackController(service services.NoteService) *CallbackController {
	return &CallbackController{
		noteService: service,
	}
}

func (c *CallbackController) bind(ctx *gin.Context) (int64, map[string]interface{}, bool) {
	noteID, err := strconv.ParseInt(ctx.Param("noteId"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid note id"})
		return 0, nil, false
	}

	var payload map[string]interface{}
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid callback body: " + err.Error()})
		return 0, nil, false
	}
	return noteID, payload, true
}

// UpdateSentiment is the handler for POST /api/callbacks/sentiment/:noteId.
// An unknown or missing label defaults to NEUTRAL and a missing or
// non-numeric score defaults to 0.0; this callback never rejects its body.
func (c *CallbackController) UpdateSentiment(ctx *gin.Context) {
	noteID, payload, ok := c.bind(ctx)
	if !ok {
		return
	}

	label := models.SentimentNeutral
	if raw, ok := payload["label"].(string); ok {
		label = models.ParseSentiment(raw)
	}
	score := 0.0
	if raw, ok := payload["score"].(float64); ok {
		score = raw
	}

	note, err := c.noteService.UpdateSentiment(ctx.Request.Context(), noteID, label, score)
	if err != nil {
		respondError(ctx, err, "Failed to apply sentiment result")
		return
	}
	ctx.JSON(http.StatusOK, note)
}

// UpdateTitle is the handler for POST /api/callbacks/title/:noteId.
func (c *CallbackController) UpdateTitle(ctx *gin.Context) {
	noteID, payload, ok := c.bind(ctx)
	if !ok {
		return
	}

	title, ok := payload["title"].(string)
	if !ok {
		respondError(ctx, fmt.Errorf("%w: title is required", services.ErrInvalidCallback), "")
		return
	}

	note, err := c.noteService.UpdateTitle(ctx.Request.Context(), noteID, title)
	if err != nil {
		respondError(ctx, err, "Failed to apply title result")
		return
	}
	ctx.JSON(http.StatusOK, note)
}

// UpdateSummary is the handler for POST /api/callbacks/summary/:noteId.
func (c *CallbackController) UpdateSummary(ctx *gin.Context) {
	noteID, payload, ok := c.bind(ctx)
	if !ok {
		return
	}

	summary, ok := payload["summary"].(string)
	if !ok {
		respondError(ctx, fmt.Errorf("%w: summary is required", services.ErrInvalidCallback), "")
		return
	}

	note, err := c.noteService.UpdateSummary(ctx.Request.Context(), noteID, summary)
	if err != nil {
		respondError(ctx, err, "Failed to apply summary result")
		return
	}
	ctx.JSON(http.StatusOK, note)
}

// UpdateEmbedding is the handler for POST /api/callbacks/embedding/:noteId.
// Elements that are not numbers are dropped, not zero-filled; a missing array
// or one that is empty after coercion is rejected.
func (c *CallbackController) UpdateEmbedding(ctx *gin.Context) {
	noteID, payload, ok := c.bind(ctx)
	if !ok {
		return
	}

	embedding := coerceEmbedding(payload["embedding"])
	if len(embedding) == 0 {
		respondError(ctx, fmt.Errorf("%w: embedding must be a non-empty array of numbers", services.ErrInvalidCallback), "")
		return
	}

	note, err := c.noteService.UpdateEmbedding(ctx.Request.Context(), noteID, embedding)
	if err != nil {
		respondError(ctx, err, "Failed to apply embedding result")
		return
	}
	ctx.JSON(http.StatusOK, note)
}

// coerceEmbedding converts a raw JSON value into a float32 vector. JSON
// numbers decode as float64; anything else in the array is skipped.
func coerceEmbedding(raw interface{}) []float32 {
	values, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	embedding := make([]float32, 0, len(values))
	for _, v := range values {
		if f, ok := v.(float64); ok {
			embedding = append(embedding, float32(f))
		}
	}
	return embedding
}
