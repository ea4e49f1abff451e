package models

// NoteRequest carries the user-supplied content for create and edit.
// Length and blank checks happen in the service layer so they produce a
// typed validation failure instead of a binding error.
type NoteRequest struct {
	Text string `json:"text" binding:"required"`
}
