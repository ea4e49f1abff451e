package models

// ListNotesResponse is the structure for endpoints returning multiple notes.
type ListNotesResponse struct {
	Count int    `json:"count"`
	Notes []Note `json:"notes"`
}
