package models

// EventType tags every message published on the shared notes topic.
type EventType string

const (
	EventNoteCreated     EventType = "NOTE_CREATED"
	EventNoteUpdated     EventType = "NOTE_UPDATED"
	EventNoteDeleted     EventType = "NOTE_DELETED"
	EventSentimentUpdate EventType = "SENTIMENT_UPDATE"
	EventTitleUpdate     EventType = "TITLE_UPDATE"
	EventSummaryUpdate   EventType = "SUMMARY_UPDATE"
	EventEmbeddingUpdate EventType = "EMBEDDING_UPDATE"
)

// NoteUpdateMessage is the envelope delivered to every websocket subscriber,
// one message per committed mutation.
type NoteUpdateMessage struct {
	Type EventType `json:"type"`
	Note *Note     `json:"note"`
}
