package services

import (
	"fmt"
	"log"
)

// JobKind names one of the four enrichment jobs and doubles as the callback
// path segment the worker posts its result back to.
type JobKind string

const (
	JobSentiment JobKind = "sentiment"
	JobTitle     JobKind = "title"
	JobSummary   JobKind = "summary"
	JobEmbedding JobKind = "embedding"
)

// Dispatcher fires the enrichment jobs for a note. Dispatch is best-effort
// and unrecorded: no job ledger exists, so a lost job simply leaves its field
// null until the note is edited and re-dispatched.
type Dispatcher struct {
	aiClient AIClient
	baseURL  string
}

// NewDispatcher creates a Dispatcher building callback URLs on baseURL, the
// publicly reachable address of this backend.
func NewDispatcher(aiClient AIClient, baseURL string) *Dispatcher {
	return &Dispatcher{
		aiClient: aiClient,
		baseURL:  baseURL,
	}
}

// CallbackURL returns the address the worker posts a kind's result back to.
func (d *Dispatcher) CallbackURL(kind JobKind, noteID int64) string {
	return fmt.Sprintf("%s/api/callbacks/%s/%d", d.baseURL, kind, noteID)
}

// DispatchAll fires the four enrichment jobs for the given content snapshot
// and returns immediately.
func (d *Dispatcher) DispatchAll(noteID int64, content string) {
	log.Printf("DISPATCH: firing enrichment jobs for note %d", noteID)
	d.aiClient.FireSentiment(content, d.CallbackURL(JobSentiment, noteID))
	d.aiClient.FireTitle(content, d.CallbackURL(JobTitle, noteID))
	d.aiClient.FireSummary(content, d.CallbackURL(JobSummary, noteID))
	d.aiClient.FireEmbedding(content, d.CallbackURL(JobEmbedding, noteID))
}
