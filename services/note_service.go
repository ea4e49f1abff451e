package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/semaphore"

	"github.com/notesphere/backend/models"
	"github.com/notesphere/backend/repository"
)

// Content length bounds for create and edit.
const (
	MinContentChars = 3
	MaxContentChars = 2000
)

const defaultSearchLimit = 10

// Broadcaster publishes note mutations to every connected observer. A failed
// or slow delivery never propagates back to the storage operation.
type Broadcaster interface {
	Broadcast(eventType models.EventType, note *models.Note)
}

// NoteService interface defines the aggregate operations over notes.
type NoteService interface {
	CreateNote(ctx context.Context, userID int64, text string) (*models.Note, error)
	UpdateNote(ctx context.Context, id, userID int64, text string) (*models.Note, error)
	DeleteNote(ctx context.Context, id, userID int64) error
	ListNotes(ctx context.Context, userID int64) ([]models.Note, error)
	SearchNotes(ctx context.Context, userID int64, query string, limit int) ([]models.Note, error)

	UpdateSentiment(ctx context.Context, noteID int64, label models.Sentiment, score float64) (*models.Note, error)
	UpdateTitle(ctx context.Context, noteID int64, title string) (*models.Note, error)
	UpdateSummary(ctx context.Context, noteID int64, summary string) (*models.Note, error)
	UpdateEmbedding(ctx context.Context, noteID int64, embedding []float32) (*models.Note, error)
}

// noteServiceImpl holds the dependencies it needs to do its job.
type noteServiceImpl struct {
	repo        repository.NoteRepository
	broadcaster Broadcaster
	dispatcher  *Dispatcher
	aiClient    AIClient
	storagePool *semaphore.Weighted
	maxDistance float64
}

// NewNoteService creates a new note service instance. poolSize bounds how
// many storage operations run at once so a slow database cannot stall every
// request-handling goroutine.
func NewNoteService(
	repo repository.NoteRepository,
	broadcaster Broadcaster,
	dispatcher *Dispatcher,
	aiClient AIClient,
	maxDistance float64,
	poolSize int64,
) NoteService {
	if poolSize < 1 {
		poolSize = 1
	}
	return &noteServiceImpl{
		repo:        repo,
		broadcaster: broadcaster,
		dispatcher:  dispatcher,
		aiClient:    aiClient,
		storagePool: semaphore.NewWeighted(poolSize),
		maxDistance: maxDistance,
	}
}

// withStorageSlot runs fn under the bounded storage pool.
func (s *noteServiceImpl) withStorageSlot(ctx context.Context, fn func() error) error {
	if err := s.storagePool.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("failed to acquire storage slot: %w", err)
	}
	defer s.storagePool.Release(1)
	return fn()
}

func validateContent(text string) error {
	if strings.TrimSpace(text) == "" {
		return &ValidationError{Field: "text", Reason: "content cannot be blank"}
	}
	length := utf8.RuneCountInString(text)
	if length < MinContentChars || length > MaxContentChars {
		return &ValidationError{
			Field:  "text",
			Reason: fmt.Sprintf("content must be between %d and %d characters", MinContentChars, MaxContentChars),
		}
	}
	return nil
}

// CreateNote persists a note with every derived field null and returns it
// without waiting for enrichment. The creation event and the four job fires
// happen before the call returns, but the fires never block on the worker.
func (s *noteServiceImpl) CreateNote(ctx context.Context, userID int64, text string) (*models.Note, error) {
	if err := validateContent(text); err != nil {
		return nil, err
	}

	note := &models.Note{Content: text, UserID: userID}
	if err := s.withStorageSlot(ctx, func() error {
		return s.repo.Create(ctx, note)
	}); err != nil {
		return nil, fmt.Errorf("could not persist note: %w", err)
	}

	log.Printf("SERVICE: created note %d for user %d", note.ID, userID)
	s.broadcaster.Broadcast(models.EventNoteCreated, note)
	s.dispatcher.DispatchAll(note.ID, note.Content)
	return note, nil
}

// UpdateNote overwrites content and resets title, summary, sentiment and the
// embedding in one atomic row write, then re-dispatches enrichment for the
// new content. Callbacks still in flight for the old content are not fenced
// off; they apply whenever they arrive.
func (s *noteServiceImpl) UpdateNote(ctx context.Context, id, userID int64, text string) (*models.Note, error) {
	if err := validateContent(text); err != nil {
		return nil, err
	}

	var note *models.Note
	err := s.withStorageSlot(ctx, func() error {
		if _, err := s.repo.FindByIDAndUser(ctx, id, userID); err != nil {
			return err
		}
		if err := s.repo.UpdateContentAndReset(ctx, id, text); err != nil {
			return err
		}
		var err error
		note, err = s.repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("could not update note %d: %w", id, err)
	}

	log.Printf("SERVICE: updated note %d, derived fields reset", id)
	s.broadcaster.Broadcast(models.EventNoteUpdated, note)
	s.dispatcher.DispatchAll(note.ID, note.Content)
	return note, nil
}

// DeleteNote removes the note and its embedding and broadcasts the last
// snapshot of the deleted note.
func (s *noteServiceImpl) DeleteNote(ctx context.Context, id, userID int64) error {
	var note *models.Note
	err := s.withStorageSlot(ctx, func() error {
		var err error
		note, err = s.repo.FindByIDAndUser(ctx, id, userID)
		if err != nil {
			return err
		}
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			return err
		}
		return fmt.Errorf("could not delete note %d: %w", id, err)
	}

	log.Printf("SERVICE: deleted note %d", id)
	s.broadcaster.Broadcast(models.EventNoteDeleted, note)
	return nil
}

func (s *noteServiceImpl) ListNotes(ctx context.Context, userID int64) ([]models.Note, error) {
	var notes []models.Note
	err := s.withStorageSlot(ctx, func() error {
		var err error
		notes, err = s.repo.ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("could not list notes for user %d: %w", userID, err)
	}
	return notes, nil
}

// SearchNotes ranks the user's notes by similarity to the query. A blank
// query returns the full unranked list. An embedding failure surfaces as
// ErrEmbeddingUnavailable; there is no silent fallback to the unranked list.
func (s *noteServiceImpl) SearchNotes(ctx context.Context, userID int64, query string, limit int) ([]models.Note, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if strings.TrimSpace(query) == "" {
		return s.ListNotes(ctx, userID)
	}

	vector, err := s.aiClient.EmbedSync(ctx, query)
	if err != nil {
		return nil, err
	}

	var notes []models.Note
	err = s.withStorageSlot(ctx, func() error {
		var err error
		notes, err = s.repo.SearchByEmbedding(ctx, userID, vector, s.maxDistance, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("could not search notes for user %d: %w", userID, err)
	}
	log.Printf("SERVICE: semantic search returned %d notes for user %d", len(notes), userID)
	return notes, nil
}

// UpdateSentiment applies a sentiment callback result and broadcasts the
// change. Like every patch, it is applied unconditionally: no version token
// guards against a result computed from since-edited content.
func (s *noteServiceImpl) UpdateSentiment(ctx context.Context, noteID int64, label models.Sentiment, score float64) (*models.Note, error) {
	note, err := s.applyPatch(ctx, noteID, "sentiment", func() error {
		return s.repo.UpdateSentiment(ctx, noteID, label, score)
	})
	if err != nil {
		return nil, err
	}
	s.broadcaster.Broadcast(models.EventSentimentUpdate, note)
	return note, nil
}

// UpdateTitle applies a title callback result and broadcasts the change.
func (s *noteServiceImpl) UpdateTitle(ctx context.Context, noteID int64, title string) (*models.Note, error) {
	note, err := s.applyPatch(ctx, noteID, "title", func() error {
		return s.repo.UpdateTitle(ctx, noteID, title)
	})
	if err != nil {
		return nil, err
	}
	s.broadcaster.Broadcast(models.EventTitleUpdate, note)
	return note, nil
}

// UpdateSummary applies a summary callback result and broadcasts the change.
func (s *noteServiceImpl) UpdateSummary(ctx context.Context, noteID int64, summary string) (*models.Note, error) {
	note, err := s.applyPatch(ctx, noteID, "summary", func() error {
		return s.repo.UpdateSummary(ctx, noteID, summary)
	})
	if err != nil {
		return nil, err
	}
	s.broadcaster.Broadcast(models.EventSummaryUpdate, note)
	return note, nil
}

// UpdateEmbedding applies an embedding callback result and broadcasts the
// change. The vector reaches the row as a typed vector literal.
func (s *noteServiceImpl) UpdateEmbedding(ctx context.Context, noteID int64, embedding []float32) (*models.Note, error) {
	note, err := s.applyPatch(ctx, noteID, "embedding", func() error {
		return s.repo.UpdateEmbedding(ctx, noteID, embedding)
	})
	if err != nil {
		return nil, err
	}
	s.broadcaster.Broadcast(models.EventEmbeddingUpdate, note)
	return note, nil
}

// applyPatch runs one single-field write under the storage pool and reloads
// the note for the broadcast and the callback response.
func (s *noteServiceImpl) applyPatch(ctx context.Context, noteID int64, field string, write func() error) (*models.Note, error) {
	var note *models.Note
	err := s.withStorageSlot(ctx, func() error {
		if err := write(); err != nil {
			return err
		}
		var err error
		note, err = s.repo.FindByID(ctx, noteID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNoteNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("could not apply %s patch to note %d: %w", field, noteID, err)
	}
	log.Printf("SERVICE: applied %s patch to note %d", field, noteID)
	return note, nil
}
