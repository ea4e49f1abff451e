package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/notesphere/backend/models"
)

// ErrNotFound is returned when a note id does not exist (or, for owner-scoped
// lookups, does not belong to the given user).
var ErrNotFound = errors.New("note not found")

// NoteRepository is the persistence boundary for the note aggregate. The four
// Update* patch methods each write exactly one derived field; they never touch
// content or the other derived fields, so concurrent patches for one note
// interleave freely.
type NoteRepository interface {
	Create(ctx context.Context, note *models.Note) error
	FindByID(ctx context.Context, id int64) (*models.Note, error)
	FindByIDAndUser(ctx context.Context, id, userID int64) (*models.Note, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Note, error)

	// UpdateContentAndReset overwrites content and nulls every derived field,
	// including the embedding, in a single atomic row write.
	UpdateContentAndReset(ctx context.Context, id int64, content string) error

	UpdateSentiment(ctx context.Context, id int64, label models.Sentiment, score float64) error
	UpdateTitle(ctx context.Context, id int64, title string) error
	UpdateSummary(ctx context.Context, id int64, summary string) error
	UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error

	Delete(ctx context.Context, id int64) error

	// SearchByEmbedding returns the user's notes whose embedding sits within
	// maxDistance (cosine) of the query vector, closest first.
	SearchByEmbedding(ctx context.Context, userID int64, query []float32, maxDistance float64, limit int) ([]models.Note, error)
}

type gormNoteRepository struct {
	db *gorm.DB
}

// NewNoteRepository creates the Postgres/pgvector-backed repository.
func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &gormNoteRepository{db: db}
}

func (r *gormNoteRepository) Create(ctx context.Context, note *models.Note) error {
	if err := r.db.WithContext(ctx).Create(note).Error; err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}
	return nil
}

func (r *gormNoteRepository) FindByID(ctx context.Context, id int64) (*models.Note, error) {
	var note models.Note
	err := r.db.WithContext(ctx).First(&note, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load note %d: %w", id, err)
	}
	return &note, nil
}

func (r *gormNoteRepository) FindByIDAndUser(ctx context.Context, id, userID int64) (*models.Note, error) {
	var note models.Note
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load note %d for user %d: %w", id, userID, err)
	}
	return &note, nil
}

func (r *gormNoteRepository) ListByUser(ctx context.Context, userID int64) ([]models.Note, error) {
	notes := make([]models.Note, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notes for user %d: %w", userID, err)
	}
	return notes, nil
}

func (r *gormNoteRepository) UpdateContentAndReset(ctx context.Context, id int64, content string) error {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE notes
		 SET content = ?, title = NULL, summary = NULL,
		     sentiment_label = NULL, sentiment_score = NULL, embedding = NULL
		 WHERE id = ?`,
		content, id,
	)
	return r.patchResult(res, id, "content")
}

func (r *gormNoteRepository) UpdateSentiment(ctx context.Context, id int64, label models.Sentiment, score float64) error {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE notes SET sentiment_label = ?, sentiment_score = ? WHERE id = ?`,
		label, score, id,
	)
	return r.patchResult(res, id, "sentiment")
}

func (r *gormNoteRepository) UpdateTitle(ctx context.Context, id int64, title string) error {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE notes SET title = ? WHERE id = ?`,
		title, id,
	)
	return r.patchResult(res, id, "title")
}

func (r *gormNoteRepository) UpdateSummary(ctx context.Context, id int64, summary string) error {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE notes SET summary = ? WHERE id = ?`,
		summary, id,
	)
	return r.patchResult(res, id, "summary")
}

// UpdateEmbedding writes the vector through a typed pgvector parameter; the
// column rejects anything that is not a vector literal of the right dimension.
func (r *gormNoteRepository) UpdateEmbedding(ctx context.Context, id int64, embedding []float32) error {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE notes SET embedding = ? WHERE id = ?`,
		pgvector.NewVector(embedding), id,
	)
	return r.patchResult(res, id, "embedding")
}

func (r *gormNoteRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&models.Note{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete note %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormNoteRepository) SearchByEmbedding(ctx context.Context, userID int64, query []float32, maxDistance float64, limit int) ([]models.Note, error) {
	vec := pgvector.NewVector(query)
	notes := make([]models.Note, 0)
	err := r.db.WithContext(ctx).Raw(
		`SELECT * FROM notes
		 WHERE embedding IS NOT NULL
		   AND user_id = ?
		   AND (embedding <=> ?) <= ?
		 ORDER BY embedding <=> ?
		 LIMIT ?`,
		userID, vec, maxDistance, vec, limit,
	).Scan(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search notes by embedding: %w", err)
	}
	return notes, nil
}

func (r *gormNoteRepository) patchResult(res *gorm.DB, id int64, field string) error {
	if res.Error != nil {
		return fmt.Errorf("failed to update %s of note %d: %w", field, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
