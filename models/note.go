package models

import (
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
)

// Sentiment is the label assigned to a note by the analysis worker.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
)

// ParseSentiment maps a worker-supplied label onto a known Sentiment.
// Unknown, empty, or differently-cased labels fall back to NEUTRAL.
func ParseSentiment(label string) Sentiment {
	switch Sentiment(strings.ToUpper(strings.TrimSpace(label))) {
	case SentimentPositive:
		return SentimentPositive
	case SentimentNegative:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// Note is the aggregate record for a user note and its AI-derived fields.
// Title, Summary, SentimentLabel, SentimentScore and Embedding start out nil
// and are filled in by independent enrichment callbacks; a content edit
// resets all of them back to nil.
type Note struct {
	ID             int64            `gorm:"primaryKey" json:"id"`
	Content        string           `gorm:"type:text;not null" json:"content"`
	Title          *string          `gorm:"size:255" json:"title"`
	Summary        *string          `gorm:"type:text" json:"summary"`
	SentimentLabel *Sentiment       `gorm:"type:varchar(16)" json:"sentimentLabel"`
	SentimentScore *float64         `json:"sentimentScore"`
	Embedding      *pgvector.Vector `gorm:"type:vector(384)" json:"-"`
	UserID         int64            `gorm:"not null;index" json:"userId"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"createdAt"`
}

func (Note) TableName() string {
	return "notes"
}
