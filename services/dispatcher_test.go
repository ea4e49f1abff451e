package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackURL(t *testing.T) {
	d := NewDispatcher(&fakeAIClient{}, "https://notes.example.com")

	assert.Equal(t, "https://notes.example.com/api/callbacks/sentiment/7", d.CallbackURL(JobSentiment, 7))
	assert.Equal(t, "https://notes.example.com/api/callbacks/title/7", d.CallbackURL(JobTitle, 7))
	assert.Equal(t, "https://notes.example.com/api/callbacks/summary/7", d.CallbackURL(JobSummary, 7))
	assert.Equal(t, "https://notes.example.com/api/callbacks/embedding/7", d.CallbackURL(JobEmbedding, 7))
}

func TestDispatchAll_FiresEveryKindOnce(t *testing.T) {
	aiClient := &fakeAIClient{}
	d := NewDispatcher(aiClient, "http://localhost:8080")

	d.DispatchAll(3, "note content snapshot")

	jobs := aiClient.firedJobs()
	require.Len(t, jobs, 4)

	seen := make(map[JobKind]int)
	for _, job := range jobs {
		seen[job.Kind]++
		assert.Equal(t, "note content snapshot", job.Text)
		assert.Equal(t, d.CallbackURL(job.Kind, 3), job.CallbackURL)
	}
	assert.Equal(t, map[JobKind]int{JobSentiment: 1, JobTitle: 1, JobSummary: 1, JobEmbedding: 1}, seen)
}
