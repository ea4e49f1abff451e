package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

// AIClient is the sole boundary to the external analysis worker. The four
// Fire* methods are fire-and-forget: they return immediately, and a transport
// failure is logged and otherwise invisible to the caller. EmbedSync is the
// one blocking call; it either returns a non-empty vector or a typed failure.
type AIClient interface {
	FireSentiment(text, callbackURL string)
	FireTitle(text, callbackURL string)
	FireSummary(text, callbackURL string)
	FireEmbedding(text, callbackURL string)
	EmbedSync(ctx context.Context, text string) ([]float32, error)
}

// analyzeRequest is the body for every worker endpoint. callback_url is set
// for fire-and-forget jobs and absent for the synchronous embedding call.
type analyzeRequest struct {
	Text        string `json:"text"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type aiClientImpl struct {
	httpClient *http.Client
	baseURL    string
}

// NewAIClient creates an AIClient against the worker at baseURL. The passed
// http.Client's timeout bounds every attempt, including the fire-and-forget
// ones; an attempt that exceeds it is abandoned, not retried.
func NewAIClient(client *http.Client, baseURL string) AIClient {
	return &aiClientImpl{
		httpClient: client,
		baseURL:    baseURL,
	}
}

func (a *aiClientImpl) FireSentiment(text, callbackURL string) {
	a.fire("/analyze", "sentiment analysis", text, callbackURL)
}

func (a *aiClientImpl) FireTitle(text, callbackURL string) {
	a.fire("/generate-title", "title generation", text, callbackURL)
}

func (a *aiClientImpl) FireSummary(text, callbackURL string) {
	a.fire("/summarize", "summarization", text, callbackURL)
}

func (a *aiClientImpl) FireEmbedding(text, callbackURL string) {
	a.fire("/generate-embedding", "embedding generation", text, callbackURL)
}

// fire posts a job to the worker in the background. Success means the request
// was handed to the transport; the result arrives later, if ever, on the
// callback URL.
func (a *aiClientImpl) fire(path, label, text, callbackURL string) {
	go func() {
		body, err := json.Marshal(analyzeRequest{Text: text, CallbackURL: callbackURL})
		if err != nil {
			log.Printf("AI-CLIENT: failed to marshal %s request: %v", label, err)
			return
		}

		resp, err := a.httpClient.Post(a.baseURL+path, "application/json", bytes.NewBuffer(body))
		if err != nil {
			log.Printf("AI-CLIENT: %s dispatch failed: %v", label, err)
			return
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode != http.StatusOK {
			log.Printf("AI-CLIENT: %s returned non-200 status: %d", label, resp.StatusCode)
			return
		}
		log.Printf("AI-CLIENT: %s job handed to worker", label)
	}()
}

// EmbedSync requests an embedding for text and blocks until the worker
// answers or the client timeout fires. Used only by the search path.
func (a *aiClientImpl) EmbedSync(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/generate-embedding", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: worker returned status %d, body: %s", ErrEmbeddingUnavailable, resp.StatusCode, string(bodyBytes))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode worker response: %v", ErrEmbeddingUnavailable, err)
	}
	if len(embedResp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: worker returned an empty vector", ErrEmbeddingUnavailable)
	}
	return embedResp.Embedding, nil
}
