package googleEmbedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/rulebook-rag/internal/rag/embedding"
	"github.com/akolanti/rulebook-rag/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type client struct {
	genAi *genai.Client
	model string
	log   *logger_i.Logger
}

// NewGoogleEmbedder builds a Gemini-backed Remote for EMBEDDING_PROVIDER=google.
func NewGoogleEmbedder(ctx context.Context, modelName string, apikey string) (embedding.Remote, error) {
	if apikey == "" {
		return nil, errors.New("GOOGLE_API_KEY is required for the google embedding provider")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("creating Google embedding client: %w", err)
	}
	log := logger_i.NewLogger("google_embedding")
	log.Info("Google Embedding client created", "model", modelName)
	return &client{genAi: c, model: modelName, log: log}, nil
}

func (c *client) Name() string {
	return "gemini"
}

func (c *client) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := c.genAi.Models.EmbedContent(ctx, c.model, genai.Text(text), &genai.EmbedContentConfig{TaskType: "RETRIEVAL_DOCUMENT"})
	if err != nil {
		if rateLimited(err) {
			c.log.Warn("Gemini embedding rate limit hit", "model", c.model)
		}
		return nil, err
	}
	if result == nil || len(result.Embeddings) == 0 || result.Embeddings[0] == nil {
		return nil, errors.New("gemini returned no embeddings")
	}
	return result.Embeddings[0].Values, nil
}

func rateLimited(err error) bool {
	if s, ok := status.FromError(err); ok {
		return s.Code() == codes.ResourceExhausted
	}
	return false
}
