package openaiEmbedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/rulebook-rag/internal/customHttpClient"
	"github.com/akolanti/rulebook-rag/internal/rag/embedding"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// client talks to any OpenAI-compatible server (LM Studio or Ollama)
// at {baseURL}/v1/embeddings.
type client struct {
	api   openai.Client
	model string
}

func NewOpenAIEmbedder(baseURL string, model string, apiKey string) embedding.Remote {
	opts := []option.RequestOption{
		option.WithBaseURL(baseURL + "/v1/"),
		option.WithHTTPClient(customHttpClient.GetPooledClient()),
		// the Provider owns retries: one attempt, then the fallback
		option.WithMaxRetries(0),
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &client{
		api:   openai.NewClient(opts...),
		model: model,
	}
}

func (c *client) Name() string {
	return "openai-compatible"
}

func (c *client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model:          openai.EmbeddingModel(c.model),
		Input:          openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings request failed: %w", err)
	}
	if resp == nil || len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("embeddings response carried no vector")
	}

	values := resp.Data[0].Embedding
	vec := make([]float32, len(values))
	for i, v := range values {
		vec[i] = float32(v)
	}
	return vec, nil
}
