package embedder

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/openmemory/openmemory/internal/model"
)

// retryBackoff is the embed_multi_sector exponential backoff schedule named
// by the specification.
var retryBackoff = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// OpenAIProvider calls OpenAI's embeddings endpoint, with a circuit breaker
// that trips on repeated 429s and client-side rate limiting.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	dim     int
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[[]float32]
}

func NewOpenAIProvider(apiKey, baseURL, modelName string, dim int, tripThreshold uint32, resetAfter time.Duration) *OpenAIProvider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	settings := gobreaker.Settings{
		Name:    "openai-embed",
		Timeout: resetAfter,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripThreshold
		},
	}
	return &OpenAIProvider{
		client:  openai.NewClient(opts...),
		model:   modelName,
		dim:     dim,
		limiter: rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		cb:      gobreaker.NewCircuitBreaker[[]float32](settings),
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) EmbedForSector(ctx context.Context, text string, sector model.Sector) ([]float32, error) {
	return p.embedOne(ctx, text)
}

func (p *OpenAIProvider) EmbedBatch(ctx context.Context, text string, sectors []model.Sector) (map[model.Sector][]float32, error) {
	v, err := p.embedOne(ctx, text)
	if err != nil {
		return nil, err
	}
	out := make(map[model.Sector][]float32, len(sectors))
	for _, s := range sectors {
		out[s] = v
	}
	return out, nil
}

func (p *OpenAIProvider) embedOne(ctx context.Context, text string) ([]float32, error) {
	return p.cb.Execute(func() ([]float32, error) {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		var lastErr error
		for attempt := 0; attempt < 3; attempt++ {
			resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
				Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
				Model: p.model,
			})
			if err == nil && len(resp.Data) > 0 {
				v64 := resp.Data[0].Embedding
				v32 := make([]float32, len(v64))
				for i, f := range v64 {
					v32[i] = float32(f)
				}
				return resizeToDim(v32, p.dim), nil
			}
			lastErr = err
			if attempt < len(retryBackoff) {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(retryBackoff[attempt]):
				}
			}
		}
		return nil, model.NewProviderError("openai", fmt.Sprintf("embedding failed after retries: %v", lastErr))
	})
}

// GeminiProvider calls Google's embedding model via google.golang.org/genai.
type GeminiProvider struct {
	client *genai.Client
	model  string
	dim    int
	cb     *gobreaker.CircuitBreaker[[]float32]
}

func NewGeminiProvider(ctx context.Context, apiKey, modelName string, dim int, tripThreshold uint32, resetAfter time.Duration) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	settings := gobreaker.Settings{
		Name:    "gemini-embed",
		Timeout: resetAfter,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripThreshold
		},
	}
	return &GeminiProvider{client: client, model: modelName, dim: dim, cb: gobreaker.NewCircuitBreaker[[]float32](settings)}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) EmbedForSector(ctx context.Context, text string, sector model.Sector) ([]float32, error) {
	return p.embedOne(ctx, text)
}

func (p *GeminiProvider) EmbedBatch(ctx context.Context, text string, sectors []model.Sector) (map[model.Sector][]float32, error) {
	v, err := p.embedOne(ctx, text)
	if err != nil {
		return nil, err
	}
	out := make(map[model.Sector][]float32, len(sectors))
	for _, s := range sectors {
		out[s] = v
	}
	return out, nil
}

func (p *GeminiProvider) embedOne(ctx context.Context, text string) ([]float32, error) {
	return p.cb.Execute(func() ([]float32, error) {
		var lastErr error
		for attempt := 0; attempt < 3; attempt++ {
			resp, err := p.client.Models.EmbedContent(ctx, p.model, genai.Text(text), nil)
			if err == nil && len(resp.Embeddings) > 0 {
				return resizeToDim(resp.Embeddings[0].Values, p.dim), nil
			}
			lastErr = err
			if attempt < len(retryBackoff) {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(retryBackoff[attempt]):
				}
			}
		}
		return nil, model.NewProviderError("gemini", fmt.Sprintf("embedding failed after retries: %v", lastErr))
	})
}
