package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/openmemory/openmemory/internal/model"
	"github.com/openmemory/openmemory/internal/observability"
)

// Local is an Ollama-style HTTP embedding provider, grounded on the
// teacher's bare net/http JSON embedding client.
type Local struct {
	baseURL    string
	modelName  string
	dim        int
	httpClient *http.Client
}

func NewLocal(baseURL, modelName string, dim int) *Local {
	return &Local{
		baseURL:    baseURL,
		modelName:  modelName,
		dim:        dim,
		httpClient: observability.NewHTTPClient(&http.Client{Timeout: 30 * time.Second}),
	}
}

func (p *Local) Name() string { return "local" }

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (p *Local) EmbedForSector(ctx context.Context, text string, sector model.Sector) ([]float32, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		v, err := p.call(ctx, text)
		if err == nil {
			return resizeToDim(v, p.dim), nil
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
	return nil, model.NewProviderError("local", fmt.Sprintf("embedding failed after retries: %v", lastErr))
}

func (p *Local) EmbedBatch(ctx context.Context, text string, sectors []model.Sector) (map[model.Sector][]float32, error) {
	v, err := p.EmbedForSector(ctx, text, "")
	if err != nil {
		return nil, err
	}
	out := make(map[model.Sector][]float32, len(sectors))
	for _, s := range sectors {
		out[s] = v
	}
	return out, nil
}

func (p *Local) call(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: p.modelName, Input: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("local embed: bad status %d: %s", resp.StatusCode, observability.RedactJSON(raw))
	}
	var parsed ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Embeddings) == 0 {
		return nil, fmt.Errorf("local embed: empty response")
	}
	return parsed.Embeddings[0], nil
}
