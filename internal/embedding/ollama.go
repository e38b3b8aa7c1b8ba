package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/rs/zerolog"
)

// OllamaProvider calls a local Ollama server's embeddings endpoint. No
// API key: Ollama is a local, unauthenticated inference process.
type OllamaProvider struct {
	baseURL    string
	model      string
	dimension  int
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewOllamaProvider builds a provider against baseURL (typically
// http://localhost:11434).
func NewOllamaProvider(baseURL, model string, dimension int, logger zerolog.Logger) *OllamaProvider {
	return &OllamaProvider{
		baseURL:    baseURL,
		model:      model,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

func (p *OllamaProvider) Dimension() int { return p.dimension }
func (p *OllamaProvider) Name() string   { return "ollama" }
func (p *OllamaProvider) Model() string  { return p.model }

// Embed calls /api/embeddings once per text: Ollama's embeddings API does
// not accept a batch of inputs in one request.
func (p *OllamaProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		var vector []float32
		err := retry(ctx, p.logger, p.Name(), func() error {
			v, err := p.embedOnce(ctx, text)
			if err != nil {
				return err
			}
			vector = v
			return nil
		})
		if err != nil {
			return nil, err
		}
		out = append(out, vector)
	}
	if err := validateDimensions(out, p.dimension); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *OllamaProvider) embedOnce(ctx context.Context, text string) ([]float32, error) {
	reqBody := map[string]any{"model": p.model, "prompt": text}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "marshaling ollama request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "creating ollama request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ProviderUnavailable, err, "calling ollama embeddings endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errs.New(errs.ProviderUnavailable, "ollama api error (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errs.Wrap(errs.ProviderUnavailable, err, "decoding ollama response")
	}
	return result.Embedding, nil
}
