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

// LiteLLMProvider calls a LiteLLM proxy's OpenAI-compatible /embeddings
// endpoint, reusing the OpenAI payload shape.
type LiteLLMProvider struct {
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewLiteLLMProvider builds a provider against a LiteLLM proxy base URL.
func NewLiteLLMProvider(baseURL, apiKey, model string, dimension int, logger zerolog.Logger) *LiteLLMProvider {
	return &LiteLLMProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

func (p *LiteLLMProvider) Dimension() int { return p.dimension }
func (p *LiteLLMProvider) Name() string   { return "litellm" }
func (p *LiteLLMProvider) Model() string  { return p.model }

func (p *LiteLLMProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var out [][]float32
	for _, batch := range batches(texts, maxBatch) {
		var vectors [][]float32
		err := retry(ctx, p.logger, p.Name(), func() error {
			v, err := p.embedOnce(ctx, batch)
			if err != nil {
				return err
			}
			vectors = v
			return nil
		})
		if err != nil {
			return nil, err
		}
		if err := validateDimensions(vectors, p.dimension); err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (p *LiteLLMProvider) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := map[string]any{
		"input":           texts,
		"model":           p.model,
		"encoding_format": "float",
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "marshaling litellm request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "creating litellm request")
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ProviderUnavailable, err, "calling litellm embeddings endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return nil, errs.New(errs.ProviderInvalid, "litellm api error (status %d): %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errs.New(errs.ProviderUnavailable, "litellm api error (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errs.Wrap(errs.ProviderUnavailable, err, "decoding litellm response")
	}

	vectors := make([][]float32, len(result.Data))
	for i, d := range result.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
