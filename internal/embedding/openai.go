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

// openAIDimensions maps each supported model to its output vector width.
var openAIDimensions = map[string]int{
	"text-embedding-3-large": 3072,
	"text-embedding-3-small": 1536,
	"text-embedding-ada-002": 1536,
}

// OpenAIProvider calls OpenAI's embeddings endpoint directly over HTTP,
// without going through a client SDK.
type OpenAIProvider struct {
	apiKey     string
	model      string
	dimension  int
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewOpenAIProvider builds a provider for model, defaulting unknown
// models to dimension 1536 with a logged warning.
func NewOpenAIProvider(apiKey, model string, logger zerolog.Logger) *OpenAIProvider {
	dim, ok := openAIDimensions[model]
	if !ok {
		dim = 1536
		logger.Warn().Str("model", model).Int("default_dimension", 1536).Msg("unknown_openai_model_dimension")
	}
	return &OpenAIProvider{
		apiKey:     apiKey,
		model:      model,
		dimension:  dim,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

func (p *OpenAIProvider) Dimension() int { return p.dimension }
func (p *OpenAIProvider) Name() string   { return "openai" }
func (p *OpenAIProvider) Model() string  { return p.model }

// Embed batches texts (100 per request) and returns their vectors in
// input order.
func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
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

func (p *OpenAIProvider) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := map[string]any{
		"input":           texts,
		"model":           p.model,
		"encoding_format": "float",
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "marshaling openai request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.openai.com/v1/embeddings", bytes.NewReader(data))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "creating openai request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ProviderUnavailable, err, "calling openai embeddings endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return nil, errs.New(errs.ProviderInvalid, "openai api error (status %d): %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errs.New(errs.ProviderUnavailable, "openai api error (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errs.Wrap(errs.ProviderUnavailable, err, "decoding openai response")
	}

	vectors := make([][]float32, len(result.Data))
	for i, d := range result.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
