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

// CohereProvider calls Cohere's embed endpoint.
type CohereProvider struct {
	apiKey     string
	model      string
	dimension  int
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewCohereProvider builds a provider. dimension is supplied by the
// caller (Cohere reports it per-model at runtime, not by a fixed table
// the way OpenAI does) and validated against every response.
func NewCohereProvider(apiKey, model string, dimension int, logger zerolog.Logger) *CohereProvider {
	return &CohereProvider{
		apiKey:     apiKey,
		model:      model,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

func (p *CohereProvider) Dimension() int { return p.dimension }
func (p *CohereProvider) Name() string   { return "cohere" }
func (p *CohereProvider) Model() string  { return p.model }

func (p *CohereProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
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

func (p *CohereProvider) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := map[string]any{
		"texts":      texts,
		"model":      p.model,
		"input_type": "search_document",
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "marshaling cohere request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.cohere.ai/v1/embed", bytes.NewReader(data))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "creating cohere request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ProviderUnavailable, err, "calling cohere embed endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return nil, errs.New(errs.ProviderInvalid, "cohere api error (status %d): %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errs.New(errs.ProviderUnavailable, "cohere api error (status %d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errs.Wrap(errs.ProviderUnavailable, err, "decoding cohere response")
	}
	return result.Embeddings, nil
}
