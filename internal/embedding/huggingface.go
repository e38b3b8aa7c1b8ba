package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hoofy-agent/agent-memory/internal/errs"
	"github.com/rs/zerolog"
)

const huggingFaceDefaultBase = "https://api-inference.huggingface.co/models"

// HuggingFaceProvider calls the hosted inference API, or a
// HUGGINGFACE_BASE_URL-pointed local inference server for self-hosted
// models.
type HuggingFaceProvider struct {
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewHuggingFaceProvider builds a provider. baseURL overrides the hosted
// endpoint when targeting a local inference server; pass "" to use the
// hosted API.
func NewHuggingFaceProvider(baseURL, apiKey, model string, dimension int, logger zerolog.Logger) *HuggingFaceProvider {
	if baseURL == "" {
		baseURL = huggingFaceDefaultBase
	}
	return &HuggingFaceProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		dimension:  dimension,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

func (p *HuggingFaceProvider) Dimension() int { return p.dimension }
func (p *HuggingFaceProvider) Name() string   { return "huggingface" }
func (p *HuggingFaceProvider) Model() string  { return p.model }

func (p *HuggingFaceProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
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

func (p *HuggingFaceProvider) embedOnce(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := map[string]any{
		"inputs":  texts,
		"options": map[string]any{"wait_for_model": true},
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "marshaling huggingface request")
	}

	url := fmt.Sprintf("%s/%s", p.baseURL, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, errs.Wrap(errs.Internal, err, "creating huggingface request")
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.ProviderUnavailable, err, "calling huggingface inference endpoint")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return nil, errs.New(errs.ProviderInvalid, "huggingface api error (status %d): %s", resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errs.New(errs.ProviderUnavailable, "huggingface api error (status %d): %s", resp.StatusCode, string(body))
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, errs.Wrap(errs.ProviderUnavailable, err, "decoding huggingface response")
	}
	return vectors, nil
}
