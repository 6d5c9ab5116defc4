package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/quillhq/promptforge/pkg/apperr"
)

// HTTPGenerator calls an OpenAI-compatible chat-completions endpoint.
// Model routing mirrors tarsy's env-var-driven LLM client configuration
// (GEMINI_MODEL/GEMINI_TEMPERATURE/GEMINI_MAX_TOKENS style), adapted to
// a model-key -> base-URL/API-key map since promptforge genomes carry
// their own model_key rather than a single process-wide model.
type HTTPGenerator struct {
	Client  *http.Client
	Models  map[string]ModelEndpoint // model_key -> endpoint
	Default ModelEndpoint            // used when model_key has no entry
}

// ModelEndpoint is one chat-completions backend.
type ModelEndpoint struct {
	BaseURL string
	APIKey  string
	Model   string
}

// NewHTTPGenerator builds a generator with a sane client timeout.
func NewHTTPGenerator(models map[string]ModelEndpoint, def ModelEndpoint) *HTTPGenerator {
	return &HTTPGenerator{
		Client:  &http.Client{Timeout: 60 * time.Second},
		Models:  models,
		Default: def,
	}
}

// ModelEndpointsFromEnv builds model endpoints from PROMPTFORGE_<KEY>_BASE_URL
// / _API_KEY / _MODEL environment variables, one set per configured model
// key, falling back to OPENAI_BASE_URL/OPENAI_API_KEY/OPENAI_MODEL for the
// default endpoint.
func ModelEndpointsFromEnv(modelKeys []string) (map[string]ModelEndpoint, ModelEndpoint) {
	endpoints := make(map[string]ModelEndpoint, len(modelKeys))
	for _, key := range modelKeys {
		endpoints[key] = ModelEndpoint{
			BaseURL: envOrDefault("PROMPTFORGE_"+key+"_BASE_URL", "https://api.openai.com/v1"),
			APIKey:  os.Getenv("PROMPTFORGE_" + key + "_API_KEY"),
			Model:   envOrDefault("PROMPTFORGE_"+key+"_MODEL", key),
		}
	}
	def := ModelEndpoint{
		BaseURL: envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		Model:   envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
	}
	return endpoints, def
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	N           int           `json:"n"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// Generate implements Generator over the chat-completions HTTP API.
func (h *HTTPGenerator) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	ep, ok := h.Models[req.ModelKey]
	if !ok {
		ep = h.Default
	}

	n := req.NSamples
	if n <= 0 {
		n = 1
	}

	body, err := json.Marshal(chatRequest{
		Model:       ep.Model,
		Messages:    []chatMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		N:           n,
	})
	if err != nil {
		return GenerateResponse{}, apperr.Wrap(apperr.KindInternal, err, "marshal generate request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return GenerateResponse{}, apperr.Wrap(apperr.KindInternal, err, "build generate request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if ep.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+ep.APIKey)
	}

	resp, err := h.Client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return GenerateResponse{}, apperr.Wrap(apperr.KindGeneratorTimeout, err, "generator call timed out")
		}
		return GenerateResponse{}, apperr.Wrap(apperr.KindGeneratorUnavailable, err, "generator call failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return GenerateResponse{}, apperr.Wrap(apperr.KindGeneratorUnavailable, err, "read generator response")
	}
	if resp.StatusCode >= 500 {
		return GenerateResponse{}, apperr.New(apperr.KindGeneratorUnavailable, fmt.Sprintf("generator returned %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return GenerateResponse{}, apperr.New(apperr.KindInvalidInput, fmt.Sprintf("generator rejected request: %d", resp.StatusCode))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return GenerateResponse{}, apperr.Wrap(apperr.KindInvalidOutput, err, "decode generator response")
	}

	texts := make([]string, 0, len(parsed.Choices))
	for _, c := range parsed.Choices {
		texts = append(texts, c.Message.Content)
	}

	return GenerateResponse{
		Texts:     texts,
		TokensIn:  parsed.Usage.PromptTokens,
		TokensOut: parsed.Usage.CompletionTokens,
	}, nil
}
