// Package hfinference is the client for the hosted text-generation service
// consulted when the corpus yields no candidate.
package hfinference

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dkovalev/operator-kb-assistant/internal/infrastructure/resilience"
)

const defaultRequestTimeout = 30 * time.Second

// temperature/sampling are fixed: the fallback should answer, not explore.
const generationTemperature = 0.3

type Client struct {
	endpoint   string
	apiKey     string
	maxLength  int
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	RequestTimeout     time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(endpoint, apiKey string, maxLength int) *Client {
	return NewWithOptions(endpoint, apiKey, maxLength, Options{})
}

func NewWithOptions(endpoint, apiKey string, maxLength int, options Options) *Client {
	timeout := options.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	if maxLength <= 0 {
		maxLength = 500
	}
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		maxLength:  maxLength,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	MaxLength   int     `json:"max_length"`
	Temperature float64 `json:"temperature"`
	DoSample    bool    `json:"do_sample"`
}

// Generate asks the service to complete the prompt. The service answers
// either with a list of {generated_text} objects or with an arbitrary JSON
// value; the latter is passed through stringified.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	request := generateRequest{
		Inputs: prompt,
		Parameters: generateParameters{
			MaxLength:   c.maxLength,
			Temperature: generationTemperature,
			DoSample:    false,
		},
	}

	var raw json.RawMessage
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, request, &raw)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "hfinference.generate", call, classifyGenerateError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded("generate", err)
	}

	return decodeGeneratedText(raw)
}

func decodeGeneratedText(raw json.RawMessage) (string, error) {
	var candidates []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(raw, &candidates); err == nil && len(candidates) > 0 {
		return strings.TrimSpace(candidates[0].GeneratedText), nil
	}

	// Unexpected shape: keep the payload as an opaque string.
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return strings.TrimSpace(asString), nil
	}
	return strings.TrimSpace(string(raw)), nil
}
