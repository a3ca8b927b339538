// Package generation provides answer generation via an OpenAI-compatible
// chat completions endpoint.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/ragd/internal/orchestrator"
)

var (
	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrGenerationFailed indicates a failed completion request
	ErrGenerationFailed = errors.New("generation request failed")
)

const (
	defaultBaseURL     = "http://localhost:11434/v1"
	defaultModel       = "llama3.1"
	defaultMaxTokens   = 1024
	defaultTemperature = 0.2
	defaultRateLimit   = 2.0
	defaultBurst       = 4
)

// Config holds configuration for the generation client.
type Config struct {
	// BaseURL is the base URL of the chat completions API.
	BaseURL string

	// Model is the chat model to use.
	Model string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// MaxTokens caps completion length.
	MaxTokens int

	// Temperature controls sampling. Low values keep answers grounded
	// in the supplied context.
	Temperature float64

	// Timeout bounds each HTTP request.
	// Default: 60 seconds
	Timeout time.Duration

	// RateLimit is the sustained request rate in requests per second.
	// Default: 2
	RateLimit float64

	// Burst is the maximum burst size allowed by the rate limiter.
	// Default: 4
	Burst int
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.Temperature == 0 {
		c.Temperature = defaultTemperature
	}
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.RateLimit == 0 {
		c.RateLimit = defaultRateLimit
	}
	if c.Burst == 0 {
		c.Burst = defaultBurst
	}
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base URL required", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: model required", ErrInvalidConfig)
	}
	return nil
}

// Client generates answers through a chat completions endpoint. Retries
// are the caller's concern; the client makes exactly one attempt per
// Generate call, gated by a rate limiter.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a generation client with the given configuration.
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RateLimit), config.Burst),
		logger:     logger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate produces a completion for the assembled prompt.
func (c *Client) Generate(ctx context.Context, prompt orchestrator.Prompt) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	messages := make([]chatMessage, 0, 2*len(prompt.History)+2)
	if prompt.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: prompt.System})
	}
	for _, turn := range prompt.History {
		messages = append(messages,
			chatMessage{Role: "user", Content: turn.Query},
			chatMessage{Role: "assistant", Content: turn.Answer},
		)
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt.User})

	req := chatRequest{
		Model:       c.config.Model,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		Messages:    messages,
	}

	start := time.Now()
	text, err := c.doRequest(ctx, req)
	if err != nil {
		return "", err
	}

	c.logger.Debug("completion generated",
		zap.String("model", c.config.Model),
		zap.Int("messages", len(messages)),
		zap.Duration("duration", time.Since(start)),
	)

	return text, nil
}

func (c *Client) doRequest(ctx context.Context, req chatRequest) (string, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp chatError
		if jsonErr := json.Unmarshal(body, &errResp); jsonErr == nil && errResp.Error.Message != "" {
			return "", fmt.Errorf("%w: status %d: %s", ErrGenerationFailed, resp.StatusCode, errResp.Error.Message)
		}
		return "", fmt.Errorf("%w: status %d: %s", ErrGenerationFailed, resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}

	return chatResp.Choices[0].Message.Content, nil
}

var _ orchestrator.GenerationProvider = (*Client)(nil)
