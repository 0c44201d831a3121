package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"story-graph-server/internal/config"
	"story-graph-server/internal/interfaces"
	"story-graph-server/internal/models"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const fallbackEncoding = "cl100k_base"

// --- OpenAI compatible client ---

// openAIClient реализует TextGenerator через go-openai. Подходит для OpenAI,
// OpenRouter и OpenAI-совместимого эндпоинта Gemini.
type openAIClient struct {
	client      *openaigo.Client
	model       string
	temperature float32
	tokens      *tokenCounter
	logger      *zap.Logger
}

func (c *openAIClient) GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string) (string, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		generationRequestsTotal.WithLabelValues(config.AIClientOpenAI, c.model, "error").Inc()
		return "", fmt.Errorf("%w: system prompt is empty", models.ErrGenerationFailed)
	}
	log := c.logger.With(zap.String("userID", userID), zap.String("model", c.model))

	messages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if userInput != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{Role: openaigo.ChatMessageRoleUser, Content: userInput})
	}
	c.tokens.observe(systemPrompt, userInput)

	startTime := time.Now()
	log.Debug("Sending generation request", zap.Int("systemPromptBytes", len(systemPrompt)), zap.Int("userInputBytes", len(userInput)))

	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	duration := time.Since(startTime)

	if err != nil {
		log.Error("Generation request failed", zap.Duration("duration", duration), zap.Error(err))
		generationRequestsTotal.WithLabelValues(config.AIClientOpenAI, c.model, "error").Inc()
		return "", fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		log.Warn("Generation returned an empty response", zap.Duration("duration", duration))
		generationRequestsTotal.WithLabelValues(config.AIClientOpenAI, c.model, "error_empty_response").Inc()
		return "", fmt.Errorf("%w: empty response", models.ErrGenerationFailed)
	}

	generationRequestsTotal.WithLabelValues(config.AIClientOpenAI, c.model, "success").Inc()
	generationDuration.WithLabelValues(config.AIClientOpenAI, c.model).Observe(duration.Seconds())
	log.Info("Generation response received",
		zap.Duration("duration", duration),
		zap.Int("promptTokens", resp.Usage.PromptTokens),
		zap.Int("completionTokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// --- Ollama client ---

// ollamaClient реализует TextGenerator через нативный API Ollama.
type ollamaClient struct {
	client      *api.Client
	model       string
	temperature float64
	timeout     time.Duration
	tokens      *tokenCounter
	logger      *zap.Logger
}

func newOllamaClient(cfg *config.Config, logger *zap.Logger) (*ollamaClient, error) {
	// api.NewClient ожидает URL без суффикса /v1
	baseURL := strings.TrimSuffix(strings.TrimSuffix(cfg.AIBaseURL, "/"), "/v1")
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid Ollama base URL %q: %v", models.ErrConfiguration, baseURL, err)
	}

	return &ollamaClient{
		client:      api.NewClient(parsedURL, &http.Client{Timeout: cfg.AITimeout}),
		model:       cfg.AIModel,
		temperature: cfg.AITemperature,
		timeout:     cfg.AITimeout,
		tokens:      newTokenCounter(cfg.AIModel),
		logger:      logger,
	}, nil
}

func (c *ollamaClient) GenerateText(ctx context.Context, userID string, systemPrompt string, userInput string) (string, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		generationRequestsTotal.WithLabelValues(config.AIClientOllama, c.model, "error").Inc()
		return "", fmt.Errorf("%w: system prompt is empty", models.ErrGenerationFailed)
	}
	log := c.logger.With(zap.String("userID", userID), zap.String("model", c.model))

	messages := []api.Message{{Role: "system", Content: systemPrompt}}
	if userInput != "" {
		messages = append(messages, api.Message{Role: "user", Content: userInput})
	}
	c.tokens.observe(systemPrompt, userInput)

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Format:   []byte(`"json"`),
		Options:  map[string]any{"temperature": c.temperature},
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Error("Ollama request timed out", zap.Duration("timeout", c.timeout), zap.Error(err))
		} else {
			log.Error("Ollama request failed", zap.Duration("duration", duration), zap.Error(err))
		}
		generationRequestsTotal.WithLabelValues(config.AIClientOllama, c.model, "error").Inc()
		return "", fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}
	if resp.Message.Content == "" {
		log.Warn("Ollama returned an empty response", zap.Duration("duration", duration))
		generationRequestsTotal.WithLabelValues(config.AIClientOllama, c.model, "error_empty_response").Inc()
		return "", fmt.Errorf("%w: empty response", models.ErrGenerationFailed)
	}

	generationRequestsTotal.WithLabelValues(config.AIClientOllama, c.model, "success").Inc()
	generationDuration.WithLabelValues(config.AIClientOllama, c.model).Observe(duration.Seconds())
	log.Info("Ollama response received",
		zap.Duration("duration", duration),
		zap.Int("promptTokens", resp.PromptEvalCount),
		zap.Int("completionTokens", resp.EvalCount),
	)
	return resp.Message.Content, nil
}

// --- Token estimation ---

// tokenCounter оценивает размер промпта через tiktoken. Кодировка загружается
// лениво; если она недоступна, метрика просто не пишется.
type tokenCounter struct {
	model string
	once  sync.Once
	enc   *tiktoken.Tiktoken
}

func newTokenCounter(model string) *tokenCounter {
	return &tokenCounter{model: model}
}

func (t *tokenCounter) count(texts ...string) (int, bool) {
	t.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(t.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding(fallbackEncoding)
		}
		if err == nil {
			t.enc = enc
		}
	})
	if t.enc == nil {
		return 0, false
	}
	total := 0
	for _, s := range texts {
		total += len(t.enc.Encode(s, nil, nil))
	}
	return total, true
}

func (t *tokenCounter) observe(texts ...string) {
	if n, ok := t.count(texts...); ok {
		generationPromptTokens.WithLabelValues(t.model).Observe(float64(n))
	}
}

// --- Factory ---

// NewTextGenerator выбирает реализацию по cfg.AIClientType.
func NewTextGenerator(cfg *config.Config, logger *zap.Logger) (interfaces.TextGenerator, error) {
	log := logger.Named("TextGenerator")
	switch strings.ToLower(cfg.AIClientType) {
	case config.AIClientOpenAI:
		openaiConfig := openaigo.DefaultConfig(cfg.AIAPIKey)
		openaiConfig.BaseURL = cfg.AIBaseURL
		openaiConfig.HTTPClient = &http.Client{Timeout: cfg.AITimeout}
		log.Info("Using OpenAI compatible generation client",
			zap.String("baseURL", cfg.AIBaseURL), zap.String("model", cfg.AIModel), zap.Duration("timeout", cfg.AITimeout))
		return &openAIClient{
			client:      openaigo.NewClientWithConfig(openaiConfig),
			model:       cfg.AIModel,
			temperature: float32(cfg.AITemperature),
			tokens:      newTokenCounter(cfg.AIModel),
			logger:      log,
		}, nil
	case config.AIClientOllama:
		log.Info("Using Ollama generation client",
			zap.String("baseURL", cfg.AIBaseURL), zap.String("model", cfg.AIModel), zap.Duration("timeout", cfg.AITimeout))
		return newOllamaClient(cfg, log)
	default:
		return nil, fmt.Errorf("%w: unknown AI client type %q", models.ErrConfiguration, cfg.AIClientType)
	}
}
