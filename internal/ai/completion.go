package ai

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Defaults applied by callers that do not choose their own sampling parameters.
const (
	DefaultTemperature = 0.7
	HealthCheckTokens  = 1
)

// TokenUsage is the provider's own token accounting for one completion.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// CompletionResult is the provider-independent shape every completion is translated into.
type CompletionResult struct {
	Content string     `json:"content"`
	Usage   TokenUsage `json:"usage"`
	Cost    float64    `json:"cost"`
	Model   string     `json:"model"`
	Cached  bool       `json:"cached"`
}

// CompletionRequest describes one chat completion call.
type CompletionRequest struct {
	Messages    []Message
	Temperature float64
	// MaxTokens of zero leaves the limit to the provider.
	MaxTokens int
	// Extra parameters are sent upstream and take part in the cache key.
	Extra map[string]any
	// SkipCache bypasses both cache lookup and cache store.
	SkipCache bool
}

// Service wraps a Runtime with response caching, cost accounting and token counting.
// One Service is shared by every request handler.
type Service struct {
	runtime   Runtime
	model     string
	prices    *PriceTable
	cache     *ResponseCache
	tokenizer *Tokenizer
	log       *zap.Logger
}

// ServiceOptions configures a Service; zero values select defaults.
type ServiceOptions struct {
	Model     string
	Prices    *PriceTable
	Cache     *ResponseCache
	Tokenizer *Tokenizer
	Logger    *zap.Logger
}

// NewService builds a Service around rt.
func NewService(rt Runtime, opts ServiceOptions) *Service {
	s := &Service{
		runtime:   rt,
		model:     opts.Model,
		prices:    opts.Prices,
		cache:     opts.Cache,
		tokenizer: opts.Tokenizer,
		log:       opts.Logger,
	}
	if s.model == "" {
		s.model = DefaultModel
	}
	if s.prices == nil {
		s.prices = NewPriceTable()
	}
	if s.cache == nil {
		s.cache = NewResponseCache(DefaultCacheTTL, nil)
	}
	if s.tokenizer == nil {
		s.tokenizer = NewTokenizer(s.model)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// Model returns the model every completion is sent to.
func (s *Service) Model() string { return s.model }

// Prices returns the price table used for cost estimates.
func (s *Service) Prices() *PriceTable { return s.prices }

// Complete returns a cached result when an unexpired one exists for an identical call,
// and otherwise calls the provider once. Provider failures come back as *ServiceError.
func (s *Service) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	params := make(map[string]any, len(req.Extra)+2)
	for k, v := range req.Extra {
		params[k] = v
	}
	params["temperature"] = req.Temperature
	params["max_tokens"] = req.MaxTokens

	key, err := CacheKey(s.model, req.Messages, params)
	if err != nil {
		return nil, err
	}
	if !req.SkipCache {
		if res, ok := s.cache.Get(key); ok {
			s.log.Debug("completion cache hit", zap.String("key", key[:12]))
			res.Cached = true
			return &res, nil
		}
	}

	resp, err := s.runtime.Generate(ctx, GenerateRequest{
		Model:       s.model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Extra:       req.Extra,
	})
	if err != nil {
		s.log.Warn("completion failed", zap.String("model", s.model), zap.Error(err))
		return nil, &ServiceError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &ServiceError{Err: errors.New("response contained no choices")}
	}

	model := resp.Model
	if model == "" {
		model = s.model
	}
	res := CompletionResult{
		Content: resp.Choices[0].Message.Content,
		Usage: TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		Cost:  s.EstimateCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
		Model: model,
	}
	if !req.SkipCache {
		s.cache.Put(key, res)
	}
	s.log.Debug("completion",
		zap.String("model", model),
		zap.Int("input_tokens", res.Usage.InputTokens),
		zap.Int("output_tokens", res.Usage.OutputTokens),
		zap.Float64("cost", res.Cost),
	)
	return &res, nil
}

// EstimateCost prices token counts at the service model's rate.
func (s *Service) EstimateCost(inputTokens, outputTokens int) float64 {
	return s.prices.EstimateCost(s.model, inputTokens, outputTokens)
}

// CountTokens counts tokens in text for model, or for the service model when empty.
func (s *Service) CountTokens(text, model string) int {
	if model == "" {
		model = s.model
	}
	return s.tokenizer.Count(text, model)
}

// HealthCheck sends a one-token completion past the cache and reports whether it succeeded.
func (s *Service) HealthCheck(ctx context.Context) bool {
	_, err := s.Complete(ctx, CompletionRequest{
		Messages:    []Message{{Role: "user", Content: "Hi"}},
		Temperature: DefaultTemperature,
		MaxTokens:   HealthCheckTokens,
		SkipCache:   true,
	})
	return err == nil
}

// ClearCache drops all cached completions.
func (s *Service) ClearCache() { s.cache.Clear() }

// CacheStats reports cached completions by validity.
func (s *Service) CacheStats() CacheStats { return s.cache.Stats() }
