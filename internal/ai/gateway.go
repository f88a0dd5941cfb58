// Package ai is the single path from use cases to the hosted completion service.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/careerboost/internal/ai/recovery"
	"github.com/spigell/careerboost/internal/logger"
	"github.com/spigell/careerboost/internal/utils"
)

const (
	DefaultPromptLimit     = 10_000
	DefaultSystemLimit     = 2_000
	DefaultMaxOutputTokens = 800
	DefaultTimeout         = 30 * time.Second

	defaultMaxLogLength = 200
	pingPrompt          = "Say only the word: ok"
	pingSystem          = "You are a test."
)

// Request is what a provider receives for one completion.
type Request struct {
	Prompt            string
	SystemInstruction string
	Temperature       float32
	Structured        bool
	MaxOutputTokens   int
	Timeout           time.Duration
}

// Completer is implemented by every completion provider.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
	Model() string
}

// Invoker is the contract use cases depend on.
type Invoker interface {
	Invoke(ctx context.Context, prompt, system string, temperature float32, structured bool) Result
}

// Config tunes the gateway limits. Zero values fall back to the defaults.
type Config struct {
	Provider        string
	MaxOutputTokens int
	Timeout         time.Duration
	MaxLogLength    int
}

// Gateway applies sanitization, truncation, timeout and output recovery around a Completer.
// It never returns an error: every call yields a Result.
type Gateway struct {
	completer       Completer
	maxOutputTokens int
	timeout         time.Duration
	maxLogLen       int
	logger          *zap.Logger
}

func NewGateway(completer Completer, cfg Config, log *zap.Logger) *Gateway {
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}

	model := ""
	if completer != nil {
		model = completer.Model()
	}

	return &Gateway{
		completer:       completer,
		maxOutputTokens: cfg.MaxOutputTokens,
		timeout:         cfg.Timeout,
		maxLogLen:       cfg.MaxLogLength,
		logger:          logger.WithCommonFields(log, cfg.Provider, model),
	}
}

// Invoke sends one prompt to the provider. In structured mode the output must
// recover into a JSON object, otherwise the result is an invalid_json_from_llm failure.
func (g *Gateway) Invoke(ctx context.Context, prompt, system string, temperature float32, structured bool) Result {
	req := g.buildRequest(prompt, system, temperature, structured)

	if n := utf8.RuneCountInString(prompt); n > DefaultPromptLimit {
		g.logger.Warn("prompt truncated", zap.Int("prompt_length", n), zap.Int("limit", DefaultPromptLimit))
	}

	g.logger.Debug("llm request",
		zap.Bool("structured", structured),
		zap.Int("prompt_length", utf8.RuneCountInString(req.Prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(req.Prompt, g.maxLogLen)),
	)

	raw, err := g.complete(ctx, req)
	if err != nil {
		g.logger.Warn("llm call failed", zap.Error(err))
		return Failed(&Failure{Kind: FailureTransport, Message: err.Error()})
	}

	g.logger.Debug("llm response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, g.maxLogLen)),
	)

	if !structured {
		return Success(raw, nil)
	}

	obj, err := recovery.Recover(raw)
	if err != nil {
		g.logger.Warn("llm returned invalid json",
			zap.String("response_preview", utils.TruncateForLog(raw, g.maxLogLen)),
		)
		return Failed(&Failure{Kind: FailureMalformed, Message: err.Error(), Raw: raw})
	}

	return Success(raw, obj)
}

// Ping performs a tiny round trip used by the diagnostic endpoint.
func (g *Gateway) Ping(ctx context.Context) Result {
	return g.Invoke(ctx, pingPrompt, pingSystem, 0, false)
}

func (g *Gateway) buildRequest(prompt, system string, temperature float32, structured bool) Request {
	switch {
	case temperature < 0:
		temperature = 0
	case temperature > 1:
		temperature = 1
	}

	return Request{
		Prompt:            utils.TruncateRunes(Sanitize(prompt), DefaultPromptLimit),
		SystemInstruction: utils.TruncateRunes(system, DefaultSystemLimit),
		Temperature:       temperature,
		Structured:        structured,
		MaxOutputTokens:   g.maxOutputTokens,
		Timeout:           g.timeout,
	}
}

func (g *Gateway) complete(ctx context.Context, req Request) (out string, err error) {
	if g == nil || g.completer == nil {
		return "", fmt.Errorf("completion provider is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("completion provider panicked: %v", r)
		}
	}()

	out, err = g.completer.Complete(ctx, req)
	if err != nil {
		return "", err
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("completion provider returned empty response")
	}

	return out, nil
}
