package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/careerboost/internal/ai"
	"github.com/spigell/careerboost/internal/ai/gemini"
	"github.com/spigell/careerboost/internal/ai/openai"
	"github.com/spigell/careerboost/internal/headhunter"
	"github.com/spigell/careerboost/internal/secrets"
	"github.com/spigell/careerboost/internal/session"
)

// newGateway builds the completion provider named in the config and wraps it.
func newGateway(ctx context.Context, cfg *LLMConfig, logger *zap.Logger) (*ai.Gateway, error) {
	if cfg == nil {
		return nil, errors.New("llm configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))

	var completer ai.Completer
	switch provider {
	case openai.ProviderName:
		if cfg.OpenAI == nil {
			return nil, errors.New("llm.openai configuration is required")
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: cfg.OpenAI.APIKey,
			File:  cfg.OpenAI.APIKeyFile,
			Env:   "OPENAI_API_KEY",
		})
		if err != nil {
			return nil, err
		}
		client, err := openai.NewClient(openai.Config{
			APIKey:  apiKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
		})
		if err != nil {
			return nil, err
		}
		completer = client
	case gemini.ProviderName:
		if cfg.Gemini == nil {
			return nil, errors.New("llm.gemini configuration is required")
		}
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			File:  cfg.Gemini.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, err
		}
		generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model)
		if err != nil {
			return nil, err
		}
		completer = generator
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}

	return ai.NewGateway(completer, ai.Config{
		Provider:        provider,
		MaxOutputTokens: cfg.MaxOutputTokens,
		Timeout:         cfg.Timeout,
		MaxLogLength:    cfg.MaxLogLength,
	}, logger), nil
}

// newSessionStore returns the configured store and a function releasing its resources.
func newSessionStore(ctx context.Context, cfg *SessionsConfig, logger *zap.Logger) (session.Store, func(), error) {
	if cfg == nil {
		cfg = &SessionsConfig{Backend: backendMemory}
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", backendMemory:
		store := session.NewMemoryStore(cfg.TTL)
		janitor := session.NewJanitor(store, cfg.SweepSchedule, logger)
		if err := janitor.Start(); err != nil {
			return nil, nil, err
		}
		return store, janitor.Stop, nil
	case backendRedis:
		client, err := session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis session store", zap.String("prefix", cfg.RedisPrefix))
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("closing redis client", zap.Error(err))
			}
		}
		return session.NewRedisStore(client, cfg.TTL, cfg.RedisPrefix), closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unsupported session backend: %s", cfg.Backend)
	}
}

func newHeadhunter(cfg *HHConfig, logger *zap.Logger) (*headhunter.Client, error) {
	if cfg == nil {
		return headhunter.New(logger, headhunter.Config{}), nil
	}

	// The vacancy search is public, a token only raises rate limits.
	var token string
	if strings.TrimSpace(cfg.TokenFile) != "" {
		var err error
		token, err = secrets.Load(secrets.Source{
			Name: "headhunter token",
			File: cfg.TokenFile,
		})
		if err != nil {
			return nil, err
		}
	}

	return headhunter.New(logger, headhunter.Config{
		Token:   token,
		APIURL:  cfg.APIURL,
		Area:    cfg.Area,
		PerPage: cfg.PerPage,
		Timeout: cfg.Timeout,
	}), nil
}
