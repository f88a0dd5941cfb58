// Package coverletter writes cover letters and short application emails.
package coverletter

import (
	"context"
	_ "embed"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/careerboost/internal/ai"
	"github.com/spigell/careerboost/internal/logger"
	"github.com/spigell/careerboost/internal/normalize"
	"github.com/spigell/careerboost/internal/utils"
)

const (
	DefaultTone = "professional"

	temperature  = 0.4
	systemPrompt = "Ты карьерный ассистент. Отвечай по-русски. Верни строго валидный JSON без markdown и без лишнего текста."
)

//go:embed prompt.md
var promptTemplate string

type Request struct {
	ResumeText     string
	JobTitle       string
	Company        string
	JobDescription string
	Tone           string
}

type Service struct {
	invoker ai.Invoker
	logger  *zap.Logger
}

func NewService(invoker ai.Invoker, log *zap.Logger) *Service {
	return &Service{
		invoker: invoker,
		logger:  logger.ForUseCase(log, "cover_letter"),
	}
}

// Generate always returns both fields; a failed call yields the fallback texts.
func (s *Service) Generate(ctx context.Context, req Request) normalize.CoverLetter {
	tone := strings.TrimSpace(req.Tone)
	if tone == "" {
		tone = DefaultTone
	}

	prompt := utils.FillTemplate(promptTemplate, map[string]string{
		"TONE":            tone,
		"JOB_TITLE":       strings.TrimSpace(req.JobTitle),
		"COMPANY":         strings.TrimSpace(req.Company),
		"JOB_DESCRIPTION": strings.TrimSpace(req.JobDescription),
		"RESUME_TEXT":     strings.TrimSpace(req.ResumeText),
	})

	res := s.invoker.Invoke(ctx, prompt, systemPrompt, temperature, true)
	if !res.OK() {
		s.logger.Warn("cover letter fell back to defaults", zap.String("reason", string(res.Failure().Kind)))
		return normalize.Letter(nil)
	}

	return normalize.Letter(res.Object())
}
