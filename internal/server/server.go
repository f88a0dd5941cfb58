// Package server exposes the career assistant over HTTP.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/spigell/careerboost/internal/ai"
	"github.com/spigell/careerboost/internal/coverletter"
	"github.com/spigell/careerboost/internal/document"
	"github.com/spigell/careerboost/internal/interview"
	"github.com/spigell/careerboost/internal/listing"
	"github.com/spigell/careerboost/internal/matching"
	"github.com/spigell/careerboost/internal/normalize"
)

const (
	DefaultAllowOrigins = "*"
	DefaultBodyLimit    = 4 * 1024 * 1024
	DefaultReadTimeout  = 60 * time.Second
	DefaultWriteTimeout = 60 * time.Second
)

type Pinger interface {
	Ping(ctx context.Context) ai.Result
}

type ResumeReviewer interface {
	Review(ctx context.Context, resumeText, targetRole string) normalize.ResumeReview
	Analyze(ctx context.Context, resumeText, targetRole string) normalize.ResumeAnalysis
}

type LetterWriter interface {
	Generate(ctx context.Context, req coverletter.Request) normalize.CoverLetter
}

type Interviewer interface {
	Start(ctx context.Context, role, level, focus string) (interview.StartResult, error)
	Turn(ctx context.Context, sessionID, answer string) (interview.TurnResult, error)
	Evaluate(ctx context.Context, question, answer, role string) interview.TurnResult
}

type JobMatcher interface {
	Match(ctx context.Context, req matching.Request) []normalize.MatchResult
	Search(ctx context.Context, q listing.Query) []listing.Listing
}

// Services are the use cases served over HTTP. All of them are required.
type Services struct {
	LLM       Pinger
	Resume    ResumeReviewer
	Letters   LetterWriter
	Interview Interviewer
	Jobs      JobMatcher
}

type Config struct {
	AllowOrigins string
	BodyLimit    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Server struct {
	app      *fiber.App
	services Services
	logger   *zap.Logger
}

func New(services Services, cfg Config, log *zap.Logger) *Server {
	if cfg.AllowOrigins == "" {
		cfg.AllowOrigins = DefaultAllowOrigins
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = DefaultBodyLimit
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	s := &Server{
		services: services,
		logger:   log.With(zap.String("component", "http")),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "careerboost",
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	s.app.Use(requestLogger(s.logger))
	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	s.routes()

	return s
}

func (s *Server) routes() {
	s.app.Get("/health", s.health)
	s.app.Get("/debug/llm", s.debugLLM)

	api := s.app.Group("/api")
	api.Post("/analyze-resume", s.analyzeResume)
	api.Post("/resume/review", s.reviewResume)
	api.Post("/cover-letter", s.coverLetter)
	api.Post("/cover-letter/generate", s.coverLetter)
	api.Post("/interview/start", s.interviewStart)
	api.Post("/interview/turn", s.interviewTurn)
	api.Post("/interview/evaluate", s.interviewEvaluate)
	api.Post("/jobs/match", s.matchJobs)
	api.Post("/jobs/search", s.searchJobs)
}

// App exposes the fiber application, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler maps domain sentinels to status codes. Anything unknown is a 500.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, document.ErrOversizedInput):
		code = fiber.StatusRequestEntityTooLarge
	case errors.Is(err, document.ErrUnreadable):
		code = fiber.StatusBadRequest
	case errors.Is(err, interview.ErrUnknownSession):
		code = fiber.StatusNotFound
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

func requestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= fiber.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}

		return nil
	}
}
