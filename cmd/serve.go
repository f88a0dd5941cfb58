package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/careerboost/internal/coverletter"
	"github.com/spigell/careerboost/internal/interview"
	"github.com/spigell/careerboost/internal/logger"
	"github.com/spigell/careerboost/internal/matching"
	"github.com/spigell/careerboost/internal/review"
	"github.com/spigell/careerboost/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", ":8000", "listen address")
	serveCmd.Flags().StringP("provider", "p", "openai", "llm provider: openai or gemini")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("llm.provider", serveCmd.Flags().Lookup("provider"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the careerboost", zap.String("version", version))

	// secrets are stripped before dumping
	pretty, _ := json.MarshalIndent(redacted(config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	gateway, err := newGateway(ctx, config.LLM, logger)
	if err != nil {
		logger.Fatal("building llm gateway", zap.Error(err), zap.String("hint", "set OPENAI_API_KEY or GEMINI_API_KEY"))
	}

	store, closeStore, err := newSessionStore(ctx, config.Sessions, logger)
	if err != nil {
		logger.Fatal("building session store", zap.Error(err))
	}
	defer closeStore()

	hh, err := newHeadhunter(config.HH, logger)
	if err != nil {
		logger.Fatal("building headhunter client", zap.Error(err))
	}

	jobs := matching.NewService(gateway, hh, matching.Config{
		MaxListings:       config.Matching.MaxListings,
		ExcludedCompanies: config.Matching.ExcludedCompanies,
		DisabledFilters:   config.Matching.DisabledFilters,
		Area:              config.HH.Area,
		PerPage:           config.HH.PerPage,
	}, logger)
	for _, status := range jobs.Filters() {
		logger.Debug("listing filter",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	srv := server.New(server.Services{
		LLM:     gateway,
		Resume:  review.NewService(gateway, logger),
		Letters: coverletter.NewService(gateway, logger),
		Interview: interview.NewService(gateway, store, interview.Config{
			HistoryWindow: config.Sessions.HistoryWindow,
		}, logger),
		Jobs: jobs,
	}, server.Config{
		AllowOrigins: config.Server.AllowOrigins,
	}, logger)

	errs := make(chan error, 1)
	go func() {
		errs <- srv.Listen(config.Server.Addr)
	}()

	select {
	case err := <-errs:
		if err != nil {
			logger.Error("http server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down", zap.Duration("timeout", config.Server.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server forced to shutdown", zap.Error(err))
		}
	}
}

// redacted returns a copy of the config safe for logging.
func redacted(config *Config) Config {
	out := *config
	if config.LLM != nil {
		llm := *config.LLM
		if llm.OpenAI != nil {
			openai := *llm.OpenAI
			openai.APIKey = mask(openai.APIKey)
			llm.OpenAI = &openai
		}
		if llm.Gemini != nil {
			gemini := *llm.Gemini
			gemini.APIKey = mask(gemini.APIKey)
			llm.Gemini = &gemini
		}
		out.LLM = &llm
	}
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}
