package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/careerboost/internal/interview"
	"github.com/spigell/careerboost/internal/logger"
	"github.com/spigell/careerboost/internal/session"
)

const (
	PromptFinish = "/finish"
)

var levels = []string{"intern", "junior", "middle", "senior"}

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run a mock interview in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		runInterview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(interviewCmd)

	interviewCmd.Flags().StringP("role", "r", "", "target role, asked interactively when empty")
	interviewCmd.Flags().StringP("focus", "f", "", "optional interview focus, e.g. databases")
}

func runInterview(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	gateway, err := newGateway(ctx, config.LLM, logger)
	if err != nil {
		logger.Fatal("building llm gateway", zap.Error(err))
	}

	// A terminal interview lives as long as the process.
	svc := interview.NewService(gateway, session.NewMemoryStore(0), interview.Config{
		HistoryWindow: config.Sessions.HistoryWindow,
	}, logger)

	role := strings.TrimSpace(cmd.Flag("role").Value.String())
	if role == "" {
		rolePrompt := promptui.Prompt{
			Label:    "Target role",
			Validate: notBlank,
		}
		if role, err = rolePrompt.Run(); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	levelPrompt := promptui.Select{
		Label: "Level",
		Items: levels,
	}
	_, level, err := levelPrompt.Run()
	if err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}

	started, err := svc.Start(ctx, role, level, cmd.Flag("focus").Value.String())
	if err != nil {
		logger.Fatal("starting interview", zap.Error(err))
	}

	logger.Debug("interview started", zap.String("session_id", started.SessionID))
	fmt.Printf("\n%s\n\n", started.FirstQuestion)

	total, turns := 0, 0
	for {
		answerPrompt := promptui.Prompt{
			Label:    fmt.Sprintf("Answer (%s to stop)", PromptFinish),
			Validate: notBlank,
		}

		answer, err := answerPrompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				break
			}
			logger.Fatal("exiting", zap.Error(err))
		}
		if strings.TrimSpace(answer) == PromptFinish {
			break
		}

		res, err := svc.Turn(ctx, started.SessionID, answer)
		if err != nil {
			logger.Fatal("interview turn", zap.Error(err))
		}

		total += res.Score
		turns++
		fmt.Printf("\nFeedback: %s\nScore: %d/100\n\n%s\n\n", res.Feedback, res.Score, res.NextQuestion)
	}

	if turns > 0 {
		logger.Info("interview finished", zap.Int("answers", turns), zap.Int("average_score", total/turns))
	}
}

func notBlank(input string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("value is required")
	}
	return nil
}
