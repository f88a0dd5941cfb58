package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/careerboost/internal/ai"
	"github.com/spigell/careerboost/internal/filtering"
	"github.com/spigell/careerboost/internal/headhunter"
	"github.com/spigell/careerboost/internal/interview"
	"github.com/spigell/careerboost/internal/server"
	"github.com/spigell/careerboost/internal/session"
)

const (
	app       = "careerboost"
	envPrefix = "CAREERBOOST"

	backendMemory = "memory"
	backendRedis  = "redis"
)

type Config struct {
	Server   *ServerConfig   `mapstructure:"server"`
	LLM      *LLMConfig      `mapstructure:"llm"`
	Sessions *SessionsConfig `mapstructure:"sessions"`
	HH       *HHConfig       `mapstructure:"hh"`
	Matching *MatchingConfig `mapstructure:"matching"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	AllowOrigins    string        `mapstructure:"allow-origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

type LLMConfig struct {
	Provider        string        `mapstructure:"provider"`
	MaxOutputTokens int           `mapstructure:"max-output-tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxLogLength    int           `mapstructure:"max-log-length"`
	OpenAI          *OpenAIConfig `mapstructure:"openai"`
	Gemini          *GeminiConfig `mapstructure:"gemini"`
}

type OpenAIConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	BaseURL    string `mapstructure:"base-url"`
	Model      string `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type SessionsConfig struct {
	Backend       string        `mapstructure:"backend"`
	TTL           time.Duration `mapstructure:"ttl"`
	SweepSchedule string        `mapstructure:"sweep-schedule"`
	RedisURL      string        `mapstructure:"redis-url"`
	RedisPrefix   string        `mapstructure:"redis-prefix"`
	HistoryWindow int           `mapstructure:"history-window"`
}

type HHConfig struct {
	APIURL    string        `mapstructure:"api-url"`
	TokenFile string        `mapstructure:"token-file"`
	Area      int           `mapstructure:"area"`
	PerPage   int           `mapstructure:"per-page"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type MatchingConfig struct {
	MaxListings       int      `mapstructure:"max-listings"`
	ExcludedCompanies []string `mapstructure:"excluded-companies"`
	DisabledFilters   []string `mapstructure:"disabled-filters"`
}

var (
	// Used for flags.
	cfgFile string
	envFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "careerboost is a career assistant backend: resume review, cover letters, mock interviews and internship matching",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is careerboost.yaml in current directory)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults()
	bindEnv()
}

func setDefaults() {
	viper.SetDefault("server.addr", ":8000")
	viper.SetDefault("server.allow-origins", server.DefaultAllowOrigins)
	viper.SetDefault("server.shutdown-timeout", 10*time.Second)

	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.max-output-tokens", ai.DefaultMaxOutputTokens)
	viper.SetDefault("llm.timeout", ai.DefaultTimeout)
	viper.SetDefault("llm.max-log-length", 200)
	viper.SetDefault("llm.openai.api-key", "")
	viper.SetDefault("llm.openai.api-key-file", "")
	viper.SetDefault("llm.openai.base-url", "")
	viper.SetDefault("llm.openai.model", "gpt-4.1-mini")
	viper.SetDefault("llm.gemini.api-key", "")
	viper.SetDefault("llm.gemini.api-key-file", "")
	viper.SetDefault("llm.gemini.model", "gemini-2.5-flash")

	viper.SetDefault("sessions.backend", backendMemory)
	viper.SetDefault("sessions.ttl", 2*time.Hour)
	viper.SetDefault("sessions.sweep-schedule", session.DefaultSweepSchedule)
	viper.SetDefault("sessions.redis-url", "redis://localhost:6379/0")
	viper.SetDefault("sessions.redis-prefix", "")
	viper.SetDefault("sessions.history-window", interview.DefaultHistoryWindow)

	viper.SetDefault("hh.api-url", "")
	viper.SetDefault("hh.token-file", "")
	viper.SetDefault("hh.area", headhunter.DefaultArea)
	viper.SetDefault("hh.per-page", headhunter.DefaultPerPage)
	viper.SetDefault("hh.timeout", 15*time.Second)

	viper.SetDefault("matching.max-listings", filtering.DefaultLimit)
	viper.SetDefault("matching.excluded-companies", []string{})
	viper.SetDefault("matching.disabled-filters", []string{})
}

func bindEnv() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Provider keys are also read from their conventional variables.
	bindings := map[string][]string{
		"llm.openai.api-key": {envPrefix + "_LLM_OPENAI_API_KEY", "OPENAI_API_KEY"},
		"llm.gemini.api-key": {envPrefix + "_LLM_GEMINI_API_KEY", "GEMINI_API_KEY"},
		"llm.openai.model":   {envPrefix + "_LLM_OPENAI_MODEL", "OPENAI_MODEL"},
		"hh.token-file":      {envPrefix + "_HH_TOKEN_FILE", "HH_TOKEN_FILE"},
	}
	for key, envs := range bindings {
		if err := viper.BindEnv(append([]string{key}, envs...)...); err != nil {
			log.Fatalf("binding %s environment variables: %v", key, err)
		}
	}
}

func initConfig() {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading %s: %v", envFile, err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// The config file is optional unless passed explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
