package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/recruiter/internal/headhunter"
	"github.com/spigell/recruiter/internal/scoring"
	"github.com/spigell/recruiter/internal/stages"
)

const (
	app       = "recruiter"
	envPrefix = "RECRUITER"
)

type Config struct {
	AI       *AIConfig      `mapstructure:"ai"`
	Stages   stages.Options `mapstructure:"stages"`
	Matching scoring.Config `mapstructure:"matching"`
	Catalog  *CatalogConfig `mapstructure:"catalog"`
	// Workers caps how many submissions are processed at once.
	Workers int `mapstructure:"workers"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type CatalogConfig struct {
	// Source is one of file, postgres or headhunter.
	Source          string            `mapstructure:"source"`
	File            string            `mapstructure:"file"`
	DatabaseURLFile string            `mapstructure:"database-url-file"`
	Headhunter      *HeadhunterConfig `mapstructure:"headhunter"`
}

type HeadhunterConfig struct {
	TokenFile    string                   `mapstructure:"token-file"`
	UserAgent    string                   `mapstructure:"user-agent"`
	MaxVacancies int                      `mapstructure:"max-vacancies"`
	Search       *headhunter.SearchParams `mapstructure:"search"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "recruiter runs candidate resumes through extraction, analysis, job matching, screening and recommendation",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("catalog.headhunter.token-file", "HH_TOKEN_FILE"); err != nil {
		log.Fatalf("binding HH_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("catalog.database-url-file", "DATABASE_URL_FILE"); err != nil {
		log.Fatalf("binding DATABASE_URL_FILE environment variable: %v", err)
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is recruiter.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-retries", 3)
	viper.SetDefault("ai.gemini.max-log-length", 200)
	viper.SetDefault("stages.timeout", stages.DefaultTimeout)
	viper.SetDefault("matching.threshold", scoring.DefaultThreshold)
	viper.SetDefault("matching.limit", scoring.DefaultLimit)
	viper.SetDefault("catalog.source", sourceFile)
	viper.SetDefault("catalog.file", "jobs.yaml")
	viper.SetDefault("catalog.headhunter.max-vacancies", 100)
	viper.SetDefault("workers", 2)
}

func initConfig() {
	// A .env file is optional; it only feeds environment variables.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		// An explicit config file must be readable.
		if err := viper.ReadInConfig(); err != nil {
			log.Fatal(err)
		}
		return
	}

	viper.AddConfigPath(".")
	viper.SetConfigName(app)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
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
