package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/jd-gatekeeper/internal/eligibility"
	"github.com/spigell/jd-gatekeeper/internal/gemini"
	"github.com/spigell/jd-gatekeeper/internal/vectorize"
)

const (
	app       = "jd-gatekeeper"
	envPrefix = "JD_GATEKEEPER"

	strategyTFIDF     = "tfidf"
	strategyEmbedding = "embedding"

	vocabularyPair   = "pair"
	vocabularyGlobal = "global"
)

type Config struct {
	Matching    *MatchingConfig    `mapstructure:"matching" validate:"required"`
	Directories *DirectoriesConfig `mapstructure:"directories" validate:"required"`
	Gemini      *GeminiConfig      `mapstructure:"gemini" validate:"required"`
	ExcludeFile string             `mapstructure:"exclude-file"`
	Exclude     *struct {
		Roles []string `mapstructure:"roles"`
	} `mapstructure:"exclude"`
}

type MatchingConfig struct {
	Threshold  float64 `mapstructure:"threshold" validate:"gte=-1,lte=1"`
	Strategy   string  `mapstructure:"strategy" validate:"oneof=tfidf embedding"`
	Vocabulary string  `mapstructure:"vocabulary" validate:"oneof=pair global"`
	MaxTokens  int     `mapstructure:"max-tokens" validate:"gt=0"`
	Rank       bool    `mapstructure:"rank"`
	Workers    int     `mapstructure:"workers" validate:"gte=1"`
}

type DirectoriesConfig struct {
	Resumes string `mapstructure:"resumes" validate:"required"`
	Jobs    string `mapstructure:"jobs" validate:"required"`
}

type GeminiConfig struct {
	APIKey        string `mapstructure:"api-key"`
	APIKeyFile    string `mapstructure:"api-key-file"`
	Model         string `mapstructure:"model" validate:"required"`
	MaxRetries    int    `mapstructure:"max-retries" validate:"gte=1"`
	SegmentTokens int    `mapstructure:"segment-tokens" validate:"gt=0"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jd-gatekeeper matches a resume against job descriptions and reports the jobs it is eligible for",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jd-gatekeeper.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("matching.threshold", eligibility.DefaultThreshold)
	v.SetDefault("matching.strategy", strategyTFIDF)
	v.SetDefault("matching.vocabulary", vocabularyPair)
	v.SetDefault("matching.max-tokens", vectorize.DefaultMaxTokens)
	v.SetDefault("matching.rank", false)
	v.SetDefault("matching.workers", 1)

	v.SetDefault("directories.resumes", "Data/Processed/Resumes")
	v.SetDefault("directories.jobs", "Data/Processed/JobDescription")

	v.SetDefault("gemini.api-key", "")
	v.SetDefault("gemini.api-key-file", "")
	v.SetDefault("gemini.model", gemini.DefaultModel)
	v.SetDefault("gemini.max-retries", gemini.DefaultMaxRetries)
	v.SetDefault("gemini.segment-tokens", gemini.DefaultSegmentTokens)

	v.SetDefault("exclude-file", "")
	v.SetDefault("exclude.roles", []string{})
}

func initConfig() {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional, but a broken one is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if config == nil {
		return nil, errors.New("config is empty")
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// bindFlags binds command flags to config keys. Commands bind in PreRun so
// flags that share a key do not override each other.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %q: %w", flag, err)
		}
	}
	return nil
}
