package cmd

import (
	"errors"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/talentscout/intake/internal/ai"
)

const app = "talentscout"

// Config is the whole application configuration, read from the config
// file and environment via viper.
type Config struct {
	// DeploymentMode is "local" (default) or "cloud". Cloud mode
	// switches the default provider to gemini and allows the backend
	// more time per call.
	DeploymentMode string       `mapstructure:"deployment-mode"`
	Store          *StoreConfig `mapstructure:"store"`
	AI             *AIConfig    `mapstructure:"ai"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type AIConfig struct {
	Provider       string        `mapstructure:"provider"`
	Endpoint       string        `mapstructure:"endpoint"`
	Model          string        `mapstructure:"model"`
	TimeoutSeconds int           `mapstructure:"timeout-seconds"`
	MaxTokens      int           `mapstructure:"max-tokens"`
	Gemini         *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
}

const (
	defaultEndpoint     = "http://localhost:11434"
	defaultOllamaModel  = "phi3:mini"
	defaultMaxTokens    = 512
	defaultLocalTimeout = 15
	defaultCloudTimeout = 60
	defaultStorePath    = "talentscout.db"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talentscout is an AI hiring assistant that runs a scripted candidate screening in your terminal",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.endpoint", "OLLAMA_HOST"); err != nil {
		log.Fatalf("binding OLLAMA_HOST environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("store.path", "TALENTSCOUT_DB"); err != nil {
		log.Fatalf("binding TALENTSCOUT_DB environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talentscout.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// The config file is optional: every option has a usable default.
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil {
		config = &Config{}
	}
	config.applyDefaults()

	return config, nil
}

// applyDefaults fills unset options, taking the deployment mode into
// account: local deployments default to the Ollama runtime, cloud
// deployments to Gemini with a larger per-call timeout.
func (c *Config) applyDefaults() {
	if c.DeploymentMode == "" {
		c.DeploymentMode = "local"
	}

	if c.Store == nil {
		c.Store = &StoreConfig{}
	}
	if c.Store.Path == "" {
		c.Store.Path = defaultStorePath
	}

	if c.AI == nil {
		c.AI = &AIConfig{}
	}

	cloud := strings.EqualFold(c.DeploymentMode, "cloud")

	if c.AI.Provider == "" {
		c.AI.Provider = ai.ProviderOllama
		if cloud {
			c.AI.Provider = ai.ProviderGemini
		}
	}
	if c.AI.Endpoint == "" {
		c.AI.Endpoint = defaultEndpoint
	}
	if c.AI.Model == "" && c.AI.Provider == ai.ProviderOllama {
		c.AI.Model = defaultOllamaModel
	}
	if c.AI.TimeoutSeconds <= 0 {
		c.AI.TimeoutSeconds = defaultLocalTimeout
		if cloud {
			c.AI.TimeoutSeconds = defaultCloudTimeout
		}
	}
	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = defaultMaxTokens
	}
	if c.AI.Gemini == nil {
		c.AI.Gemini = &GeminiConfig{}
	}
}
