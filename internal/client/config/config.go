package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/flashgenius/internal/common"
)

// Backends understood by the CLI.
const (
	BackendAPI    = "api"
	BackendOpenAI = "openai"
)

// Config holds runtime settings for the FlashGenius CLI.
type Config struct {
	DBPath  string `mapstructure:"db_path"`
	Backend string `mapstructure:"backend"`

	APIBaseURL     string        `mapstructure:"api_base_url"`
	APISecret      string        `mapstructure:"api_secret"`
	APITokenTTL    time.Duration `mapstructure:"api_token_ttl"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	OpenAIKey     string `mapstructure:"openai_key"`
	OpenAIModel   string `mapstructure:"openai_model"`
	OpenAIBaseURL string `mapstructure:"openai_base_url"`
	ReaderPrefix  string `mapstructure:"reader_prefix"`

	MaxInputChars   int    `mapstructure:"max_input_chars"`
	MaxFileSize     int64  `mapstructure:"max_file_size"`
	DefaultLanguage string `mapstructure:"default_language"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	S3 S3Config `mapstructure:"s3"`
}

// S3Config locates the bucket that stores card images. An empty Bucket
// disables card images.
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DBPath = defaultDBPath()
	c.Backend = BackendAPI
	c.APIBaseURL = "http://127.0.0.1:9002"
	c.APITokenTTL = 15 * time.Minute
	c.RequestTimeout = 2 * time.Minute
	c.OpenAIModel = "gpt-4o-mini"
	c.ReaderPrefix = common.ReaderURLPrefix
	c.MaxInputChars = common.MaxInputChars
	c.MaxFileSize = common.MaxFileSizeBytes
	c.DefaultLanguage = DetectLanguage(os.Getenv)
	c.LogLevel = "warn"
	c.LogFormat = "text"
	c.S3 = S3Config{Region: "us-east-1"}
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "flashgenius.db"
	}
	return filepath.Join(dir, "flashgenius", "library.db")
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendAPI:
		if c.APIBaseURL == "" {
			return fmt.Errorf("%w: api_base_url is required for the api backend", common.ErrValidation)
		}
	case BackendOpenAI:
		if c.OpenAIKey == "" {
			return fmt.Errorf("%w: openai_key is required for the openai backend", common.ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", common.ErrValidation, c.Backend)
	}
	if c.MaxInputChars <= 0 || c.MaxFileSize <= 0 {
		return fmt.Errorf("%w: input limits must be positive", common.ErrValidation)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the config file and environment and finally command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
