package config

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/flashgenius/internal/flagx"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read into Config, e.g.
// FLASHGENIUS_OPENAI_KEY or FLASHGENIUS_S3_BUCKET.
const EnvPrefix = "FLASHGENIUS"

// parseFile overlays cfg with the config file named by -c/-config, if any,
// and with FLASHGENIUS_* environment variables. The file format follows its
// extension (json, yaml, toml, env).
func parseFile(cfg *Config, args []string) error {
	v := viper.New()
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := flagx.ConfigFileFlag(args); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	return nil
}

// setDefaults registers every key with its current value so that
// environment variables are honored by Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("backend", cfg.Backend)
	v.SetDefault("api_base_url", cfg.APIBaseURL)
	v.SetDefault("api_secret", cfg.APISecret)
	v.SetDefault("api_token_ttl", cfg.APITokenTTL)
	v.SetDefault("request_timeout", cfg.RequestTimeout)
	v.SetDefault("openai_key", cfg.OpenAIKey)
	v.SetDefault("openai_model", cfg.OpenAIModel)
	v.SetDefault("openai_base_url", cfg.OpenAIBaseURL)
	v.SetDefault("reader_prefix", cfg.ReaderPrefix)
	v.SetDefault("max_input_chars", cfg.MaxInputChars)
	v.SetDefault("max_file_size", cfg.MaxFileSize)
	v.SetDefault("default_language", cfg.DefaultLanguage)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("s3.bucket", cfg.S3.Bucket)
	v.SetDefault("s3.region", cfg.S3.Region)
	v.SetDefault("s3.endpoint", cfg.S3.Endpoint)
	v.SetDefault("s3.access_key", cfg.S3.AccessKey)
	v.SetDefault("s3.secret_key", cfg.S3.SecretKey)
}
