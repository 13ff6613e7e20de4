// Package config loads runtime configuration for the FlashGenius CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults). The default card
//     language follows the process locale.
//  2. Optional config file selected via -c or -config, in any format viper
//     understands, and FLASHGENIUS_* environment variables.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string     local library database path
//	-b string     generation backend (api|openai)
//	-a string     FlashGenius API base URL
//	-t duration   request timeout
//	-lang string  default card language
//	-l string     log level
//
// # File schema
//
//	{
//	  "backend": "openai",
//	  "openai_key": "sk-...",
//	  "request_timeout": "90s",
//	  "s3": {"bucket": "cards", "region": "eu-central-1"}
//	}
package config
