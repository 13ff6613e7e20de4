package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/flashgenius/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, BackendAPI, c.Backend)
	assert.Equal(t, common.MaxInputChars, c.MaxInputChars)
	assert.EqualValues(t, common.MaxFileSizeBytes, c.MaxFileSize)
	assert.Equal(t, common.ReaderURLPrefix, c.ReaderPrefix)
	assert.Equal(t, 2*time.Minute, c.RequestTimeout)
	assert.NotEmpty(t, c.DBPath)
	assert.NotEmpty(t, c.DefaultLanguage)
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, BackendAPI, cfg.Backend)
	assert.Equal(t, "http://127.0.0.1:9002", cfg.APIBaseURL)
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "cfg.json", `{
		"backend": "openai",
		"openai_key": "sk-file",
		"request_timeout": "90s",
		"default_language": "French",
		"s3": {"bucket": "cards", "region": "eu-central-1"}
	}`)
	t.Setenv("FLASHGENIUS_OPENAI_MODEL", "gpt-4o")
	t.Setenv("FLASHGENIUS_S3_ENDPOINT", "http://localhost:9000")

	cfg, err := load([]string{"-config", path, "-lang", "Japanese", "-t", "5s"})
	require.NoError(t, err)

	assert.Equal(t, BackendOpenAI, cfg.Backend)
	assert.Equal(t, "sk-file", cfg.OpenAIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel, "environment")
	assert.Equal(t, "Japanese", cfg.DefaultLanguage, "flag beats file")
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout, "flag beats file")
	assert.Equal(t, S3Config{Bucket: "cards", Region: "eu-central-1", Endpoint: "http://localhost:9000"}, cfg.S3)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "cfg.yaml", "db_path: /tmp/lib.db\nmax_input_chars: 1000\n")

	cfg, err := load([]string{"-c", path})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/lib.db", cfg.DBPath)
	assert.Equal(t, 1000, cfg.MaxInputChars)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := load([]string{"-c", filepath.Join(t.TempDir(), "nope.json")})
		require.Error(t, err)
	})

	t.Run("bad file", func(t *testing.T) {
		_, err := load([]string{"-c", writeFile(t, "cfg.json", "{not json")})
		require.Error(t, err)
	})

	t.Run("bad flag value", func(t *testing.T) {
		_, err := load([]string{"-t", "soon"})
		require.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown backend", func(c *Config) { c.Backend = "grpc" }},
		{"openai without key", func(c *Config) { c.Backend = BackendOpenAI }},
		{"api without url", func(c *Config) { c.APIBaseURL = "" }},
		{"zero limits", func(c *Config) { c.MaxInputChars = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			require.ErrorIs(t, c.Validate(), common.ErrValidation)
		})
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"german", map[string]string{"LANG": "de_DE.UTF-8"}, "German"},
		{"lc_all wins", map[string]string{"LC_ALL": "ja_JP.UTF-8", "LANG": "de_DE.UTF-8"}, "Japanese"},
		{"modifier", map[string]string{"LANG": "fr_FR@euro"}, "French"},
		{"posix", map[string]string{"LANG": "C"}, "English"},
		{"unset", map[string]string{}, "English"},
		{"garbage", map[string]string{"LANG": "!!"}, "English"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectLanguage(func(k string) string { return tt.env[k] })
			assert.Equal(t, tt.want, got)
		})
	}
}
