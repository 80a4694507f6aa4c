// ABOUTME: Layered configuration from defaults, an optional YAML file and environment
// ABOUTME: ISH_* variables keep their unprefixed names; everything else uses DEADLINE_MCP_

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harper/deadline-mcp/pkg/auth"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment override except the ish_* keys.
const EnvPrefix = "DEADLINE_MCP"

// Config is the resolved process configuration.
type Config struct {
	// ISHMode routes calendar traffic to a local fake backend. Unmarshalled by hand.
	ISHMode         bool             `mapstructure:"-"`
	ISHBaseURL      string           `mapstructure:"ish_base_url"`
	ISHUser         string           `mapstructure:"ish_user"`
	CredentialsPath string           `mapstructure:"credentials_path"`
	TokenPath       string           `mapstructure:"token_path"`
	DefaultTimezone string           `mapstructure:"default_timezone"`
	Extraction      ExtractionConfig `mapstructure:"extraction"`
	Log             LogConfig        `mapstructure:"log"`
	Metrics         MetricsConfig    `mapstructure:"metrics"`
}

// ExtractionConfig configures the assignment extraction client.
type ExtractionConfig struct {
	URL         string        `mapstructure:"url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// MetricsConfig leaves Addr empty to disable the HTTP listener.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// DefaultPath returns config.yaml next to the default credentials file.
func DefaultPath() string {
	return filepath.Join(filepath.Dir(auth.DefaultCredentialsPath()), "config.yaml")
}

// Load reads configuration. An explicit path must exist; the default path is optional.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file not found at %s", path)
	}

	// DEADLINE_MCP_EXTRACTION_URL, DEADLINE_MCP_LOG_LEVEL, ...
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"ish_mode", "ish_base_url", "ish_user"} {
		envName := strings.ToUpper(key)
		if err := v.BindEnv(key, EnvPrefix+"_"+envName, envName); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", envName, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ISHMode = ishEnabled(v.Get("ish_mode"))

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ish_mode", "")
	v.SetDefault("ish_base_url", "http://localhost:9000")
	v.SetDefault("ish_user", "")
	v.SetDefault("credentials_path", auth.DefaultCredentialsPath())
	v.SetDefault("token_path", auth.DefaultTokenPath())
	v.SetDefault("default_timezone", "")

	v.SetDefault("extraction.url", "http://127.0.0.1:8000/extract-assignments")
	v.SetDefault("extraction.timeout", "60s")
	v.SetDefault("extraction.max_failures", 5)
	v.SetDefault("extraction.open_timeout", "30s")

	v.SetDefault("log.level", "info")
	v.SetDefault("metrics.addr", "")
}

// ishEnabled accepts a YAML boolean, or a string that is exactly "true".
func ishEnabled(raw interface{}) bool {
	switch val := raw.(type) {
	case bool:
		return val
	case string:
		return val == "true"
	default:
		return false
	}
}

func validate(cfg *Config) error {
	if cfg.ISHMode && cfg.ISHBaseURL == "" {
		return fmt.Errorf("ish_base_url is required in ish mode")
	}

	u, err := url.Parse(cfg.Extraction.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("extraction.url must be an absolute http(s) URL, got %q", cfg.Extraction.URL)
	}
	if cfg.Extraction.Timeout <= 0 {
		return fmt.Errorf("extraction.timeout must be positive")
	}

	if cfg.DefaultTimezone != "" {
		if _, err := time.LoadLocation(cfg.DefaultTimezone); err != nil {
			return fmt.Errorf("default_timezone %q is not an IANA zone: %w", cfg.DefaultTimezone, err)
		}
	}

	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
