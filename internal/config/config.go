package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/plaid-ask/internal/classification"
	"github.com/Veraticus/plaid-ask/internal/common"
	"github.com/Veraticus/plaid-ask/internal/llm"
	"github.com/Veraticus/plaid-ask/internal/plaid"
	"github.com/Veraticus/plaid-ask/internal/service"
	"github.com/Veraticus/plaid-ask/internal/simplefin"
)

// EnvPrefix is prepended to every automatically bound environment variable.
const EnvPrefix = "PLAIDASK"

// Config is the fully resolved application configuration.
type Config struct {
	Classification ClassificationConfig `mapstructure:"classification"`
	Plaid          plaid.Config         `mapstructure:"plaid"`
	Source         SourceConfig         `mapstructure:"source"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Server         ServerConfig         `mapstructure:"server"`
	LLM            llm.Config           `mapstructure:"llm"`
	SimpleFIN      simplefin.Config     `mapstructure:"simplefin"`
}

// SourceConfig picks where bank data comes from.
type SourceConfig struct {
	Kind        string `mapstructure:"kind"`
	FixturePath string `mapstructure:"fixture_path"`
	OFXPath     string `mapstructure:"ofx_path"`
	UseFake     bool   `mapstructure:"use_fake"`
}

// ClassificationConfig holds user merchant rules, applied before the
// built-in table.
type ClassificationConfig struct {
	MerchantRules []classification.MerchantRule `mapstructure:"merchant_rules"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig controls the HTTP server. With TLS set, a self-signed
// certificate kept in TLSDir is used.
type ServerConfig struct {
	Addr   string `mapstructure:"addr"`
	TLSDir string `mapstructure:"tls_dir"`
	TLS    bool   `mapstructure:"tls"`
}

// envAliases maps config keys to the unprefixed variable names the
// assistant has always read.
var envAliases = map[string]string{
	"plaid.client_id":       "PLAID_CLIENT_ID",
	"plaid.secret":          "PLAID_SECRET",
	"plaid.access_token":    "PLAID_ACCESS_TOKEN",
	"plaid.env":             "PLAID_ENV",
	"llm.api_key":           "GEMINI_API_KEY",
	"source.use_fake":       "USE_FAKE_PLAID",
	"simplefin.access_url":  "SIMPLEFIN_ACCESS_URL",
	"simplefin.setup_token": "SIMPLEFIN_SETUP_TOKEN",
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("plaid.env", "sandbox")
	v.SetDefault("llm.model", llm.DefaultModel)
	v.SetDefault("llm.requests_per_minute", 0)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("source.kind", string(service.SourcePlaid))
	v.SetDefault("source.use_fake", false)
	v.SetDefault("source.fixture_path", "")
	v.SetDefault("source.ofx_path", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.tls", false)
	v.SetDefault("server.tls_dir", "~/.config/plaid-ask/certs")
	v.SetDefault("simplefin.state_path", "")
}

// BindEnv enables PLAIDASK_* variables and the legacy unprefixed names.
// A prefixed variable wins over its legacy alias.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range envAliases {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SourceKind resolves which backend to use. USE_FAKE_PLAID forces the
// fixture source.
func (c *Config) SourceKind() service.SourceKind {
	if c.Source.UseFake {
		return service.SourceFixture
	}
	if c.Source.Kind == "" {
		return service.SourcePlaid
	}
	return service.SourceKind(strings.ToLower(c.Source.Kind))
}

// Validate checks settings that do not depend on which command runs.
// Credentials are checked by the component that needs them.
func (c *Config) Validate() error {
	switch c.SourceKind() {
	case service.SourcePlaid, service.SourceFixture:
	case service.SourceOFX:
		if c.Source.OFXPath == "" {
			return fmt.Errorf("%w: source.ofx_path is required for the ofx source", common.ErrMissingConfig)
		}
	case service.SourceSimpleFIN:
		if c.SimpleFIN.AccessURL == "" && c.SimpleFIN.SetupToken == "" {
			return fmt.Errorf("%w: simplefin.access_url or simplefin.setup_token is required for the simplefin source", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown source kind %q: must be plaid, fixture, ofx or simplefin", common.ErrInvalidConfig, c.Source.Kind)
	}

	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: invalid log format %q", common.ErrInvalidConfig, c.Logging.Format)
	}

	if _, err := classification.NewMerchantClassifier(c.Classification.MerchantRules); err != nil {
		return fmt.Errorf("%w: classification.merchant_rules: %w", common.ErrInvalidConfig, err)
	}
	return nil
}

// LoadDotEnv loads the first existing file among paths into the process
// environment without overriding variables that are already set. It returns
// the file it loaded, or "" when none existed.
func LoadDotEnv(paths ...string) (string, error) {
	for _, p := range paths {
		p = ExpandPath(p)
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return "", fmt.Errorf("failed to load %s: %w", p, err)
		}
		return p, nil
	}
	return "", nil
}
