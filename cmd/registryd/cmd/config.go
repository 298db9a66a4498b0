package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/paw-chain/modelreg/api"
	"github.com/paw-chain/modelreg/x/registry/txindex"
)

const (
	// EnvPrefix is the prefix of environment overrides, e.g. REGISTRY_API_PORT.
	EnvPrefix = "REGISTRY"

	configDir      = "config"
	dataDir        = "data"
	configFileName = "app.toml"
	mnemonicFile   = "mnemonic.txt"

	TxIndexKV       = "kv"
	TxIndexPostgres = "postgres"
)

// Config is the daemon configuration read from <home>/config/app.toml.
type Config struct {
	ChainID   string
	Log       LogConfig
	DB        DBConfig
	Keys      KeysConfig
	TxIndex   TxIndexConfig
	API       api.Config
	Telemetry TelemetryConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type DBConfig struct {
	// Backend is a cosmos-db backend name: goleveldb or memdb.
	Backend string
}

type KeysConfig struct {
	// Limit is the number of versions with a seeded key.
	Limit uint32
	// Static maps decimal versions to hex ed25519 public keys. When set it replaces
	// the seeded version keys; the validator key is always seeded.
	Static map[string]interface{}
}

type TxIndexConfig struct {
	Kind        string
	PostgresDSN string
	Table       string
}

type TelemetryConfig struct {
	// Address serves /metrics and the health endpoints.
	Address             string
	PrometheusRetention int64
	TracingEnabled      bool
	OTLPEndpoint        string
	SampleRate          float64
	Environment         string
}

// DefaultConfig returns the configuration written by init.
func DefaultConfig() *Config {
	return &Config{
		ChainID: "modelreg-1",
		Log:     LogConfig{Level: "info", Format: "plain"},
		DB:      DBConfig{Backend: "goleveldb"},
		Keys:    KeysConfig{Limit: 1024},
		TxIndex: TxIndexConfig{Kind: TxIndexKV, Table: txindex.DefaultPostgresTable},
		API:     *api.DefaultConfig(),
		Telemetry: TelemetryConfig{
			Address:             "127.0.0.1:36660",
			PrometheusRetention: 60,
			OTLPEndpoint:        "http://localhost:4318",
			SampleRate:          0.1,
			Environment:         "production",
		},
	}
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.ChainID == "" {
		return errors.New("chain-id must be set")
	}
	if c.Keys.Limit == 0 && len(c.Keys.Static) == 0 {
		return errors.New("keys.limit must be positive")
	}
	switch c.TxIndex.Kind {
	case TxIndexKV:
	case TxIndexPostgres:
		if c.TxIndex.PostgresDSN == "" {
			return errors.New("tx-index.postgres-dsn is required for the postgres index")
		}
	default:
		return fmt.Errorf("unknown tx-index.kind %q", c.TxIndex.Kind)
	}
	return c.API.Validate()
}

func configPath(home string) string {
	return filepath.Join(home, configDir, configFileName)
}

func newViper(home string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(configPath(home))
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func setViperValues(v *viper.Viper, cfg *Config, set func(key string, value interface{})) {
	set("chain-id", cfg.ChainID)
	set("log.level", cfg.Log.Level)
	set("log.format", cfg.Log.Format)
	set("db.backend", cfg.DB.Backend)
	set("keys.limit", cfg.Keys.Limit)
	set("tx-index.kind", cfg.TxIndex.Kind)
	set("tx-index.postgres-dsn", cfg.TxIndex.PostgresDSN)
	set("tx-index.table", cfg.TxIndex.Table)
	set("api.host", cfg.API.Host)
	set("api.port", cfg.API.Port)
	set("api.cors-origins", cfg.API.CORSOrigins)
	set("api.rate-limit-rps", cfg.API.RateLimitRPS)
	set("api.read-timeout", cfg.API.ReadTimeout.String())
	set("api.write-timeout", cfg.API.WriteTimeout.String())
	set("api.request-timeout", cfg.API.RequestTimeout.String())
	set("api.shutdown-timeout", cfg.API.ShutdownTimeout.String())
	set("api.tls-enabled", cfg.API.TLSEnabled)
	set("api.tls-cert-file", cfg.API.TLSCertFile)
	set("api.tls-key-file", cfg.API.TLSKeyFile)
	set("telemetry.address", cfg.Telemetry.Address)
	set("telemetry.prometheus-retention", cfg.Telemetry.PrometheusRetention)
	set("telemetry.tracing-enabled", cfg.Telemetry.TracingEnabled)
	set("telemetry.otlp-endpoint", cfg.Telemetry.OTLPEndpoint)
	set("telemetry.sample-rate", cfg.Telemetry.SampleRate)
	set("telemetry.environment", cfg.Telemetry.Environment)
	if len(cfg.Keys.Static) > 0 {
		set("keys.static", cfg.Keys.Static)
	}
}

// WriteConfig writes cfg to <home>/config/app.toml.
func WriteConfig(home string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Join(home, configDir), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	v := newViper(home)
	setViperValues(v, cfg, v.Set)
	return v.WriteConfigAs(configPath(home))
}

// LoadConfig reads <home>/config/app.toml over the defaults and applies REGISTRY_*
// environment overrides. A missing file yields the defaults.
func LoadConfig(home string) (*Config, error) {
	v := newViper(home)
	setViperValues(v, DefaultConfig(), v.SetDefault)

	if _, err := os.Stat(configPath(home)); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", configPath(home), err)
		}
	}

	cfg, err := decodeConfig(v)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// decodeConfig coerces raw viper values; environment overrides arrive as strings.
func decodeConfig(v *viper.Viper) (*Config, error) {
	var (
		cfg  Config
		errs []error
	)
	must := func(key string) func(error) {
		return func(err error) {
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
	}
	str := func(key string) string {
		s, err := cast.ToStringE(v.Get(key))
		must(key)(err)
		return s
	}

	cfg.ChainID = str("chain-id")
	cfg.Log = LogConfig{Level: str("log.level"), Format: str("log.format")}
	cfg.DB = DBConfig{Backend: str("db.backend")}

	limit, err := cast.ToUint32E(v.Get("keys.limit"))
	must("keys.limit")(err)
	cfg.Keys.Limit = limit
	if raw := v.Get("keys.static"); raw != nil {
		static, err := cast.ToStringMapE(raw)
		must("keys.static")(err)
		cfg.Keys.Static = static
	}

	cfg.TxIndex = TxIndexConfig{
		Kind:        str("tx-index.kind"),
		PostgresDSN: str("tx-index.postgres-dsn"),
		Table:       str("tx-index.table"),
	}

	cfg.API.Host = str("api.host")
	cfg.API.Port = str("api.port")
	origins, err := cast.ToStringSliceE(v.Get("api.cors-origins"))
	must("api.cors-origins")(err)
	cfg.API.CORSOrigins = origins
	cfg.API.RateLimitRPS, err = cast.ToIntE(v.Get("api.rate-limit-rps"))
	must("api.rate-limit-rps")(err)
	cfg.API.ReadTimeout, err = cast.ToDurationE(v.Get("api.read-timeout"))
	must("api.read-timeout")(err)
	cfg.API.WriteTimeout, err = cast.ToDurationE(v.Get("api.write-timeout"))
	must("api.write-timeout")(err)
	cfg.API.RequestTimeout, err = cast.ToDurationE(v.Get("api.request-timeout"))
	must("api.request-timeout")(err)
	cfg.API.ShutdownTimeout, err = cast.ToDurationE(v.Get("api.shutdown-timeout"))
	must("api.shutdown-timeout")(err)
	cfg.API.TLSEnabled, err = cast.ToBoolE(v.Get("api.tls-enabled"))
	must("api.tls-enabled")(err)
	cfg.API.TLSCertFile = str("api.tls-cert-file")
	cfg.API.TLSKeyFile = str("api.tls-key-file")

	cfg.Telemetry.Address = str("telemetry.address")
	cfg.Telemetry.PrometheusRetention, err = cast.ToInt64E(v.Get("telemetry.prometheus-retention"))
	must("telemetry.prometheus-retention")(err)
	cfg.Telemetry.TracingEnabled, err = cast.ToBoolE(v.Get("telemetry.tracing-enabled"))
	must("telemetry.tracing-enabled")(err)
	cfg.Telemetry.OTLPEndpoint = str("telemetry.otlp-endpoint")
	cfg.Telemetry.SampleRate, err = cast.ToFloat64E(v.Get("telemetry.sample-rate"))
	must("telemetry.sample-rate")(err)
	cfg.Telemetry.Environment = str("telemetry.environment")

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
