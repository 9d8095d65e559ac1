package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "CAPTURE"

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL      string
	Start       uint64
	End         uint64
	HasRange    bool
	Out         string
	Traces      bool
	ExportOnly  bool
	PGDSN       string
	MaxAttempts   int
	TraceAttempts int
	RetryDelay    time.Duration
	BlockDelay    time.Duration
	RPCTimeout    time.Duration
	MetricsAddr   string
	LogLevel      string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetDefault("out", "capture")
	v.SetDefault("traces", true)
	v.SetDefault("max-attempts", 8)
	v.SetDefault("trace-attempts", 1)
	v.SetDefault("retry-delay", 2*time.Second)
	v.SetDefault("block-delay", 500*time.Millisecond)
	v.SetDefault("rpc-timeout", 60*time.Second)
	v.SetDefault("log-level", "info")

	if err := v.BindEnv("rpc", envPrefix+"_RPC", "RPC_URL"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}
	if err := read(v, cfgFile, flags); err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:      v.GetString("rpc"),
		Start:       v.GetUint64("start"),
		End:         v.GetUint64("end"),
		HasRange:    v.IsSet("start") && v.IsSet("end"),
		Out:         v.GetString("out"),
		Traces:      v.GetBool("traces") && !v.GetBool("no-traces"),
		ExportOnly:  v.GetBool("export-only"),
		PGDSN:       v.GetString("pg-dsn"),
		MaxAttempts:   v.GetInt("max-attempts"),
		TraceAttempts: v.GetInt("trace-attempts"),
		RetryDelay:    v.GetDuration("retry-delay"),
		BlockDelay:    v.GetDuration("block-delay"),
		RPCTimeout:    v.GetDuration("rpc-timeout"),
		MetricsAddr:   v.GetString("metrics-addr"),
		LogLevel:      v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the argument rules of a capture run.
func (c Config) Validate() error {
	if c.Out == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.ExportOnly {
		return nil
	}
	if !c.HasRange {
		return fmt.Errorf("--start and --end are required unless --export-only is set")
	}
	if c.End < c.Start {
		return fmt.Errorf("--end (%d) must be >= --start (%d)", c.End, c.Start)
	}
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required (--rpc, %s_RPC or RPC_URL)", envPrefix)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1")
	}
	return nil
}

// StorePath is the SQLite database inside the output directory.
func (c Config) StorePath() string {
	return filepath.Join(c.Out, "capture.db")
}

// RPCHost is the endpoint without path, query or credentials, where
// providers usually put API keys.
func (c Config) RPCHost() string {
	u, err := url.Parse(c.RPCURL)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return u.Host
}

func read(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}
	return nil
}
