package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ReplayConfig holds configuration for the replay command.
type ReplayConfig struct {
	Data     string
	DB       string
	PGDSN    string
	LogLevel string
}

// LoadReplay merges config file, environment variables, and flags into ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v := viper.New()
	v.SetDefault("db", "ethereum.db")
	v.SetDefault("log-level", "info")

	if err := read(v, cfgFile, flags); err != nil {
		return ReplayConfig{}, err
	}

	cfg := ReplayConfig{
		Data:     v.GetString("data"),
		DB:       v.GetString("db"),
		PGDSN:    v.GetString("pg-dsn"),
		LogLevel: v.GetString("log-level"),
	}
	if cfg.Data == "" {
		return ReplayConfig{}, fmt.Errorf("--data is required")
	}
	if cfg.DB == "" && cfg.PGDSN == "" {
		return ReplayConfig{}, fmt.Errorf("--db or --pg-dsn is required")
	}
	return cfg, nil
}
