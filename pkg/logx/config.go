package logx

import (
	"os"
	"strings"
)

type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

type Config struct {
	Level        Level
	Format       Format
	EnableCaller bool
}

func DefaultConfig() Config {
	return Config{Level: LevelInfo, Format: FormatConsole}
}

// LoadFromEnv reads LOG_LEVEL, LOG_FORMAT and LOG_CALLER.
func LoadFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Level = ParseLevel(v)
	}
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), string(FormatJSON)) {
		cfg.Format = FormatJSON
	}
	cfg.EnableCaller = os.Getenv("LOG_CALLER") == "true"
	return cfg
}
