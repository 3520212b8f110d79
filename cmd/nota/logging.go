package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"nota/internal/config"
)

const logLevelEnvKey = "NOTA_LOG_LEVEL"

func configureLoggerForCLI(flagLevel string, cfg *config.Config) error {
	rawLevel := selectedLogLevel(flagLevel, os.Getenv(logLevelEnvKey), cfg.LogLevel)
	level, err := parseLogLevel(rawLevel)
	if err != nil {
		if strings.TrimSpace(flagLevel) != "" {
			return fmt.Errorf("invalid --log-level %q", flagLevel)
		}
		level, _ = parseLogLevel(config.DefaultLogLevel)
		fmt.Fprintf(os.Stderr, "warning: invalid log level %q; defaulting to %s\n", rawLevel, config.DefaultLogLevel)
	}

	var sink io.Writer = os.Stderr
	if cfg.LogFile != "" {
		sink = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		}
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(sink, &slog.HandlerOptions{Level: level})))
	return nil
}

func selectedLogLevel(flagLevel, envLevel, configLevel string) string {
	if strings.TrimSpace(flagLevel) != "" {
		return flagLevel
	}
	if strings.TrimSpace(envLevel) != "" {
		return envLevel
	}
	if strings.TrimSpace(configLevel) != "" {
		return configLevel
	}
	return config.DefaultLogLevel
}

func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		value = config.DefaultLogLevel
	}
	if strings.EqualFold(value, "warning") {
		value = "warn"
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelWarn, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}
