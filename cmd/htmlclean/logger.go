package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// loggerConfig selects how the CLI logs to stderr.
type loggerConfig struct {
	Development bool
	Level       zapcore.Level
}

// newLogger builds a console logger in development mode and a JSON
// logger otherwise.
func newLogger(config loggerConfig) (*zap.Logger, error) {
	var zapConfig zap.Config
	if config.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.DisableStacktrace = true
	}
	zapConfig.Level = zap.NewAtomicLevelAt(config.Level)

	l, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return l.With(zap.String("service", "htmlclean")), nil
}

// newLoggerFromEnv reads HTMLCLEAN_DEVELOPMENT and HTMLCLEAN_LOG_LEVEL,
// after loading a .env file from the working directory if there is one.
func newLoggerFromEnv() (*zap.Logger, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	config, err := loggerConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return newLogger(config)
}

func loggerConfigFromEnv() (loggerConfig, error) {
	config := loggerConfig{
		Development: getEnvOrDefault("HTMLCLEAN_DEVELOPMENT", "false") == "true",
		Level:       zapcore.WarnLevel,
	}
	if config.Development {
		config.Level = zapcore.DebugLevel
	}
	if s := os.Getenv("HTMLCLEAN_LOG_LEVEL"); s != "" {
		level, err := zapcore.ParseLevel(s)
		if err != nil {
			return config, fmt.Errorf("HTMLCLEAN_LOG_LEVEL: %w", err)
		}
		config.Level = level
	}
	return config, nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
