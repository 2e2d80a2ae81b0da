// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// A Level is a logging priority. Higher levels are more important.
type Level int8

// Logging levels (matching zap core internals).
const (
	// DebugLevel logs are typically voluminous, and are usually disabled in
	// production.
	DebugLevel Level = -1
	// InfoLevel is the default logging priority.
	InfoLevel Level = 0
	// WarnLevel logs are more important than Info, but don't need individual
	// human review.
	WarnLevel Level = 1
	// ErrorLevel logs are high-priority. If an application is running smoothly,
	// it shouldn't generate any error-level logs.
	ErrorLevel Level = 2
	// PanicLevel logs a message, then panics.
	PanicLevel Level = 4
	// FatalLevel logs a message, then calls os.Exit(1).
	FatalLevel Level = 5
)

// ParseLevel parse a log level from a string.
func ParseLevel(l string) (Level, error) {
	switch strings.ToLower(l) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warning", "warn":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "panic":
		return PanicLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return Level(100), fmt.Errorf("log level \"%s\" is not supported", l)
	}
}

// String converts a log level to its string representation.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "Debug"
	case InfoLevel:
		return "Info"
	case WarnLevel:
		return "Warning"
	case ErrorLevel:
		return "Error"
	case PanicLevel:
		return "Panic"
	case FatalLevel:
		return "Fatal"
	default:
		return "Unknown"
	}
}

// ZapLevel returns the zap level for the logging level.
func (l *Level) ZapLevel() zapcore.Level {
	return zapcore.Level(*l)
}

// Logger is an abstraction on top of the zap logger.
type Logger struct {
	*zap.Logger
	config      *zap.Config
	environment string
	name        string
}

func (log *Logger) Clone() *Logger {
	newConfig := cloneConfig(log.config)
	newLogger, err := newConfig.Build()
	if err != nil {
		panic(err)
	}
	return New(newLogger, newConfig, log.environment, log.name)
}

// GetLevel returns the log level.
func (log *Logger) GetLevel() Level {
	return (Level)(log.config.Level.Level())
}

// IsDebug returns true if the logger would emit debug entries.
func (log *Logger) IsDebug() bool {
	return log.GetLevel() == DebugLevel
}

func (log *Logger) GetLevelString() string {
	return log.config.Level.String()
}

func (log *Logger) GetEnvironment() string {
	return log.environment
}

func (log *Logger) GetName() string {
	return log.name
}

// Named instantiates a new logger which will be prefixed with the name
// of its parent, if any.
func (log *Logger) Named(name string) *Logger {
	c := log.Clone()
	newName := name
	if log.name != "" {
		newName = fmt.Sprintf("%s.%s", log.name, name)
	}
	return New(c.Logger.Named(newName), c.config, c.environment, newName)
}

// SetLevel sets the level of the logger.
func (log *Logger) SetLevel(level Level) {
	lvl := (zapcore.Level)(level)
	if log.config.Level.Level() == lvl {
		return
	}
	log.config.Level.SetLevel(lvl)
}

// With adds structured context to the logger.
func (log *Logger) With(fields ...zap.Field) *Logger {
	c := log.Clone()
	return New(c.Logger.With(fields...), c.config, c.environment, c.name)
}

// AtExit flushes the logs before exiting the process. Useful when an
// app shuts down so we store all logging possible. This is meant to be used
// with defer when initializing your logger.
func (log *Logger) AtExit() {
	if log.Logger != nil {
		_ = log.Logger.Sync()
	}
}

// Errorf implement the formatted logging interface used by storage libraries.
func (log *Logger) Errorf(s string, args ...interface{}) {
	log.Logger.WithOptions(zap.AddCallerSkip(2)).Sugar().Errorf(strings.TrimSpace(s), args...)
}

// Warningf implement the formatted logging interface used by storage libraries.
func (log *Logger) Warningf(s string, args ...interface{}) {
	log.Logger.WithOptions(zap.AddCallerSkip(2)).Sugar().Warnf(strings.TrimSpace(s), args...)
}

// Infof implement the formatted logging interface used by storage libraries.
func (log *Logger) Infof(s string, args ...interface{}) {
	log.Logger.WithOptions(zap.AddCallerSkip(2)).Sugar().Infof(strings.TrimSpace(s), args...)
}

// Debugf implement the formatted logging interface used by storage libraries.
func (log *Logger) Debugf(s string, args ...interface{}) {
	log.Logger.WithOptions(zap.AddCallerSkip(2)).Sugar().Debugf(strings.TrimSpace(s), args...)
}

// New instantiate a new logger from an existing zap logger and its configuration.
func New(zapLogger *zap.Logger, zapConfig *zap.Config, environment, name string) *Logger {
	return &Logger{
		Logger:      zapLogger,
		config:      zapConfig,
		environment: environment,
		name:        name,
	}
}

// NewDevLogger creates a new logger suitable for development environments.
func NewDevLogger() *Logger {
	return NewLoggerFromConfig(NewDefaultConfig())
}

// NewTestLogger creates a new logger suitable for tests.
func NewTestLogger() *Logger {
	cfg := NewDefaultConfig()
	cfg.Environment = "test"
	return NewLoggerFromConfig(cfg)
}

// NewProdLogger creates a new logger suitable for production environments,
// including sending logs to ElasticSearch.
func NewProdLogger() *Logger {
	cfg := NewDefaultConfig()
	cfg.Environment = "prod"
	return NewLoggerFromConfig(cfg)
}

// NewLoggerFromConfig creates a logger according to the given custom config.
func NewLoggerFromConfig(config Config) *Logger {
	var zapConfig zap.Config
	switch config.Environment {
	case "dev":
		zapConfig = config.Dev.ZapConfig()
	case "test":
		zapConfig = zap.Config{
			Level:            zap.NewAtomicLevelAt(zapcore.ErrorLevel),
			Development:      true,
			Encoding:         "console",
			EncoderConfig:    config.Dev.ZapConfig().EncoderConfig,
			OutputPaths:      []string{"stderr"},
			ErrorOutputPaths: []string{"stderr"},
		}
	default:
		zapConfig = config.Custom.ZapConfig()
	}

	zapLogger, err := zapConfig.Build()
	if err != nil {
		// fall back to a bare core writing to stdout
		encoder := zapcore.NewJSONEncoder(zapConfig.EncoderConfig)
		core := zapcore.NewCore(encoder, os.Stdout, zapConfig.Level)
		zapLogger = zap.New(core)
	}
	return New(zapLogger, &zapConfig, config.Environment, "")
}

func cloneConfig(cfg *zap.Config) *zap.Config {
	c := zap.Config{
		Level:             zap.NewAtomicLevelAt(cfg.Level.Level()),
		Development:       cfg.Development,
		DisableCaller:     cfg.DisableCaller,
		DisableStacktrace: cfg.DisableStacktrace,
		Sampling:          nil,
		Encoding:          cfg.Encoding,
		EncoderConfig:     cfg.EncoderConfig,
		OutputPaths:       cfg.OutputPaths,
		ErrorOutputPaths:  cfg.ErrorOutputPaths,
		InitialFields:     make(map[string]interface{}),
	}
	for k, v := range cfg.InitialFields {
		c.InitialFields[k] = v
	}
	if cfg.Sampling != nil {
		c.Sampling = &zap.SamplingConfig{
			Initial:    cfg.Sampling.Initial,
			Thereafter: cfg.Sampling.Thereafter,
		}
	}
	return &c
}
