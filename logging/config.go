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
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config contains the configurable items for this package.
type Config struct {
	Environment string    `choice:"dev" choice:"prod" choice:"test" description:"Logging environment" long:"env"`
	Dev         ZapConfig `group:"Dev"    namespace:"dev"`
	Custom      ZapConfig `group:"Custom" namespace:"custom"`
}

// ZapConfig is the subset of the zap configuration exposed in the config file.
type ZapConfig struct {
	Level            string   `description:"Minimum level"  long:"level"`
	Encoding         string   `choice:"json" choice:"console" description:"Encoding" long:"encoding"`
	OutputPaths      []string `description:"Output paths"   long:"output-paths"`
	ErrorOutputPaths []string `description:"Error paths"    long:"error-output-paths"`
	Development      bool     `description:"Development mode" long:"development"`
}

// NewDefaultConfig creates an instance of the package-specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Environment: "dev",
		Dev: ZapConfig{
			Level:            "debug",
			Encoding:         "console",
			OutputPaths:      []string{"stdout"},
			ErrorOutputPaths: []string{"stderr"},
			Development:      true,
		},
		Custom: ZapConfig{
			Level:            "info",
			Encoding:         "json",
			OutputPaths:      []string{"stdout"},
			ErrorOutputPaths: []string{"stderr"},
		},
	}
}

// ZapConfig converts the file representation into a zap configuration.
func (c ZapConfig) ZapConfig() zap.Config {
	lvl, err := ParseLevel(c.Level)
	if err != nil {
		lvl = InfoLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		CallerKey:      "caller",
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeName:     zapcore.FullNameEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		LevelKey:       "level",
		LineEnding:     "\n",
		MessageKey:     "message",
		NameKey:        "logger",
		StacktraceKey:  "stacktrace",
		TimeKey:        "@timestamp",
	}
	if c.Encoding == "console" {
		encoderConfig = zapcore.EncoderConfig{
			CallerKey:      "C",
			EncodeCaller:   zapcore.ShortCallerEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeName:     zapcore.FullNameEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			LevelKey:       "L",
			LineEnding:     "\n",
			MessageKey:     "M",
			NameKey:        "N",
			TimeKey:        "T",
		}
	}

	return zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl.ZapLevel()),
		Development:      c.Development,
		Encoding:         c.Encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      c.OutputPaths,
		ErrorOutputPaths: c.ErrorOutputPaths,
	}
}
