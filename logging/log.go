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
	"gopkg.in/natefinch/lumberjack.v2"
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

// String return a string representation of the log level.
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

// ZapLevel return the log level of internal zap level.
func (l *Level) ZapLevel() zapcore.Level {
	return zapcore.Level(*l)
}

// Logger is an abstraction on top of the zap logger.
type Logger struct {
	*zap.Logger
	config      *zap.Config
	environment string
	name        string
	rotate      *lumberjack.Logger
}

func (log *Logger) clone() *Logger {
	newConfig := cloneConfig(log.config)
	return &Logger{
		Logger:      build(newConfig, log.rotate),
		config:      newConfig,
		environment: log.environment,
		name:        log.name,
		rotate:      log.rotate,
	}
}

// GetLevel returns the log level.
func (log *Logger) GetLevel() Level {
	return (Level)(log.config.Level.Level())
}

// IsDebug returns true if logger level is less or equal to DebugLevel.
func (log *Logger) IsDebug() bool {
	return log.GetLevel() <= DebugLevel
}

// GetLevelString return a string representation of the current
// log level.
func (log *Logger) GetLevelString() string {
	return log.config.Level.String()
}

// GetEnvironment returns the environment the logger was built for.
func (log *Logger) GetEnvironment() string {
	return log.environment
}

// GetName returns the full name of the logger.
func (log *Logger) GetName() string {
	return log.name
}

// Named instantiate a new logger by cloning it first
// and name it with the string specified.
func (log *Logger) Named(name string) *Logger {
	c := log.clone()
	newName := name
	if log.name != "" {
		newName = fmt.Sprintf("%s.%s", log.name, name)
	}
	c.name = newName
	c.Logger = c.Logger.Named(newName)
	return c
}

// SetLevel change the level of this logger.
func (log *Logger) SetLevel(level Level) {
	lvl := (zapcore.Level)(level)
	if log.config.Level.Level() == lvl {
		return
	}
	log.config.Level.SetLevel(lvl)
}

// With will add default field to each logs.
func (log *Logger) With(fields ...zap.Field) *Logger {
	c := log.clone()
	c.Logger = c.Logger.With(fields...)
	return c
}

// AtExit flushes the logs before exiting the process. Useful when an
// app shuts down so we store all logging possible. This is meant to be used
// with defer when initializing your logger.
func (log *Logger) AtExit() {
	if log.Logger != nil {
		_ = log.Logger.Sync()
	}
	if log.rotate != nil {
		_ = log.rotate.Close()
	}
}

// Errorf implement badger interface.
func (log *Logger) Errorf(s string, args ...interface{}) {
	log.Logger.WithOptions(zap.AddCallerSkip(2)).Sugar().Errorf(strings.TrimSpace(s), args...)
}

// Warningf implement badger interface.
func (log *Logger) Warningf(s string, args ...interface{}) {
	log.Logger.WithOptions(zap.AddCallerSkip(2)).Sugar().Warnf(strings.TrimSpace(s), args...)
}

// Infof implement badger interface.
func (log *Logger) Infof(s string, args ...interface{}) {
	log.Logger.WithOptions(zap.AddCallerSkip(2)).Sugar().Infof(strings.TrimSpace(s), args...)
}

// Debugf implement badger interface.
func (log *Logger) Debugf(s string, args ...interface{}) {
	log.Logger.WithOptions(zap.AddCallerSkip(2)).Sugar().Debugf(strings.TrimSpace(s), args...)
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

// build creates the zap logger for a config. Stdout is always written to,
// the rotating file only when configured.
func build(config *zap.Config, rotate *lumberjack.Logger) *zap.Logger {
	var sink zapcore.WriteSyncer = zapcore.AddSync(os.Stdout)
	if rotate != nil {
		sink = zapcore.NewMultiWriteSyncer(sink, zapcore.AddSync(rotate))
	}

	var encoder zapcore.Encoder
	if config.Encoding == "console" {
		encoder = zapcore.NewConsoleEncoder(config.EncoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(config.EncoderConfig)
	}

	core := zapcore.NewCore(encoder, sink, config.Level)
	opts := []zap.Option{zap.AddCaller()}
	if config.Development {
		opts = append(opts, zap.Development())
	}
	return zap.New(core, opts...)
}

func newLoggerFromConfig(env string, config zap.Config, rotate *lumberjack.Logger) *Logger {
	return &Logger{
		Logger:      build(&config, rotate),
		config:      &config,
		environment: env,
		rotate:      rotate,
	}
}

// NewLoggerFromConfig instantiate a logger based on the package configuration.
func NewLoggerFromConfig(cfg Config) *Logger {
	zcfg := newZapConfig(cfg.Environment)
	if cfg.Custom != nil {
		zcfg.Encoding = cfg.Custom.Zap.Encoding
		if lvl, err := ParseLevel(cfg.Custom.Zap.Level); err == nil {
			zcfg.Level = zap.NewAtomicLevelAt(lvl.ZapLevel())
		}
	}

	var rotate *lumberjack.Logger
	if cfg.File.Enabled && cfg.File.Path != "" {
		rotate = &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		}
	}
	return newLoggerFromConfig(cfg.Environment, zcfg, rotate)
}

// NewDevLogger creates a new logger suitable for development environments.
func NewDevLogger() *Logger {
	return newLoggerFromConfig("dev", newZapConfig("dev"), nil)
}

// NewProdLogger creates a new logger suitable for production environments,
// including sending logs to ElasticSearch.
func NewProdLogger() *Logger {
	return newLoggerFromConfig("prod", newZapConfig("prod"), nil)
}

// NewTestLogger creates a new logger suitable for golang unit test
// environments, ie when running "go test ./...".
func NewTestLogger() *Logger {
	cfg := newZapConfig("dev")
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(InfoLevel))
	return newLoggerFromConfig("test", cfg, nil)
}

func newZapConfig(env string) zap.Config {
	/*
		Choices: (with "*" for default)
		CallerEncoder: full*
		DurationEncoder: nanos, seconds*, string
		LevelEncoder: capital, capitalColor, color, lowercase*
		NameEncoder: full*
		TimeEncoder: epoch*, iso8601, millis, nanos
	*/
	if env == "dev" {
		return zap.Config{
			Level:       zap.NewAtomicLevelAt(zapcore.Level(DebugLevel)),
			Development: true,
			Encoding:    "console",
			EncoderConfig: zapcore.EncoderConfig{
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
			},
			OutputPaths:      []string{"stdout"},
			ErrorOutputPaths: []string{"stderr"},
		}
	}
	return zap.Config{
		Level:       zap.NewAtomicLevelAt(zapcore.Level(InfoLevel)),
		Development: false,
		Encoding:    "json",
		EncoderConfig: zapcore.EncoderConfig{
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
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}
