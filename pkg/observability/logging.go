// Copyright 2026 Presto on YARN contributors
// SPDX-License-Identifier: Apache-2.0

// Package observability provides logger construction for the agent binaries.
package observability

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerConfig holds configuration for the logger.
type LoggerConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string
	// Development enables development mode with more verbose output.
	Development bool
	// Encoding is the log encoding (json or console).
	Encoding string
	// File, when set, sends log output to a rotated file instead of stderr.
	File string
	// MaxSizeMB is the rotation size for File, in megabytes.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept for File.
	MaxBackups int
}

// NewLogger creates a new logr.Logger backed by zap.
func NewLogger(cfg LoggerConfig) (logr.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	if cfg.File != "" {
		return newFileLogger(cfg, level), nil
	}

	var zapCfg zap.Config
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	if cfg.Encoding != "" {
		zapCfg.Encoding = cfg.Encoding
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapLog, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return logr.Discard(), err
	}

	return zapr.NewLogger(zapLog), nil
}

// newFileLogger builds a logger writing to a size-rotated file. The agent
// runs unattended under the deployment framework, so its own output has to
// manage rotation itself.
func newFileLogger(cfg LoggerConfig, level zapcore.Level) logr.Logger {
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	})

	var encCfg zapcore.EncoderConfig
	if cfg.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
	} else {
		encCfg = zap.NewProductionEncoderConfig()
	}

	var enc zapcore.Encoder
	if cfg.Encoding == "console" {
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, sink, level)
	return zapr.NewLogger(zap.New(core, zap.AddCallerSkip(1)))
}
