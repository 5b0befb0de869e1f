// Package logging builds the service logger. Application code logs
// through ectologger; this package routes those entries into a zap
// core so output encoding and level filtering stay in one place.
package logging

import (
	"encoding/json"
	"strings"

	"github.com/Gobusters/ectologger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns the configured logger and a flush function for shutdown.
func New(level string, pretty bool) (ectologger.Logger, func() error) {
	cfg := zap.NewProductionConfig()
	if pretty {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	zl, err := cfg.Build(zap.WithCaller(false))
	if err != nil {
		zl = zap.NewNop()
	}

	logger := ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		entry := map[string]any{}
		if b, err := json.Marshal(msg); err == nil {
			_ = json.Unmarshal(b, &entry)
		}

		text, _ := entry["message"].(string)
		if text == "" {
			text, _ = entry["msg"].(string)
		}
		lvl, _ := entry["level"].(string)

		fields := make([]zap.Field, 0, len(entry))
		for k, v := range entry {
			switch k {
			case "message", "msg", "level":
				continue
			}
			fields = append(fields, zap.Any(k, v))
		}

		switch strings.ToLower(lvl) {
		case "debug":
			zl.Debug(text, fields...)
		case "warn", "warning":
			zl.Warn(text, fields...)
		case "error", "fatal", "panic":
			zl.Error(text, fields...)
		default:
			zl.Info(text, fields...)
		}
	})

	return logger, zl.Sync
}
