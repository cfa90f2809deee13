package logger

import (
  "os"
  "strings"

  "go.uber.org/zap"
  "go.uber.org/zap/zapcore"
)

// Log starts as a no-op logger so packages and tests can log before Init runs.
var Log = zap.NewNop()

// Init replaces Log with a logger tagged with service. LOG_LEVEL picks the
// minimum level and LOG_FORMAT=console switches from JSON to console output.
func Init(service string) error {
  cfg := buildConfig(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
  l, err := cfg.Build(zap.Fields(zap.String("service", service)))
  if err != nil {
    return err
  }
  Log = l
  return nil
}

// Named returns a child of the global logger for one component of a service.
func Named(component string) *zap.Logger {
  return Log.Named(component)
}

func buildConfig(level, format string) zap.Config {
  cfg := zap.NewProductionConfig()
  if strings.EqualFold(format, "console") {
    cfg.Encoding = "console"
    cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
  }
  cfg.EncoderConfig.TimeKey = "ts"
  cfg.EncoderConfig.MessageKey = "msg"
  cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
  cfg.Level = zap.NewAtomicLevelAt(levelOf(level))
  // First 10 entries per message each second, then every 100th.
  cfg.Sampling = &zap.SamplingConfig{Initial: 10, Thereafter: 100}
  return cfg
}

// levelOf accepts any zap level name and falls back to info.
func levelOf(s string) zapcore.Level {
  if s == "" {
    return zapcore.InfoLevel
  }
  l, err := zapcore.ParseLevel(strings.ToLower(s))
  if err != nil {
    return zapcore.InfoLevel
  }
  return l
}
