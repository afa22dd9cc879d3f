package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const prodEnv = "prod"

// NewNamed builds the process logger. Production uses JSON output at info level,
// every other environment a colored console encoder at debug level.
func NewNamed(appEnv, name string) (*zap.Logger, error) {
	var cfg zap.Config
	if appEnv == prodEnv {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Named(name).With(zap.String("env", appEnv)), nil
}
