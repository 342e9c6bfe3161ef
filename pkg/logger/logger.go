package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L: глобальный логгер для мест, куда fx его не доносит (pkg/db, pkg/tracing).
var L *zap.Logger

var (
	serviceName = "default"
)

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName

	return oldName
}

// Init собирает логгер; level=debug — development-конфиг с цветным выводом.
func Init(level string) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if strings.EqualFold(level, "debug") {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		l, err = cfg.Build()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		l, err = cfg.Build()
	}
	if err != nil {
		return nil, fmt.Errorf("logger.Init: %w", err)
	}
	L = l.With(zap.String("service", serviceName))
	return L, nil
}

func Error(format string, args ...interface{}) {
	if L == nil {
		panic("logger is not initialized")
	}

	L.Error(fmt.Sprintf(format, args...))
}
