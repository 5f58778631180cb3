package xzap

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ProjectsTask/EasySwapAgent/logger"
)

var globalLogger atomic.Pointer[zap.Logger]

func init() {
	l, _ := zap.NewProduction()
	globalLogger.Store(l)
}

// SetUp builds the process logger from the config and installs it as the
// package global used by WithContext.
func SetUp(c logger.LogConf) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if c.Level != "" {
		if err := level.Set(c.Level); err != nil {
			return nil, err
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var ws zapcore.WriteSyncer
	var enc zapcore.Encoder
	if c.Mode == "file" && c.Path != "" {
		keepDays := c.KeepDays
		if keepDays <= 0 {
			keepDays = 7
		}
		maxSize := c.MaxSize
		if maxSize <= 0 {
			maxSize = 100
		}
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename: filepath.Join(c.Path, c.ServiceName+".log"),
			MaxSize:  maxSize,
			MaxAge:   keepDays,
			Compress: c.Compress,
		})
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		ws = zapcore.AddSync(os.Stdout)
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, ws, level)
	l := zap.New(core, zap.AddCaller())
	if c.ServiceName != "" {
		l = l.With(zap.String("service", c.ServiceName))
	}

	globalLogger.Store(l)
	zap.ReplaceGlobals(l)
	return l, nil
}

// WithContext returns the process logger. The context is accepted so call
// sites keep the request scope explicit even though no fields are derived
// from it yet.
func WithContext(_ context.Context) *zap.Logger {
	return globalLogger.Load()
}
