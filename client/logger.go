package client

import "go.uber.org/zap"

var (
	_ Logger = (*zapLogger)(nil)
	_ Logger = nopLogger{}
)

// zapLogger 基于 zap 的 Logger 实现
type zapLogger struct {
	lg *zap.SugaredLogger
}

// NewZapLogger 将 *zap.Logger 适配为客户端 Logger
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		return NewNopLogger()
	}
	// AddCallerSkip(1) 跳过适配层，调用位置指向真正的调用方
	return &zapLogger{lg: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (z *zapLogger) Debug(msg string, args ...interface{}) { z.lg.Debugw(msg, args...) }
func (z *zapLogger) Info(msg string, args ...interface{})  { z.lg.Infow(msg, args...) }
func (z *zapLogger) Warn(msg string, args ...interface{})  { z.lg.Warnw(msg, args...) }
func (z *zapLogger) Error(msg string, args ...interface{}) { z.lg.Errorw(msg, args...) }

// nopLogger 丢弃所有日志
type nopLogger struct{}

// NewNopLogger 返回不输出任何内容的 Logger
func NewNopLogger() Logger {
	return nopLogger{}
}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
