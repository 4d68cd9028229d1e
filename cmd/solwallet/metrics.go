package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const metricsShutdownTimeout = 2 * time.Second

// 可在测试中替换，用于读取命令结束后的指标
var newRegistry = func() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// serveMetrics 在 addr 上暴露 /metrics
//
// 监听失败立即返回错误；stop 关闭服务并等待处理中的抓取结束。
func serveMetrics(addr string, reg *prometheus.Registry, l *zap.Logger) (net.Addr, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen for metrics on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("metrics server stopped", zap.Error(err))
		}
	}()
	l.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			l.Warn("metrics server shutdown", zap.Error(err))
		}
	}
	return ln.Addr(), stop, nil
}
