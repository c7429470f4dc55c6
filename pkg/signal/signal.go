package signal

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// WaitForShutdown 阻塞直到收到 SIGINT/SIGTERM 或 done 返回，然后执行优雅关闭（带超时）。
// 返回 done 送出的错误，收到信号时返回 nil
func WaitForShutdown(logger *zap.Logger, done <-chan error, shutdownFunc func() error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("service running, waiting for SIGINT/SIGTERM...")

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case runErr = <-done:
		if runErr != nil {
			logger.Error("service stopped with error", zap.Error(runErr))
		} else {
			logger.Info("service stopped")
		}
	}

	// 超时控制关闭逻辑
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	finished := make(chan error, 1)
	go func() { finished <- shutdownFunc() }()

	select {
	case err := <-finished:
		if err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Warn("shutdown timed out", zap.Duration("timeout", shutdownTimeout))
	}
	logger.Info("shutdown completed")
	return runErr
}
