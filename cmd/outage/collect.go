package outage

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/outage-collector/cmd/server"
	"github.com/outage-collector/pkg/alert"
	"github.com/outage-collector/pkg/collector"
	"github.com/outage-collector/pkg/config"
	"github.com/outage-collector/pkg/logger"
	"github.com/outage-collector/pkg/metrics"
	"github.com/outage-collector/pkg/signal"
	"github.com/outage-collector/pkg/util"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run the collector: fetch every source at each cadence boundary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCollect(cmd.Context(), GlobalCfg)
	},
}

func initCollectorFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	f.Duration("collector.timeout", defaultCfg.Collector.Timeout, "-> Per request timeout (单次请求超时时间)")
	f.Duration("collector.max_sleep", defaultCfg.Collector.MaxSleep, "-> Longest single sleep while waiting for a boundary (最长单次休眠)")
	f.String("collector.user_agent", defaultCfg.Collector.UserAgent, "-> User-Agent header (请求UA)")
}

func runCollect(ctx context.Context, cfg *config.Config) error {
	util.PrintBanner(os.Stdout, "outage-collector", "ColorBlue",
		fmt.Sprintf("%d sources every %d minutes -> %s", len(cfg.Sources), cfg.Store.CadenceMinutes, cfg.Store.Root))
	log := logger.GetLogger()

	store, err := newStore(cfg)
	if err != nil {
		return err
	}

	registry := metrics.NewRegistry(true)
	collectorMetrics := metrics.NewCollectorMetrics(metrics.NewPromRegistry(registry))
	c, err := collector.New(cfg, store,
		collector.WithLogger(log),
		collector.WithMetrics(collectorMetrics),
		collector.WithNotifier(alert.FromConfig(cfg.Alert, log)),
	)
	if err != nil {
		return fmt.Errorf("create collector: %w", err)
	}

	var httpServer *server.Server
	if cfg.Server.Enable {
		httpServer = server.NewHTTPServer(cfg.Server, log, registry, c.Status())
		if err := httpServer.Start(); err != nil {
			return fmt.Errorf("start HTTP server failed: %w", err)
		}
	}

	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		done <- c.RunForever(runCtx)
	}()

	// 关闭顺序：采集循环 → HTTP服务
	return signal.WaitForShutdown(log, done, func() error {
		cancel()
		<-stopped
		if httpServer != nil {
			if err := httpServer.Shutdown(); err != nil {
				return fmt.Errorf("shutdown HTTP server failed: %w", err)
			}
		}
		logger.Info("all services shutdown successfully", zap.String("root", cfg.Store.Root))
		return nil
	})
}
