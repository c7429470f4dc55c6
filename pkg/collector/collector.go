// Package collector polls every configured source at each cadence boundary
// and persists validated payloads as timestamped snapshots.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/outage-collector/pkg/alert"
	"github.com/outage-collector/pkg/config"
	"github.com/outage-collector/pkg/metrics"
	"github.com/outage-collector/pkg/schedule"
	"github.com/outage-collector/pkg/snapshot"
)

// Collector 采集器：一个周期内顺序抓取所有数据源，单个失败不影响其他
type Collector struct {
	sources  *Registry
	store    *snapshot.Store
	fetcher  Fetcher
	notifier alert.Notifier
	metrics  *metrics.CollectorMetrics
	clock    clockwork.Clock
	sched    *schedule.Scheduler
	status   *StatusTable
	log      *zap.Logger
}

// PassResult 一次周期的汇总
type PassResult struct {
	Tick      time.Time
	Succeeded []string
	Failed    map[string]error
}

type Option func(*Collector)

func WithFetcher(f Fetcher) Option { return func(c *Collector) { c.fetcher = f } }
func WithNotifier(n alert.Notifier) Option { return func(c *Collector) { c.notifier = n } }
func WithMetrics(m *metrics.CollectorMetrics) Option { return func(c *Collector) { c.metrics = m } }
func WithClock(clock clockwork.Clock) Option { return func(c *Collector) { c.clock = clock } }
func WithLogger(l *zap.Logger) Option { return func(c *Collector) { c.log = l } }

// New 按配置创建采集器。未注入的依赖使用默认实现：HTTP 抓取、日志告警、真实时钟
func New(cfg *config.Config, store *snapshot.Store, opts ...Option) (*Collector, error) {
	cadence, err := schedule.NewCadence(cfg.Store.CadenceMinutes)
	if err != nil {
		return nil, err
	}

	c := &Collector{
		store: store,
		clock: clockwork.NewRealClock(),
		log:   zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.Named("collector")
	if c.fetcher == nil {
		c.fetcher = NewHTTPFetcher(cfg.Collector, c.log)
	}
	if c.notifier == nil {
		c.notifier = alert.NewLogNotifier(c.log)
	}

	c.sources = NewRegistry()
	if err := RegisterSources(c.sources, cfg.Sources, c.log); err != nil {
		return nil, err
	}
	c.status = NewStatusTable(c.sources.Sources())
	c.sched = schedule.New(cadence,
		schedule.WithClock(c.clock),
		schedule.WithMaxSleep(cfg.Collector.MaxSleep),
		schedule.WithLocation(store.Location()),
		schedule.WithLogger(c.log),
	)
	return c, nil
}

func (c *Collector) Status() *StatusTable { return c.status }
func (c *Collector) Sources() []config.SourceConfig { return c.sources.Sources() }

// FetchAndPersist 抓取、校验并写入一个快照，文件名取 at（周期边界）而非完成时间。
// 返回 *DecodeError 或 *FetchError；失败已记录日志并发出告警
func (c *Collector) FetchAndPersist(ctx context.Context, src config.SourceConfig, at time.Time) (err error) {
	start := c.clock.Now()
	var path string
	var written int

	defer func() {
		if r := recover(); r != nil {
			err = &FetchError{Source: src.Name, At: at, Err: fmt.Errorf("panic: %v", r)}
		}
		c.finish(ctx, src, at, c.clock.Since(start), path, written, err)
	}()

	body, err := c.fetcher.Fetch(ctx, src.Endpoint)
	if err != nil {
		return &FetchError{Source: src.Name, At: at, Err: err}
	}
	if err := validateDocument(body); err != nil {
		return &DecodeError{Source: src.Name, At: at, Err: err}
	}
	path, err = c.store.Write(src.Name, at, body)
	if err != nil {
		return &FetchError{Source: src.Name, At: at, Err: err}
	}
	written = len(body)
	return nil
}

func (c *Collector) finish(ctx context.Context, src config.SourceConfig, at time.Time, took time.Duration, path string, written int, err error) {
	outcome := metrics.OutcomeSuccess
	var message string
	var decodeErr *DecodeError
	var fetchErr *FetchError
	switch {
	case err == nil:
	case errors.As(err, &decodeErr):
		outcome = metrics.OutcomeDecodeError
		message = decodeAlert(src.Name, at)
	case errors.As(err, &fetchErr):
		outcome = metrics.OutcomeFetchError
		message = fetchAlert(src.Name, at, fetchErr.Err)
	default:
		outcome = metrics.OutcomeFetchError
		message = fetchAlert(src.Name, at, err)
	}

	if c.metrics != nil {
		c.metrics.ObserveFetch(src.Name, outcome, took, written, at)
	}
	c.status.record(src.Name, outcome, at, path, err)

	if err == nil {
		c.log.Info("collection succeeded",
			zap.String("source", src.Name),
			zap.String("path", path),
			zap.Int("bytes", written),
			zap.Duration("took", took))
		return
	}
	c.log.Warn("collection failed",
		zap.String("source", src.Name),
		zap.String("outcome", outcome),
		zap.Time("tick", at),
		zap.Error(err))
	c.alert(ctx, message)
}

// alert 发送失败只记录日志，不影响采集
func (c *Collector) alert(ctx context.Context, message string) {
	err := c.notifier.Notify(context.WithoutCancel(ctx), message)
	result := "sent"
	if err != nil {
		result = "failed"
		c.log.Warn("alert delivery failed", zap.String("message", message), zap.Error(err))
	}
	if c.metrics != nil {
		c.metrics.AlertsTotal.WithLabelValues(result).Inc()
	}
}

// RunPass 顺序抓取所有数据源，所有快照使用同一个 tick 作为时间戳
func (c *Collector) RunPass(ctx context.Context, tick time.Time) PassResult {
	start := c.clock.Now()
	res := PassResult{Tick: tick, Failed: make(map[string]error)}
	for _, src := range c.sources.Sources() {
		if ctx.Err() != nil {
			break
		}
		if err := c.FetchAndPersist(ctx, src, tick); err != nil {
			res.Failed[src.Name] = err
			continue
		}
		res.Succeeded = append(res.Succeeded, src.Name)
	}

	took := c.clock.Since(start)
	if c.metrics != nil {
		c.metrics.PassDuration.Observe(took.Seconds())
		if err := c.metrics.UpdateStoreUsage(ctx, c.store.Root()); err != nil {
			c.log.Debug("store usage unavailable", zap.Error(err))
		}
	}
	c.log.Info("collection pass finished",
		zap.Time("tick", tick),
		zap.Int("succeeded", len(res.Succeeded)),
		zap.Int("failed", len(res.Failed)),
		zap.Duration("took", took))
	return res
}

// RunForever 阻塞运行直到 ctx 取消（返回 nil）或调度循环失败（返回 *FatalError，已告警）
func (c *Collector) RunForever(ctx context.Context) error {
	c.log.Info("collector started",
		zap.String("root", c.store.Root()),
		zap.Int("sources", c.sources.Len()))

	err := c.loop(ctx)
	if ctx.Err() != nil && (err == nil || errors.Is(err, ctx.Err())) {
		c.log.Info("collector stopped", zap.Error(ctx.Err()))
		return nil
	}
	if err == nil {
		err = errors.New("scheduling loop exited unexpectedly")
	}

	fatal := &FatalError{At: c.clock.Now().In(c.store.Location()), Err: err}
	c.log.Error("collector failed", zap.Error(fatal))
	c.alert(ctx, fatalAlert(fatal.At, err))
	return fatal
}

func (c *Collector) loop(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in scheduling loop: %v", r)
		}
	}()
	if err := c.store.EnsureDirs(c.sources.Names()); err != nil {
		return fmt.Errorf("prepare store: %w", err)
	}
	return c.sched.Run(ctx, func(ctx context.Context, tick time.Time) {
		c.RunPass(ctx, tick)
	})
}
