package chart

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/outage-collector/pkg/config"
	"github.com/outage-collector/pkg/series"
	"github.com/outage-collector/pkg/snapshot"
)

const (
	faultColor  = "#03C03C"
	faultYLabel = "Number of Faults"
)

// Reconstructor 一次性：从快照目录重建曲线并渲染
type Reconstructor struct {
	cfg      config.RenderConfig
	sources  []config.SourceConfig
	cadence  time.Duration
	store    *snapshot.Store
	renderer Renderer
	opener   Opener
	progress io.Writer
	log      *zap.Logger
}

// Result 本次渲染的输出
type Result struct {
	Output     string
	FineOutput string
	Series     int
	Points     int
}

type Option func(*Reconstructor)

func WithRenderer(r Renderer) Option { return func(rc *Reconstructor) { rc.renderer = r } }
func WithOpener(o Opener) Option { return func(rc *Reconstructor) { rc.opener = o } }
func WithProgress(w io.Writer) Option { return func(rc *Reconstructor) { rc.progress = w } }
func WithLogger(l *zap.Logger) Option { return func(rc *Reconstructor) { rc.log = l } }

func NewReconstructor(cfg *config.Config, store *snapshot.Store, opts ...Option) *Reconstructor {
	r := &Reconstructor{
		cfg:      cfg.Render,
		sources:  cfg.Sources,
		cadence:  cfg.Store.Cadence(),
		store:    store,
		renderer: NewEChartsRenderer(),
		opener:   NopOpener{},
		log:      zap.NewNop(),
	}
	if cfg.Render.Open {
		r.opener = BrowserOpener{}
	}
	if cfg.Render.Progress {
		r.progress = os.Stderr
	}
	for _, o := range opts {
		o(r)
	}
	r.log = r.log.Named("reconstructor")
	return r
}

// Run 重建所有常规数据源的曲线写入 render.output；存在不规则数据源时再写 render.fine_output
func (r *Reconstructor) Run(ctx context.Context) (Result, error) {
	var res Result
	refs, err := series.ListSources(r.store, r.sources)
	if err != nil {
		return res, err
	}
	r.log.Info("reconstructing series", zap.String("root", r.store.Root()), zap.Int("sources", len(refs)))

	bar := r.newBar(len(refs))
	palette := Palette(len(refs))
	c := Chart{Title: r.cfg.Title, XLabel: r.cfg.XLabel, YLabel: r.cfg.YLabel}
	extract := series.SumField(r.cfg.ValueField)
	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		points, err := series.LoadSeries(r.store, ref.Name, r.cadence, extract, r.log)
		if err != nil {
			return res, fmt.Errorf("load series %s: %w", ref.Name, err)
		}
		_ = bar.Add(1)
		if len(points) == 0 {
			r.log.Debug("source has no snapshots", zap.String("source", ref.Name))
			continue
		}
		c.Series = append(c.Series, Series{Name: ref.Label, Color: palette[i], Points: points})
		res.Points += len(points)
	}
	_ = bar.Finish()
	res.Series = len(c.Series)

	if res.Output, err = r.write(r.cfg.Output, c); err != nil {
		return res, err
	}
	r.log.Info("chart written", zap.String("path", res.Output), zap.Int("series", res.Series), zap.Int("points", res.Points))
	r.open(res.Output)

	fine, err := r.renderFine(ctx)
	if err != nil {
		return res, err
	}
	res.FineOutput = fine
	return res, nil
}

func (r *Reconstructor) renderFine(ctx context.Context) (string, error) {
	refs, err := series.IrregularSources(r.store, r.sources)
	if err != nil || len(refs) == 0 {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := Chart{Title: r.cfg.FineTitle, XLabel: r.cfg.XLabel, YLabel: faultYLabel}
	palette := Palette(len(refs))
	for i, ref := range refs {
		fine, err := series.LoadFineSeries(r.store, ref.Name, r.log)
		if err != nil {
			return "", fmt.Errorf("load fine series %s: %w", ref.Name, err)
		}
		color := palette[i]
		if i == 0 {
			color = faultColor
		}
		points := make([]series.Point, 0, len(fine))
		for _, f := range fine {
			points = append(points, series.Point{Time: f.Time, Value: float64(f.FaultCount), Valid: true})
		}
		c.Series = append(c.Series, Series{Name: ref.Label, Color: color, Points: points})
	}

	path, err := r.write(r.cfg.FineOutput, c)
	if err != nil {
		return "", err
	}
	r.log.Info("fault chart written", zap.String("path", path), zap.Int("series", len(c.Series)))
	r.open(path)
	return path, nil
}

// write 覆盖写入输出文件，返回绝对路径
func (r *Reconstructor) write(path string, c Chart) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	f, err := os.Create(abs)
	if err != nil {
		return "", fmt.Errorf("create chart %s: %w", abs, err)
	}
	if err := r.renderer.Render(c, f); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("render chart %s: %w", abs, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close chart %s: %w", abs, err)
	}
	return abs, nil
}

// open 打开失败不影响结果
func (r *Reconstructor) open(path string) {
	if err := r.opener.Open(path); err != nil {
		r.log.Warn("could not open chart", zap.String("path", path), zap.Error(err))
	}
}

func (r *Reconstructor) newBar(n int) *progressbar.ProgressBar {
	if r.progress == nil {
		return progressbar.DefaultSilent(int64(n))
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(r.progress),
		progressbar.OptionSetDescription("Analysing each source"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
