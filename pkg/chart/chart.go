// Package chart renders reconstructed series as a standalone HTML line chart.
package chart

import (
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/outage-collector/pkg/series"
)

// tab10
var tab10 = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// Palette returns n colours, cycling through tab10.
func Palette(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = tab10[i%len(tab10)]
	}
	return out
}

// Series 一条曲线
type Series struct {
	Name   string
	Color  string
	Points []series.Point
}

// Chart 图表描述，与渲染实现无关
type Chart struct {
	Title  string
	XLabel string
	YLabel string
	Series []Series
}

// Renderer 把图表写成一个完整文档
type Renderer interface {
	Render(c Chart, w io.Writer) error
}

// EChartsRenderer 基于 go-echarts 的静态 HTML 输出
type EChartsRenderer struct {
	Width  string
	Height string
}

func NewEChartsRenderer() *EChartsRenderer {
	return &EChartsRenderer{Width: "1200px", Height: "600px"}
}

func (r *EChartsRenderer) Render(c Chart, w io.Writer) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: c.Title, Width: r.Width, Height: r.Height}),
		charts.WithTitleOpts(opts.Title{Title: c.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: c.XLabel, Type: "time"}),
		// y 轴从 0 开始
		charts.WithYAxisOpts(opts.YAxis{Name: c.YLabel, Type: "value", Min: 0}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}, opts.DataZoom{Type: "slider"}),
	)

	for _, s := range c.Series {
		line.AddSeries(s.Name, lineData(s.Points),
			charts.WithLineChartOpts(opts.LineChart{ConnectNulls: opts.Bool(false), ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: s.Color}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}),
		)
	}
	return line.Render(w)
}

// lineData 缺失点输出 "-"，echarts 会在此断开曲线
func lineData(points []series.Point) []opts.LineData {
	data := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		var v any = "-"
		if p.Valid {
			v = p.Value
		}
		data = append(data, opts.LineData{Value: []any{millis(p.Time), v}})
	}
	return data
}

func millis(t time.Time) int64 { return t.UnixMilli() }
