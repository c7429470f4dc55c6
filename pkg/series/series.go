// Package series rebuilds gap-aware time series from the snapshot store.
package series

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/outage-collector/pkg/snapshot"
)

// Point 一个期望时刻的取值，Valid=false 表示缺失（不是 0）
type Point struct {
	Time  time.Time
	Value float64
	Valid bool
}

// Extractor 从快照内容计算数值
type Extractor func(payload []byte) (float64, error)

// Walk 从 start 到 end（含）按 cadence 步进的惰性遍历，可重复执行
type Walk struct {
	store   *snapshot.Store
	source  string
	step    time.Duration
	start   time.Time
	end     time.Time
	files   map[int64]snapshot.Entry
	extract Extractor
	log     *zap.Logger
}

// NewWalk 枚举目录并确定范围；只读取枚举时已存在的文件
func NewWalk(store *snapshot.Store, source string, cadence time.Duration, extract Extractor, log *zap.Logger) (*Walk, error) {
	if cadence <= 0 {
		return nil, fmt.Errorf("cadence must be positive, got %s", cadence)
	}
	if log == nil {
		log = zap.NewNop()
	}
	listing, err := store.List(source)
	if err != nil {
		return nil, err
	}
	for _, rej := range listing.Rejected {
		log.Warn("skipping snapshot with undecodable name",
			zap.String("source", source),
			zap.String("name", rej.Name),
			zap.Error(rej.Err))
	}

	w := &Walk{
		store:   store,
		source:  source,
		step:    cadence,
		files:   make(map[int64]snapshot.Entry, len(listing.Entries)),
		extract: extract,
		log:     log,
	}
	if len(listing.Entries) == 0 {
		return w, nil
	}
	w.start = listing.Entries[0].Time
	w.end = listing.Entries[len(listing.Entries)-1].Time
	for _, e := range listing.Entries {
		w.files[e.Time.Unix()] = e
	}
	return w, nil
}

// Len 遍历将产生的点数
func (w *Walk) Len() int {
	if len(w.files) == 0 {
		return 0
	}
	return int(w.end.Sub(w.start)/w.step) + 1
}

func (w *Walk) Start() time.Time { return w.start }
func (w *Walk) End() time.Time { return w.end }

// Points yields one point per tick. Files that fall between ticks are ignored.
func (w *Walk) Points() iter.Seq[Point] {
	return func(yield func(Point) bool) {
		if len(w.files) == 0 {
			return
		}
		for tick := w.start; !tick.After(w.end); tick = tick.Add(w.step) {
			if !yield(w.point(tick)) {
				return
			}
		}
	}
}

func (w *Walk) point(tick time.Time) Point {
	p := Point{Time: tick}
	entry, ok := w.files[tick.Unix()]
	if !ok {
		return p
	}
	payload, err := w.store.ReadEntry(entry)
	if err != nil {
		// 枚举之后被删除的文件同样视为缺失
		if !errors.Is(err, snapshot.ErrNotFound) {
			w.log.Warn("unreadable snapshot treated as absent", zap.String("path", entry.Path), zap.Error(err))
		}
		return p
	}
	v, err := w.extract(payload)
	if err != nil {
		w.log.Warn("malformed snapshot treated as absent", zap.String("path", entry.Path), zap.Error(err))
		return p
	}
	p.Value, p.Valid = v, true
	return p
}

// LoadSeries collects the walk of one source into a slice.
func LoadSeries(store *snapshot.Store, source string, cadence time.Duration, extract Extractor, log *zap.Logger) ([]Point, error) {
	w, err := NewWalk(store, source, cadence, extract, log)
	if err != nil {
		return nil, err
	}
	return slices.Collect(w.Points()), nil
}
