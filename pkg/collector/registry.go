package collector

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/outage-collector/pkg/config"
)

// Registry 数据源注册器，采集时按注册顺序逐个执行
type Registry struct {
	mu      sync.Mutex
	sources []config.SourceConfig
	names   map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Register 注册数据源，重名直接报错
func (r *Registry) Register(src config.SourceConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.names[src.Name]; ok {
		return fmt.Errorf("source %q already registered", src.Name)
	}
	r.names[src.Name] = struct{}{}
	r.sources = append(r.sources, src)
	return nil
}

// Sources 返回副本，避免外部修改
func (r *Registry) Sources() []config.SourceConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]config.SourceConfig, len(r.sources))
	copy(out, r.sources)
	return out
}

func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sources))
	for _, s := range r.sources {
		out = append(out, s.Name)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sources)
}

// RegisterSources 批量注册配置中的数据源
func RegisterSources(r *Registry, sources []config.SourceConfig, log *zap.Logger) error {
	for _, src := range sources {
		if err := r.Register(src); err != nil {
			return err
		}
		log.Debug("source registered",
			zap.String("source", src.Name),
			zap.String("kind", src.Kind),
			zap.String("endpoint", src.Endpoint))
	}
	log.Info("sources registered", zap.Int("count", r.Len()))
	return nil
}
