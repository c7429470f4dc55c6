package collector

import (
	"sync"
	"time"

	"github.com/outage-collector/pkg/config"
)

// SourceStatus 单个数据源最近一次采集结果，供 /sources 展示
type SourceStatus struct {
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Endpoint    string    `json:"endpoint"`
	LastAttempt time.Time `json:"last_attempt"`
	LastSuccess time.Time `json:"last_success"`
	LastOutcome string    `json:"last_outcome,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	LastPath    string    `json:"last_path,omitempty"`
	Failures    int       `json:"consecutive_failures"`
}

// StatusTable 并发安全：采集循环写，HTTP handler 读
type StatusTable struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]*SourceStatus
}

func NewStatusTable(sources []config.SourceConfig) *StatusTable {
	t := &StatusTable{byName: make(map[string]*SourceStatus, len(sources))}
	for _, s := range sources {
		t.order = append(t.order, s.Name)
		t.byName[s.Name] = &SourceStatus{Name: s.Name, Kind: s.Kind, Endpoint: s.Endpoint}
	}
	return t
}

func (t *StatusTable) record(source, outcome string, at time.Time, path string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.byName[source]
	if !ok {
		st = &SourceStatus{Name: source}
		t.byName[source] = st
		t.order = append(t.order, source)
	}
	st.LastAttempt = at
	st.LastOutcome = outcome
	if err != nil {
		st.LastError = err.Error()
		st.Failures++
		return
	}
	st.LastError = ""
	st.LastSuccess = at
	st.LastPath = path
	st.Failures = 0
}

// Snapshot returns a copy in registration order.
func (t *StatusTable) Snapshot() []SourceStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]SourceStatus, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.byName[name])
	}
	return out
}

func (t *StatusTable) Get(source string) (SourceStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st, ok := t.byName[source]
	if !ok {
		return SourceStatus{}, false
	}
	return *st, true
}
