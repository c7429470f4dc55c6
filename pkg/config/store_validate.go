package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate 存储配置校验：cadence 必须整除一天，才能与整点对齐
func (s *StoreConfig) Validate() error {
	if err := valid.Struct(s); err != nil {
		return err
	}
	if 1440%s.CadenceMinutes != 0 {
		return fmt.Errorf("store.cadence_minutes must divide 1440 (a day), got %d", s.CadenceMinutes)
	}
	if _, err := s.Location(); err != nil {
		return fmt.Errorf("store.time_zone invalid, got %s: %w", s.TimeZone, err)
	}
	return nil
}

// ValidateSources 名称唯一、端点必须是 http(s)、至少一个数据源
func ValidateSources(sources []SourceConfig) error {
	if len(sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}
	seen := map[string]bool{}
	for _, s := range sources {
		if err := valid.Struct(s); err != nil {
			return fmt.Errorf("source %q: %w", s.Name, err)
		}
		if strings.TrimSpace(s.Name) != s.Name || s.Name == "." || s.Name == ".." {
			return fmt.Errorf("source name %q is not usable as a directory name", s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("sources contains duplicate name: %s", s.Name)
		}
		seen[s.Name] = true

		u, err := url.Parse(s.Endpoint)
		if err != nil {
			return fmt.Errorf("source %q endpoint: %w", s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q endpoint must be http or https, got %s", s.Name, u.Scheme)
		}
	}
	return nil
}

// Validate 采集配置校验
func (c *CollectorConfig) Validate(store StoreConfig) error {
	if err := valid.Struct(c); err != nil {
		return err
	}
	if c.MaxSleep > store.Cadence() {
		return fmt.Errorf("collector.max_sleep (%s) must not exceed the cadence (%s)", c.MaxSleep, store.Cadence())
	}
	if c.Timeout < time.Second {
		return fmt.Errorf("collector.timeout must be at least 1s, got %s", c.Timeout)
	}
	return nil
}
