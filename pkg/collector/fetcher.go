package collector

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/outage-collector/pkg/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Fetcher 拉取一个端点的原始响应体
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string) ([]byte, error)
}

// HTTPFetcher 基于 resty 的 GET 实现，不重试（下一个周期就是重试）
type HTTPFetcher struct {
	client *resty.Client
}

func NewHTTPFetcher(cfg config.CollectorConfig, log *zap.Logger) *HTTPFetcher {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetLogger(log.Sugar())
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, endpoint string) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(endpoint)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status %s", resp.Status())
	}
	return resp.Body(), nil
}

// validateDocument 只接受 JSON 对象或数组，其余（空、标量、截断）都算解码失败
func validateDocument(body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return errEmptyBody
	}
	var doc any
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return err
	}
	switch doc.(type) {
	case map[string]any, []any:
		return nil
	default:
		return fmt.Errorf("expected JSON object or array, got %T", doc)
	}
}
