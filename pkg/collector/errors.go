package collector

import (
	"errors"
	"fmt"
	"time"

	"github.com/outage-collector/pkg/snapshot"
)

var errEmptyBody = errors.New("empty response body")

// DecodeError 响应体不是可解析的 JSON 文档，不落盘
type DecodeError struct {
	Source string
	At     time.Time
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s at %s: %v", e.Source, snapshot.FormatTime(e.At), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FetchError 网络、HTTP 状态、写盘等其他失败
type FetchError struct {
	Source string
	At     time.Time
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s at %s: %v", e.Source, snapshot.FormatTime(e.At), e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FatalError 调度循环本身失败，进程应退出
type FatalError struct {
	At  time.Time
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("collector stopped at %s: %v", snapshot.FormatTime(e.At), e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

func decodeAlert(source string, at time.Time) string {
	return fmt.Sprintf("Collection failed for %s at %s due to decoding error", source, snapshot.FormatTime(at))
}

func fetchAlert(source string, at time.Time, cause error) string {
	return fmt.Sprintf("Collection failed for %s at %s because of %v", source, snapshot.FormatTime(at), cause)
}

func fatalAlert(at time.Time, cause error) string {
	return fmt.Sprintf("Collection failed at %s due to %v", snapshot.FormatTime(at), cause)
}
