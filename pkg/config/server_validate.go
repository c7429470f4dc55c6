package config

import (
	"fmt"
	"net"
)

// Validate HTTP服务配置校验（未启用时不校验地址）
func (h *ServerConfig) Validate() error {
	if !h.Enable {
		return nil
	}
	if err := valid.Struct(h); err != nil {
		return err
	}
	// 用net包解析地址，验证格式合法性
	if _, err := net.ResolveTCPAddr("tcp", h.Addr); err != nil {
		return fmt.Errorf("server.addr format invalid (expected: :port or ip:port), got %s: %w", h.Addr, err)
	}
	return nil
}
