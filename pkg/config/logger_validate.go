package config

import (
	"fmt"
	"os"
	"path/filepath"
)

//Validate 规则说明
//字段	已通过 tag 校验	额外业务校验
//Level	oneof	无
//Format	oneof=json console	无
//Path	可为空（只输出到控制台）	可写目录，自动创建
//MaxSize/MaxBackup/MaxAge	gte=0	MaxBackup 与 MaxAge 不能同时设置

// Validate 日志配置校验
func (l *ZapLogConfig) Validate() error {
	if err := valid.Struct(l); err != nil {
		return fmt.Errorf("log config invalid: %w", err)
	}
	if l.MaxBackup > 0 && l.MaxAge > 0 {
		return fmt.Errorf("log.max_backup and log.max_age are mutually exclusive, got %d and %d", l.MaxBackup, l.MaxAge)
	}
	if l.Path == "" {
		return nil
	}
	abs, err := filepath.Abs(l.Path)
	if err != nil {
		return fmt.Errorf("log.path cannot be resolved, got %s: %w", l.Path, err)
	}
	if err := ensureDir(abs); err != nil {
		return fmt.Errorf("log.path is not a writable directory, got %s: %w", l.Path, err)
	}
	return nil
}

func ensureDir(path string) error {
	stat, err := os.Stat(path)
	if os.IsNotExist(err) {
		return os.MkdirAll(path, 0755)
	}
	if err != nil {
		return err
	}
	if !stat.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
