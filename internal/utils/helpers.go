package utils

import (
	"fmt"
	"os"
)

// EnsureDir 创建目录(已存在时不报错)
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("创建目录失败 [%s]: %w", path, err)
	}
	return nil
}

// FileExists 判断路径是否存在
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FormatSize 格式化字节数
func FormatSize(n int64) string {
	switch {
	case n >= 1024*1024*1024:
		return fmt.Sprintf("%.2f GB", float64(n)/(1024*1024*1024))
	case n >= 1024*1024:
		return fmt.Sprintf("%.2f MB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.2f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
