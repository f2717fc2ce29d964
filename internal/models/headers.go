package models

import (
	"fmt"
	"net/http"
	"strings"
)

// HeaderConfig headers.yaml 的结构,媒体下载和静态相册请求共用
type HeaderConfig struct {
	// Headers 头部名称 → 头部值
	Headers map[string]string `mapstructure:"headers" yaml:"headers"`
}

// CliHeaders 命令行 -H 传入的头部,每项格式为 "Name: Value"
type CliHeaders []string

// Parse 解析为 http.Header,同名头部后者覆盖前者
func (ch CliHeaders) Parse() (http.Header, error) {
	result := make(http.Header)
	for i, s := range ch {
		name, value, err := parseHeaderString(s)
		if err != nil {
			return nil, fmt.Errorf("参数 --header 第%d项格式错误: %w", i+1, err)
		}
		result.Set(name, value)
	}
	return result, nil
}

// parseHeaderString 按第一个冒号切分 "Name: Value"
func parseHeaderString(s string) (name, value string, err error) {
	name, value, found := strings.Cut(s, ":")
	if !found {
		return "", "", fmt.Errorf("格式错误: 缺少冒号分隔符,应为 'Name: Value'")
	}

	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if name == "" {
		return "", "", fmt.Errorf("头部名称不能为空")
	}
	return name, value, nil
}

// HeaderProvider 为媒体HTTP请求提供头部
type HeaderProvider interface {
	// GetHeaders 返回按 默认 < 配置文件 < 命令行 合并并验证后的头部
	GetHeaders() (http.Header, error)
}

// StaticHeaders 固定头部,测试和不需要配置文件的场景使用
type StaticHeaders http.Header

// GetHeaders 返回副本
func (h StaticHeaders) GetHeaders() (http.Header, error) {
	return http.Header(h).Clone(), nil
}

// ValidationError 头部验证错误
type ValidationError struct {
	Field      string // "name" 或 "value"
	HeaderName string
	Reason     string
	Suggestion string // 可选
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("头部验证失败 [%s]: %s", e.HeaderName, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (建议: %s)", e.Suggestion)
	}
	return msg
}

// ConfigError 配置文件错误(headers.yaml 或 config.yaml)
type ConfigError struct {
	FilePath string
	Cause    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}
