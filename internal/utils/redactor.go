package utils

import (
	"net/http"
	"sort"
	"strings"
)

// SensitiveKeywords 名称包含这些关键字的头部在日志中脱敏
var SensitiveKeywords = []string{
	"authorization",
	"token",
	"key",
	"secret",
	"password",
	"credential",
	"session",
	"cookie",
}

// HeaderRedactor 日志输出前隐藏敏感头部和Cookie的值
type HeaderRedactor struct {
	keywords []string
}

// NewHeaderRedactor 创建脱敏器
func NewHeaderRedactor() *HeaderRedactor {
	return &HeaderRedactor{keywords: SensitiveKeywords}
}

// IsSensitiveHeader 按名称关键字判断
func (hr *HeaderRedactor) IsSensitiveHeader(name string) bool {
	lower := strings.ToLower(name)
	for _, keyword := range hr.keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// RedactHeaderValue Bearer只保留前缀,长值保留首尾4位,短值完全隐藏
func (hr *HeaderRedactor) RedactHeaderValue(name, value string) string {
	if !hr.IsSensitiveHeader(name) {
		return value
	}
	return maskValue(value)
}

// Redact 返回每个头部第一个值的脱敏结果
func (hr *HeaderRedactor) Redact(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))
	for name, values := range headers {
		if len(values) == 0 {
			continue
		}
		result[name] = hr.RedactHeaderValue(name, values[0])
	}
	return result
}

// RedactToString 按名称排序的 "Name: value" 列表
func (hr *HeaderRedactor) RedactToString(headers http.Header) string {
	redacted := hr.Redact(headers)
	parts := make([]string, 0, len(redacted))
	for name, value := range redacted {
		parts = append(parts, name+": "+value)
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

// RedactCookies 浏览器Cookie只输出名称和域,值一律隐藏
func (hr *HeaderRedactor) RedactCookies(cookies []*http.Cookie) []string {
	out := make([]string, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, c.Name+"@"+c.Domain+"="+maskValue(c.Value))
	}
	return out
}

func maskValue(value string) string {
	if strings.HasPrefix(value, "Bearer ") {
		return "Bearer ***"
	}
	if len(value) > 8 {
		return value[:4] + "***" + value[len(value)-4:]
	}
	return "***"
}
