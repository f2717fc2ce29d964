package utils

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/RecoveryAshes/MediaGrab/internal/models"
)

// MaxHeaderValueLength 头部值最大长度 (8KB)
const MaxHeaderValueLength = 8192

// ForbiddenHeaders 不允许通过配置文件或 -H 设置的头部
var ForbiddenHeaders = map[string]string{
	"host":              "由HTTP客户端根据URL设置",
	"content-length":    "由HTTP客户端计算",
	"transfer-encoding": "由HTTP客户端管理",
	"connection":        "由HTTP客户端管理",
	"cookie":            "Cookie来自登录后的浏览器会话",
	"range":             "下载必须获取完整文件",
}

var (
	headerNamePattern  = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	headerValuePattern = regexp.MustCompile(`^[\x20-\x7E\t]*$`)
)

// HeaderValidator 按RFC 7230检查头部名称和值
type HeaderValidator struct {
	maxValueLength int
}

// NewHeaderValidator 创建验证器
func NewHeaderValidator() *HeaderValidator {
	return &HeaderValidator{maxValueLength: MaxHeaderValueLength}
}

// ValidateName 名称只允许字母、数字和连字符
func (hv *HeaderValidator) ValidateName(name string) error {
	if name == "" {
		return &models.ValidationError{Field: "name", Reason: "头部名称不能为空"}
	}
	if !headerNamePattern.MatchString(name) {
		return &models.ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "头部名称包含非法字符 (仅允许字母、数字和连字符)",
			Suggestion: "例如 'User-Agent', 'Referer'",
		}
	}
	return nil
}

// ValidateValue 值只允许可打印ASCII,长度不超过8KB
func (hv *HeaderValidator) ValidateValue(name, value string) error {
	if len(value) > hv.maxValueLength {
		return &models.ValidationError{
			Field:      "value",
			HeaderName: name,
			Reason:     fmt.Sprintf("头部值过长: %d 字节 (最大 %d)", len(value), hv.maxValueLength),
			Suggestion: fmt.Sprintf("将值缩短至 %d 字节以内", hv.maxValueLength),
		}
	}
	if !headerValuePattern.MatchString(value) {
		return &models.ValidationError{
			Field:      "value",
			HeaderName: name,
			Reason:     "头部值包含非法字符 (仅允许可打印ASCII字符)",
			Suggestion: "移除控制字符和非ASCII字符",
		}
	}
	return nil
}

// ValidateHeader 先检查禁止列表,再检查名称和值
func (hv *HeaderValidator) ValidateHeader(name, value string) error {
	if reason, forbidden := ForbiddenHeaders[strings.ToLower(name)]; forbidden {
		return &models.ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "不允许自定义此头部: " + reason,
			Suggestion: fmt.Sprintf("移除 '%s' 头部配置", name),
		}
	}
	if err := hv.ValidateName(name); err != nil {
		return err
	}
	return hv.ValidateValue(name, value)
}

// IsForbidden 不区分大小写
func (hv *HeaderValidator) IsForbidden(name string) bool {
	_, forbidden := ForbiddenHeaders[strings.ToLower(name)]
	return forbidden
}

// Validate 返回遇到的第一个错误
func (hv *HeaderValidator) Validate(headers http.Header) error {
	for name, values := range headers {
		for _, value := range values {
			if err := hv.ValidateHeader(name, value); err != nil {
				return err
			}
		}
	}
	return nil
}
