package core

import (
	"net/http"

	"github.com/RecoveryAshes/MediaGrab/internal/config"
	"github.com/RecoveryAshes/MediaGrab/internal/models"
	"github.com/RecoveryAshes/MediaGrab/internal/utils"
)

// DefaultUserAgent 默认User-Agent,与有头浏览器保持一致
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/120.0.0.0 Safari/537.36"

// HeaderManager 媒体下载请求的头部来源,实现 models.HeaderProvider
// 合并顺序: 内置默认 < headers.yaml < 命令行 -H
type HeaderManager struct {
	defaults http.Header
	config   http.Header
	cli      http.Header

	validator    *utils.HeaderValidator
	redactor     *utils.HeaderRedactor
	configLoader *config.HeaderConfigLoader
	loaded       bool
}

// NewHeaderManager configFile 为空时使用 configs/headers.yaml
// 命令行头部格式错误时立即返回错误
func NewHeaderManager(configFile string, cliHeaders []string) (*HeaderManager, error) {
	cli, err := models.CliHeaders(cliHeaders).Parse()
	if err != nil {
		return nil, err
	}

	return &HeaderManager{
		defaults:     defaultMediaHeaders(),
		config:       make(http.Header),
		cli:          cli,
		validator:    utils.NewHeaderValidator(),
		redactor:     utils.NewHeaderRedactor(),
		configLoader: config.NewHeaderConfigLoader(configFile),
	}, nil
}

func defaultMediaHeaders() http.Header {
	return http.Header{
		"User-Agent":      {DefaultUserAgent},
		"Accept":          {"image/avif,image/webp,image/*,video/*;q=0.9,*/*;q=0.8"},
		"Accept-Encoding": {"gzip, deflate, br"},
	}
}

// SetDefault 覆盖内置默认值,例如站点Referer
// 配置文件和命令行仍然优先
func (hm *HeaderManager) SetDefault(name, value string) {
	hm.defaults.Set(name, value)
}

// LoadConfig 读取 headers.yaml,只读取一次
func (hm *HeaderManager) LoadConfig() error {
	if hm.loaded {
		return nil
	}

	headerConfig, err := hm.configLoader.LoadConfig()
	if err != nil {
		utils.Errorf("加载HTTP头部配置失败: %v", err)
		return err
	}

	for name, value := range headerConfig.Headers {
		hm.config.Set(name, value)
	}
	hm.loaded = true

	if len(headerConfig.Headers) > 0 {
		utils.Debugf("已加载%d个HTTP头部配置: %s", len(headerConfig.Headers), hm.redactor.RedactToString(hm.config))
	}
	return nil
}

// Validate 依次验证默认、配置文件、命令行头部
func (hm *HeaderManager) Validate() error {
	layers := []struct {
		source  string
		headers http.Header
	}{
		{"默认", hm.defaults},
		{"配置文件", hm.config},
		{"命令行", hm.cli},
	}
	for _, layer := range layers {
		if err := hm.validator.Validate(layer.headers); err != nil {
			utils.Errorf("%s头部验证失败: %v", layer.source, err)
			return err
		}
	}
	return nil
}

// GetMergedHeaders 合并但不验证
func (hm *HeaderManager) GetMergedHeaders() http.Header {
	result := make(http.Header)
	for _, layer := range []http.Header{hm.defaults, hm.config, hm.cli} {
		for name, values := range layer {
			result[name] = append([]string(nil), values...)
		}
	}
	return result
}

// GetSafeHeaders 脱敏后的合并结果,用于日志
func (hm *HeaderManager) GetSafeHeaders() map[string]string {
	return hm.redactor.Redact(hm.GetMergedHeaders())
}

// GetHeaders 加载 → 验证 → 合并
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	if err := hm.LoadConfig(); err != nil {
		return nil, err
	}
	if err := hm.Validate(); err != nil {
		return nil, err
	}
	return hm.GetMergedHeaders(), nil
}
