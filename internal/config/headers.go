package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/RecoveryAshes/MediaGrab/internal/models"
	"github.com/RecoveryAshes/MediaGrab/internal/utils"
	"github.com/spf13/viper"
)

const (
	// DefaultConfigFile 默认头部配置文件
	DefaultConfigFile = "configs/headers.yaml"

	// MaxConfigFileSize 头部配置文件上限 (1MB)
	MaxConfigFileSize = 1 * 1024 * 1024
)

//go:embed headers_template.yaml
var defaultHeaderTemplate string

// HeaderConfigLoader 读取 headers.yaml,首次运行时写入模板
type HeaderConfigLoader struct {
	configPath string
}

// NewHeaderConfigLoader configPath 为空时使用 DefaultConfigFile
func NewHeaderConfigLoader(configPath string) *HeaderConfigLoader {
	if configPath == "" {
		configPath = DefaultConfigFile
	}
	return &HeaderConfigLoader{configPath: configPath}
}

// Path 实际使用的配置文件路径
func (hcl *HeaderConfigLoader) Path() string {
	return hcl.configPath
}

// EnsureConfigExists 文件不存在时创建目录并写入模板
func (hcl *HeaderConfigLoader) EnsureConfigExists() error {
	if _, err := os.Stat(hcl.configPath); !os.IsNotExist(err) {
		return nil
	}

	if err := utils.EnsureDir(filepath.Dir(hcl.configPath)); err != nil {
		return err
	}
	if err := os.WriteFile(hcl.configPath, []byte(defaultHeaderTemplate), 0644); err != nil {
		return fmt.Errorf("无法生成头部配置文件 [%s]: %w", hcl.configPath, err)
	}

	utils.Infof("📝 已生成头部配置模板: %s", hcl.configPath)
	return nil
}

// ValidateFileSize 超过 MaxConfigFileSize 返回 ConfigError
func (hcl *HeaderConfigLoader) ValidateFileSize() error {
	info, err := os.Stat(hcl.configPath)
	if err != nil {
		return fmt.Errorf("无法读取配置文件信息 [%s]: %w", hcl.configPath, err)
	}
	if info.Size() > MaxConfigFileSize {
		return &models.ConfigError{
			FilePath: hcl.configPath,
			Cause:    fmt.Errorf("配置文件过大: %d 字节 (最大 %d 字节)", info.Size(), MaxConfigFileSize),
		}
	}
	return nil
}

// LoadConfig 生成模板(如需要) → 检查大小 → viper解析
// 文件被其他进程锁定时返回空配置,只使用内置默认头部
func (hcl *HeaderConfigLoader) LoadConfig() (*models.HeaderConfig, error) {
	if err := hcl.EnsureConfigExists(); err != nil {
		return nil, err
	}
	if err := hcl.ValidateFileSize(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(hcl.configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) {
			utils.Warnf("头部配置文件被锁定 [%s], 使用默认头部", hcl.configPath)
			return &models.HeaderConfig{Headers: map[string]string{}}, nil
		}
		return nil, &models.ConfigError{FilePath: hcl.configPath, Cause: err}
	}

	var cfg models.HeaderConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &models.ConfigError{
			FilePath: hcl.configPath,
			Cause:    fmt.Errorf("配置绑定失败: %w", err),
		}
	}
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	return &cfg, nil
}
