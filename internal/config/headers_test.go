package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/MediaGrab/internal/config"
	"github.com/RecoveryAshes/MediaGrab/internal/models"
)

func TestHeaderConfigLoader_LoadConfig(t *testing.T) {
	t.Run("首次运行自动生成配置文件", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "nested", "headers.yaml")
		loader := config.NewHeaderConfigLoader(configPath)

		cfg, err := loader.LoadConfig()
		if err != nil {
			t.Fatalf("加载配置失败: %v", err)
		}
		if cfg.Headers == nil {
			t.Fatal("Headers map应该被初始化")
		}
		if len(cfg.Headers) != 0 {
			t.Errorf("模板不应启用任何头部, 得到: %v", cfg.Headers)
		}

		data, err := os.ReadFile(configPath)
		if err != nil {
			t.Fatalf("配置文件应该被自动生成: %v", err)
		}
		if !strings.Contains(string(data), "Range") {
			t.Error("模板应该说明禁止的头部")
		}
	})

	t.Run("加载已存在的配置文件", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "headers.yaml")
		testConfig := `headers:
  User-Agent: "Test Bot/1.0"
  Referer: "https://www.parentzone.me/"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("写入测试配置失败: %v", err)
		}

		cfg, err := config.NewHeaderConfigLoader(configPath).LoadConfig()
		if err != nil {
			t.Fatalf("加载配置失败: %v", err)
		}

		// viper会将键名转换为小写
		if cfg.Headers["user-agent"] != "Test Bot/1.0" {
			t.Errorf("期望 user-agent='Test Bot/1.0', 实际='%s'", cfg.Headers["user-agent"])
		}
		if cfg.Headers["referer"] != "https://www.parentzone.me/" {
			t.Errorf("期望 referer, 实际='%s'", cfg.Headers["referer"])
		}
	})

	t.Run("YAML格式错误返回ConfigError", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "headers.yaml")
		badConfig := `headers:
  User-Agent: "Test Bot
  X-Custom: missing quote
`
		if err := os.WriteFile(configPath, []byte(badConfig), 0644); err != nil {
			t.Fatalf("写入错误配置失败: %v", err)
		}

		_, err := config.NewHeaderConfigLoader(configPath).LoadConfig()
		var cerr *models.ConfigError
		if !errors.As(err, &cerr) {
			t.Fatalf("期望ConfigError, 得到: %v", err)
		}
		if cerr.FilePath != configPath {
			t.Errorf("错误中的路径不正确: %s", cerr.FilePath)
		}
	})

	t.Run("空配置文件", func(t *testing.T) {
		for _, content := range []string{"", "headers:"} {
			configPath := filepath.Join(t.TempDir(), "headers.yaml")
			if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
				t.Fatalf("写入空配置失败: %v", err)
			}

			cfg, err := config.NewHeaderConfigLoader(configPath).LoadConfig()
			if err != nil {
				t.Fatalf("加载空配置失败 (%q): %v", content, err)
			}
			if cfg.Headers == nil {
				t.Fatalf("Headers map应该被初始化为空map (%q)", content)
			}
		}
	})

	t.Run("配置文件过大", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "headers.yaml")
		if err := os.WriteFile(configPath, make([]byte, config.MaxConfigFileSize+1), 0644); err != nil {
			t.Fatalf("写入大配置失败: %v", err)
		}

		loader := config.NewHeaderConfigLoader(configPath)
		if err := loader.ValidateFileSize(); err == nil {
			t.Fatal("期望超大配置文件被拒绝")
		}
		if _, err := loader.LoadConfig(); err == nil {
			t.Fatal("期望超大配置文件被拒绝,但成功了")
		}
	})
}

func TestNewHeaderConfigLoader_DefaultPath(t *testing.T) {
	if got := config.NewHeaderConfigLoader("").Path(); got != config.DefaultConfigFile {
		t.Errorf("期望默认路径 %s, 得到 %s", config.DefaultConfigFile, got)
	}
}
