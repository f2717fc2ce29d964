package core_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/RecoveryAshes/MediaGrab/internal/core"
)

func newTestHeaderManager(t *testing.T, cli []string) *core.HeaderManager {
	t.Helper()
	hm, err := core.NewHeaderManager(filepath.Join(t.TempDir(), "headers.yaml"), cli)
	if err != nil {
		t.Fatalf("创建HeaderManager失败: %v", err)
	}
	return hm
}

func TestHeaderManager_GetMergedHeaders(t *testing.T) {
	t.Run("默认头部存在", func(t *testing.T) {
		headers := newTestHeaderManager(t, nil).GetMergedHeaders()
		if headers.Get("User-Agent") != core.DefaultUserAgent {
			t.Error("期望默认User-Agent存在")
		}
		if headers.Get("Accept-Encoding") == "" {
			t.Error("期望默认Accept-Encoding存在")
		}
	})

	t.Run("命令行头部覆盖默认", func(t *testing.T) {
		headers := newTestHeaderManager(t, []string{"User-Agent: CustomBot/1.0"}).GetMergedHeaders()
		if ua := headers.Get("User-Agent"); ua != "CustomBot/1.0" {
			t.Errorf("期望User-Agent='CustomBot/1.0', 实际='%s'", ua)
		}
	})

	t.Run("SetDefault不覆盖命令行", func(t *testing.T) {
		hm := newTestHeaderManager(t, []string{"Referer: https://cli.example/"})
		hm.SetDefault("Referer", "https://www.parentzone.me/")
		hm.SetDefault("Accept-Language", "en-GB")

		headers := hm.GetMergedHeaders()
		if headers.Get("Referer") != "https://cli.example/" {
			t.Errorf("命令行Referer应该优先, 实际='%s'", headers.Get("Referer"))
		}
		if headers.Get("Accept-Language") != "en-GB" {
			t.Error("SetDefault应该添加默认头部")
		}
	})

	t.Run("修改返回值不影响管理器", func(t *testing.T) {
		hm := newTestHeaderManager(t, nil)
		hm.GetMergedHeaders().Set("User-Agent", "mutated")
		if hm.GetMergedHeaders().Get("User-Agent") != core.DefaultUserAgent {
			t.Error("GetMergedHeaders应该返回副本")
		}
	})
}

func TestHeaderManager_ConfigAndCliPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "headers.yaml")
	configContent := `headers:
  X-Config: from-config
  User-Agent: config-agent`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}

	hm, err := core.NewHeaderManager(configPath, []string{"X-CLI: from-cli", "User-Agent: cli-agent"})
	if err != nil {
		t.Fatalf("创建HeaderManager失败: %v", err)
	}

	merged, err := hm.GetHeaders()
	if err != nil {
		t.Fatalf("GetHeaders失败: %v", err)
	}
	if merged.Get("User-Agent") != "cli-agent" {
		t.Errorf("CLI头部应该覆盖配置文件, 得到: %s", merged.Get("User-Agent"))
	}
	if merged.Get("X-Config") != "from-config" {
		t.Error("应该包含配置文件中的头部")
	}
	if merged.Get("X-CLI") != "from-cli" {
		t.Error("应该包含CLI中的头部")
	}
}

func TestHeaderManager_GetSafeHeaders(t *testing.T) {
	hm := newTestHeaderManager(t, []string{
		"User-Agent: CustomBot/1.0",
		"Authorization: Bearer secret-token-12345",
		"X-API-Key: api-key-67890",
	})

	safeHeaders := hm.GetSafeHeaders()
	if safeHeaders["User-Agent"] != "CustomBot/1.0" {
		t.Error("普通头部不应该被脱敏")
	}
	if safeHeaders["Authorization"] != "Bearer ***" {
		t.Errorf("期望Authorization='Bearer ***', 实际='%s'", safeHeaders["Authorization"])
	}
	if safeHeaders["X-Api-Key"] == "api-key-67890" {
		t.Error("X-API-Key应该被脱敏")
	}
}

func TestHeaderManager_GetHeaders(t *testing.T) {
	t.Run("非法命令行参数返回错误", func(t *testing.T) {
		_, err := core.NewHeaderManager("", []string{"InvalidFormat"})
		if err == nil {
			t.Error("期望返回错误, 但成功了")
		}
	})

	forbidden := []string{"Host: example.com", "Cookie: sid=1", "Range: bytes=0-10"}
	for _, h := range forbidden {
		t.Run("禁止头部返回验证错误/"+h, func(t *testing.T) {
			if _, err := newTestHeaderManager(t, []string{h}).GetHeaders(); err == nil {
				t.Error("期望返回验证错误, 但成功了")
			}
		})
	}

	t.Run("成功场景", func(t *testing.T) {
		headers, err := newTestHeaderManager(t, []string{"User-Agent: TestBot/1.0", "X-Custom: test-value"}).GetHeaders()
		if err != nil {
			t.Fatalf("GetHeaders失败: %v", err)
		}
		if headers.Get("User-Agent") != "TestBot/1.0" || headers.Get("X-Custom") != "test-value" {
			t.Errorf("头部未正确设置: %v", headers)
		}
	})
}
