package models_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/RecoveryAshes/MediaGrab/internal/models"
)

func TestCliHeaders_Parse(t *testing.T) {
	tests := []struct {
		name      string
		input     []string
		header    string
		want      string
		expectErr bool
	}{
		{"头部名称前后空格", []string{"  User-Agent  : Mozilla/5.0"}, "User-Agent", "Mozilla/5.0", false},
		{"值中间空格保留", []string{"X-Custom: value with spaces"}, "X-Custom", "value with spaces", false},
		{"值中包含冒号", []string{"Referer: https://example.com:8080/path"}, "Referer", "https://example.com:8080/path", false},
		{"多个冒号按第一个分割", []string{"Authorization: Bearer: token"}, "Authorization", "Bearer: token", false},
		{"值中包含等号", []string{"X-Equation: 1+1=2"}, "X-Equation", "1+1=2", false},
		{"只有冒号没有值", []string{"User-Agent:"}, "User-Agent", "", false},
		{"后者覆盖前者", []string{"X-A: 1", "X-A: 2"}, "X-A", "2", false},
		{"缺少冒号分隔符", []string{"User-Agent Mozilla/5.0"}, "", "", true},
		{"只有冒号没有名称", []string{":value"}, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers, err := models.CliHeaders(tt.input).Parse()
			if (err != nil) != tt.expectErr {
				t.Fatalf("期望错误=%v, 实际错误=%v", tt.expectErr, err)
			}
			if tt.expectErr {
				if !strings.Contains(err.Error(), "第1项") {
					t.Errorf("错误信息应包含序号: %v", err)
				}
				return
			}
			if got := headers.Get(tt.header); got != tt.want {
				t.Errorf("期望 '%s', 得到 '%s'", tt.want, got)
			}
		})
	}

	t.Run("空和nil数组", func(t *testing.T) {
		var nilHeaders models.CliHeaders
		for _, ch := range []models.CliHeaders{{}, nilHeaders} {
			headers, err := ch.Parse()
			if err != nil || len(headers) != 0 {
				t.Errorf("空输入应该得到空头部, 得到: %v, %v", headers, err)
			}
		}
	})
}

func TestStaticHeaders_GetHeaders(t *testing.T) {
	src := models.StaticHeaders(http.Header{"User-Agent": {"test"}})
	got, err := src.GetHeaders()
	if err != nil {
		t.Fatalf("不应出错: %v", err)
	}
	got.Set("User-Agent", "changed")
	if http.Header(src).Get("User-Agent") != "test" {
		t.Error("GetHeaders应该返回副本")
	}
}
