package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

func main() {
	fmt.Println("==============================================")
	fmt.Println("  MediaGrab 运行环境验证")
	fmt.Println("==============================================")
	fmt.Println()

	allOK := true

	// 检查Go版本
	goVersion := runtime.Version()
	fmt.Printf("✅ Go版本: %s\n", goVersion)
	if !strings.HasPrefix(goVersion, "go1.23") && !strings.HasPrefix(goVersion, "go1.24") {
		fmt.Println("⚠️  警告: 建议使用Go 1.23+版本")
	}

	fmt.Printf("✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	// 检查浏览器
	if path, found := launcher.LookPath(); found {
		fmt.Printf("✅ 已找到浏览器: %s\n", path)
	} else {
		fmt.Println("⚠️  未找到Chrome/Chromium - 首次运行时将自动下载")
		fmt.Println("   也可以在配置文件中指定 browser.bin")
	}

	// 检查内存
	if vmStat, err := mem.VirtualMemory(); err == nil {
		availableGB := float64(vmStat.Available) / (1024 * 1024 * 1024)
		fmt.Printf("✅ 可用内存: %.2f GB\n", availableGB)
		if availableGB < 1 {
			fmt.Println("⚠️  可用内存不足1GB,浏览器可能运行缓慢")
		}
	} else {
		fmt.Printf("⚠️  读取内存信息失败: %v\n", err)
	}

	// 检查磁盘空间
	if usage, err := disk.Usage("."); err == nil {
		freeMB := usage.Free / (1024 * 1024)
		fmt.Printf("✅ 当前目录磁盘剩余: %d MB\n", freeMB)
		if freeMB < 500 {
			fmt.Println("❌ 磁盘剩余空间不足500MB")
			allOK = false
		}
	} else {
		fmt.Printf("⚠️  读取磁盘信息失败: %v\n", err)
	}

	// 检查项目结构
	fmt.Println()
	fmt.Println("检查项目结构...")
	requiredPaths := []string{
		"go.mod",
		"cmd/mediagrab",
		"internal/core",
		"internal/crawlers",
		"internal/downloader",
		"internal/utils",
		"internal/models",
		"configs",
	}

	for _, p := range requiredPaths {
		if _, err := os.Stat(p); err == nil {
			fmt.Printf("✅ %s\n", p)
		} else {
			fmt.Printf("❌ %s 不存在\n", p)
			allOK = false
		}
	}

	fmt.Println()
	fmt.Println("==============================================")
	if allOK {
		fmt.Println("✅ 环境验证通过!")
		fmt.Println()
		fmt.Println("下一步:")
		fmt.Println("  1. 运行 'go build -o mediagrab ./cmd/mediagrab' 构建项目")
		fmt.Println("  2. 运行 './mediagrab --validate-config' 检查配置")
		fmt.Println("  3. 运行 './mediagrab all' 登录并下载")
		os.Exit(0)
	}
	fmt.Println("❌ 环境验证失败,请解决上述问题。")
	os.Exit(1)
}
