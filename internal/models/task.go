package models

import (
	"fmt"
	"time"
)

// TargetKind 采集目标
type TargetKind string

const (
	TargetGallery  TargetKind = "gallery"  // 相册页,单次查询
	TargetTimeline TargetKind = "timeline" // 时间线页,滚动采集
)

// DownloadStatus 单个媒体的下载结果
type DownloadStatus string

const (
	StatusDownloaded DownloadStatus = "downloaded" // 新下载
	StatusSkipped    DownloadStatus = "skipped"    // 本地已存在
	StatusFailed     DownloadStatus = "failed"     // 失败(已记录,继续)
)

// RunStats 一次运行的统计
type RunStats struct {
	Found      int     `json:"found"`      // 发现的唯一媒体数
	Downloaded int     `json:"downloaded"` // 新下载数
	Skipped    int     `json:"skipped"`    // 已存在跳过数
	Failed     int     `json:"failed"`     // 失败数
	Videos     int     `json:"videos"`     // 其中视频数
	TotalSize  int64   `json:"total_size"` // 新下载总字节数
	Iterations int     `json:"iterations"` // 滚动轮数(相册为0)
	Duration   float64 `json:"duration"`   // 总耗时(秒)
}

// Record 按下载结果累加计数
func (s *RunStats) Record(status DownloadStatus, size int64) {
	switch status {
	case StatusDownloaded:
		s.Downloaded++
		s.TotalSize += size
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}

// ScrollConfig 滚动采集参数
type ScrollConfig struct {
	Distance       int           `mapstructure:"distance" json:"distance"`               // 每次滚动像素 (默认:800)
	Pause          time.Duration `mapstructure:"pause" json:"pause"`                     // 每次滚动后等待 (默认:2s)
	StallThreshold int           `mapstructure:"stall_threshold" json:"stall_threshold"` // 连续停滞轮数 (默认:10)
	MaxIterations  int           `mapstructure:"max_iterations" json:"max_iterations"`   // 最大轮数,0为不限
}

// DefaultScrollConfig 默认滚动参数
func DefaultScrollConfig() ScrollConfig {
	return ScrollConfig{
		Distance:       800,
		Pause:          2 * time.Second,
		StallThreshold: 10,
		MaxIterations:  0,
	}
}

// Validate 验证滚动参数
func (c *ScrollConfig) Validate() error {
	if c.Distance <= 0 {
		return fmt.Errorf("滚动距离必须大于0,当前值: %d", c.Distance)
	}
	if c.Pause < 0 {
		return fmt.Errorf("滚动等待时间不能为负数,当前值: %v", c.Pause)
	}
	if c.StallThreshold < 1 {
		return fmt.Errorf("停滞阈值必须至少为1,当前值: %d", c.StallThreshold)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("最大轮数不能为负数,当前值: %d", c.MaxIterations)
	}
	return nil
}

// BrowserConfig 浏览器配置
type BrowserConfig struct {
	Headless         bool          `mapstructure:"headless" json:"headless"`                     // 无头模式 (默认:false,需要人工登录)
	Bin              string        `mapstructure:"bin" json:"bin"`                               // 浏览器可执行文件,为空时自动查找/下载
	UserDataDir      string        `mapstructure:"user_data_dir" json:"user_data_dir"`           // 用户数据目录,用于保留登录状态
	IgnoreCertErrors bool          `mapstructure:"ignore_cert_errors" json:"ignore_cert_errors"` // 跳过HTTPS证书验证
	GallerySettle    time.Duration `mapstructure:"gallery_settle" json:"gallery_settle"`         // 相册页加载后等待 (默认:3s)
	TimelineSettle   time.Duration `mapstructure:"timeline_settle" json:"timeline_settle"`       // 时间线页加载后等待 (默认:5s)
}
