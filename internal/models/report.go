package models

import (
	"encoding/json"
	"time"
)

// RunReport 运行报告
type RunReport struct {
	// 运行信息
	RunID     string     `json:"run_id"`
	Target    TargetKind `json:"target"`
	TargetURL string     `json:"target_url"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 统计信息
	Stats RunStats `json:"stats"`

	// 文件列表
	Files       []FileInfo       `json:"files"`        // 新下载或已存在的文件
	FailedFiles []FailedFileInfo `json:"failed_files"` // 失败文件

	// 输出路径
	DownloadDir string `json:"download_dir"`

	// 配置快照
	Scroll ScrollConfig `json:"scroll"`
}

// FileInfo 文件信息
type FileInfo struct {
	MediaID  string         `json:"media_id"`
	URL      string         `json:"url"`
	FilePath string         `json:"file_path"`
	Kind     MediaKind      `json:"kind"`
	Size     int64          `json:"size"`
	Status   DownloadStatus `json:"status"`
	At       time.Time      `json:"at"`
}

// FailedFileInfo 失败文件信息
type FailedFileInfo struct {
	MediaID  string `json:"media_id"`
	URL      string `json:"url"`
	ErrorMsg string `json:"error_msg"`
}

// ToJSON 序列化为JSON
func (r *RunReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *RunReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
