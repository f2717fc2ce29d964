package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/MediaGrab/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 写入JSON运行报告
type Reporter struct {
	reportsDir string
}

// NewReporter 报告写入 reportsDir
func NewReporter(reportsDir string) *Reporter {
	return &Reporter{reportsDir: reportsDir}
}

// ReportPath 返回某次运行的主报告路径
func (r *Reporter) ReportPath(report *models.RunReport) string {
	return filepath.Join(r.reportsDir, reportBaseName(report)+".json")
}

// GenerateReport 写入主报告,有失败项时额外写入失败列表
func (r *Reporter) GenerateReport(report *models.RunReport) error {
	if err := EnsureDir(r.reportsDir); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	if err := r.saveJSONReport(r.ReportPath(report), report); err != nil {
		return err
	}

	if len(report.FailedFiles) > 0 {
		failedPath := filepath.Join(r.reportsDir, reportBaseName(report)+"_failed.json")
		if err := r.saveJSONReport(failedPath, report.FailedFiles); err != nil {
			return err
		}
	}

	Infof("✅ 报告已生成: %s", r.ReportPath(report))
	return nil
}

// LogSummary 输出运行汇总
func LogSummary(report *models.RunReport) {
	s := report.Stats
	Logger.Info().
		Str("target", string(report.Target)).
		Int("found", s.Found).
		Int("downloaded", s.Downloaded).
		Int("skipped", s.Skipped).
		Int("failed", s.Failed).
		Int("videos", s.Videos).
		Msg("运行完成")
	Infof("📊 发现 %d | 新下载 %d (%s) | 已存在 %d | 失败 %d | 耗时 %.1fs",
		s.Found, s.Downloaded, FormatSize(s.TotalSize), s.Skipped, s.Failed, s.Duration)
}

// reportBaseName <target>_<时间>_<run_id前8位>
func reportBaseName(report *models.RunReport) string {
	id := report.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s_%s_%s", report.Target, report.StartTime.Format("20060102_150405"), id)
}

func (r *Reporter) saveJSONReport(path string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}
	Debugf("保存报告: %s", path)
	return nil
}

// NewProgressBar 计数进度条,visible为false时不输出
func NewProgressBar(max int, description string, visible bool) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}

// NewBytesBar 单个文件的字节进度条,总大小未知时传-1
func NewBytesBar(size int64, description string, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSpinnerType(14),
	)
}
