package core

import (
	"context"
	"errors"
	"time"

	"github.com/RecoveryAshes/MediaGrab/internal/crawlers"
	"github.com/RecoveryAshes/MediaGrab/internal/downloader"
	"github.com/RecoveryAshes/MediaGrab/internal/models"
	"github.com/RecoveryAshes/MediaGrab/internal/utils"
)

// MediaDownloader 下载单个媒体
type MediaDownloader interface {
	Download(ctx context.Context, mediaURL, mediaID, ext string) downloader.Result
	Dir() string
}

// HarvestOptions 采集选项
type HarvestOptions struct {
	Scroll       models.ScrollConfig
	ShowProgress bool
	MinFreeMB    int

	// ScrollOptions 传给滚动采集器(测试时替换等待函数)
	ScrollOptions []crawlers.ScrollOption
}

// Harvester 一个目标页面的完整流程: 采集 → 规范化 → 下载 → 报告
type Harvester struct {
	target     models.TargetKind
	targetURL  string
	normalizer models.Normalizer
	downloader MediaDownloader
	reporter   *utils.Reporter
	options    HarvestOptions

	report *models.RunReport
	start  time.Time
}

// NewHarvester reporter 为nil时不写报告文件
func NewHarvester(target models.TargetKind, targetURL string, normalizer models.Normalizer, dl MediaDownloader, reporter *utils.Reporter, options HarvestOptions) *Harvester {
	return &Harvester{
		target:     target,
		targetURL:  targetURL,
		normalizer: normalizer,
		downloader: dl,
		reporter:   reporter,
		options:    options,
	}
}

// RunGallery 相册页: 单次查询,全部按图片处理
func (h *Harvester) RunGallery(ctx context.Context, page crawlers.PageQuerier) (*models.RunReport, error) {
	urls, err := crawlers.NewGalleryCollector().Collect(ctx, page)
	if err != nil {
		return nil, err
	}
	return h.RunGalleryURLs(ctx, urls)
}

// RunGalleryURLs 下载已采集到的相册地址,按原始地址去重
func (h *Harvester) RunGalleryURLs(ctx context.Context, urls []string) (*models.RunReport, error) {
	h.begin()

	bar := utils.NewProgressBar(len(urls), "下载相册", h.options.ShowProgress)
	seen := make(map[string]struct{}, len(urls))

	var runErr error
	for _, raw := range urls {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		bar.Add(1)

		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}
		h.process(ctx, models.MediaRef{URL: raw})
	}
	bar.Finish()

	return h.finish(runErr)
}

// RunTimeline 时间线页: 边滚动边下载
func (h *Harvester) RunTimeline(ctx context.Context, page crawlers.PageQuerier) (*models.RunReport, error) {
	collector, err := crawlers.NewScrollCollector(h.options.Scroll, h.options.ScrollOptions...)
	if err != nil {
		return nil, err
	}

	h.begin()
	h.report.Scroll = h.options.Scroll

	result, err := collector.Collect(ctx, page, h.process)
	if result != nil {
		h.report.Stats.Iterations = result.Iterations()
		utils.Debugf("滚动结束: %s, 页面高度 %d", result.Reason(), result.FinalHeight())
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}
	return h.finish(err)
}

// begin 初始化报告并检查磁盘空间
func (h *Harvester) begin() {
	h.start = time.Now()
	h.report = &models.RunReport{
		RunID:       models.NewRunID(),
		Target:      h.target,
		TargetURL:   h.targetURL,
		StartTime:   h.start,
		DownloadDir: h.downloader.Dir(),
		Files:       []models.FileInfo{},
		FailedFiles: []models.FailedFileInfo{},
	}

	if _, _, err := utils.CheckDiskSpace(h.downloader.Dir(), h.options.MinFreeMB); err != nil {
		utils.Warnf("%v", err)
	}
}

// process 处理一个新发现的媒体,下载错误只计数
func (h *Harvester) process(ctx context.Context, ref models.MediaRef) {
	fullURL, mediaID := h.normalizer.Normalize(ref.URL)
	kind := ref.Kind()

	h.report.Stats.Found++
	if kind == models.KindVideo {
		h.report.Stats.Videos++
	}

	res := h.downloader.Download(ctx, fullURL, mediaID, kind.Ext())
	h.report.Stats.Record(res.Status, res.Size)

	if res.Status == models.StatusFailed {
		msg := ""
		if res.Err != nil {
			msg = res.Err.Error()
		}
		h.report.FailedFiles = append(h.report.FailedFiles, models.FailedFileInfo{
			MediaID:  mediaID,
			URL:      fullURL,
			ErrorMsg: msg,
		})
		return
	}

	h.report.Files = append(h.report.Files, models.FileInfo{
		MediaID:  mediaID,
		URL:      fullURL,
		FilePath: res.Path,
		Kind:     kind,
		Size:     res.Size,
		Status:   res.Status,
		At:       time.Now(),
	})
}

// finish 汇总并写报告,报告写入失败不影响结果
func (h *Harvester) finish(runErr error) (*models.RunReport, error) {
	h.report.EndTime = time.Now()
	h.report.Duration = h.report.EndTime.Sub(h.start).Seconds()
	h.report.Stats.Duration = h.report.Duration

	if runErr != nil {
		utils.Warnf("运行被中断,已处理 %d 个媒体", h.report.Stats.Found)
	}

	utils.LogSummary(h.report)
	if h.reporter != nil {
		if err := h.reporter.GenerateReport(h.report); err != nil {
			utils.Warnf("写入报告失败: %v", err)
		}
	}
	return h.report, runErr
}
