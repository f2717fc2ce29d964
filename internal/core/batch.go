package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/RecoveryAshes/MediaGrab/internal/crawlers"
	"github.com/RecoveryAshes/MediaGrab/internal/downloader"
	"github.com/RecoveryAshes/MediaGrab/internal/models"
	"github.com/RecoveryAshes/MediaGrab/internal/utils"
)

// Browser 已登录的浏览器会话
type Browser interface {
	Open(ctx context.Context, loginURL string) error
	Navigate(ctx context.Context, targetURL string, settle time.Duration) (crawlers.PageQuerier, error)
	Prompt(message string) error
	Cookies(ctx context.Context) ([]*http.Cookie, error)
	Close()
}

// BatchOptions 运行选项
type BatchOptions struct {
	// Static 相册页不经过浏览器DOM,直接请求HTML
	Static bool

	// ScrollOptions 传给滚动采集器
	ScrollOptions []crawlers.ScrollOption
}

// BatchRunner 在同一个浏览器会话中依次处理多个目标,只登录一次
type BatchRunner struct {
	config   *Config
	browser  Browser
	headers  models.HeaderProvider
	reporter *utils.Reporter
	options  BatchOptions
}

// BatchResult 单个目标的结果
type BatchResult struct {
	Target   models.TargetKind
	Success  bool
	Error    error
	Report   *models.RunReport
	Duration float64
}

// BatchSummary 全部目标的汇总
type BatchSummary struct {
	Results       []BatchResult
	SuccessCount  int
	FailCount     int
	TotalFound    int
	TotalNew      int
	TotalSize     int64
	TotalDuration float64
}

// NewBatchRunner headers 可以为nil
func NewBatchRunner(config *Config, browser Browser, headers models.HeaderProvider, options BatchOptions) *BatchRunner {
	return &BatchRunner{
		config:   config,
		browser:  browser,
		headers:  headers,
		reporter: utils.NewReporter(config.Output.ReportsDir),
		options:  options,
	}
}

// Run 登录后按顺序处理targets
// 登录失败直接返回错误;单个目标失败时按 continue_on_error 决定是否继续
func (br *BatchRunner) Run(ctx context.Context, targets []models.TargetKind) (*BatchSummary, error) {
	defer br.browser.Close()

	if err := br.browser.Open(ctx, br.config.Site.LoginURL); err != nil {
		return nil, err
	}

	summary := &BatchSummary{Results: make([]BatchResult, 0, len(targets))}
	startTime := time.Now()

	for i, target := range targets {
		if len(targets) > 1 {
			utils.Infof("==================== [%d/%d] %s ====================", i+1, len(targets), target)
		}

		result := br.runTarget(ctx, target)
		summary.Results = append(summary.Results, result)

		if result.Report != nil {
			summary.TotalFound += result.Report.Stats.Found
			summary.TotalNew += result.Report.Stats.Downloaded
			summary.TotalSize += result.Report.Stats.TotalSize
		}
		if result.Success {
			summary.SuccessCount++
		} else {
			summary.FailCount++
			utils.Errorf("❌ %s 失败: %v", target, result.Error)
			if errors.Is(result.Error, context.Canceled) || !br.config.Batch.ContinueOnError {
				break
			}
		}

		if i < len(targets)-1 && br.config.Batch.Delay > 0 {
			utils.Debugf("等待 %v 后处理下一个目标...", br.config.Batch.Delay)
			select {
			case <-ctx.Done():
			case <-time.After(br.config.Batch.Delay):
			}
		}
	}

	summary.TotalDuration = time.Since(startTime).Seconds()
	if len(targets) > 1 {
		br.printSummary(summary)
	}

	if summary.FailCount > 0 {
		return summary, firstError(summary)
	}
	return summary, nil
}

// runTarget 导航 → 采集 → 下载
func (br *BatchRunner) runTarget(ctx context.Context, target models.TargetKind) BatchResult {
	start := time.Now()
	result := BatchResult{Target: target}

	report, err := br.harvest(ctx, target)
	result.Report = report
	result.Error = err
	result.Success = err == nil
	result.Duration = time.Since(start).Seconds()
	return result
}

func (br *BatchRunner) harvest(ctx context.Context, target models.TargetKind) (*models.RunReport, error) {
	cfg := br.config

	var cookies []*http.Cookie
	if cfg.Download.ShareCookies || (target == models.TargetGallery && br.options.Static) {
		c, err := br.browser.Cookies(ctx)
		if err != nil {
			return nil, err
		}
		cookies = c
	}

	dl, err := downloader.New(cfg.Download.For(target), br.headers)
	if err != nil {
		return nil, fmt.Errorf("创建下载器失败: %w", err)
	}
	if cfg.Download.ShareCookies && len(cookies) > 0 {
		if err := dl.SetCookies(cfg.Site.BaseURL, cookies); err != nil {
			return nil, err
		}
	}

	options := HarvestOptions{
		Scroll:        cfg.Scroll,
		ShowProgress:  cfg.Download.ShowProgress,
		MinFreeMB:     cfg.Download.MinFreeMB,
		ScrollOptions: br.options.ScrollOptions,
	}

	switch target {
	case models.TargetGallery:
		h := NewHarvester(target, cfg.Site.GalleryURL, cfg.Media.Normalizer(), dl, br.reporter, options)
		if br.options.Static {
			static := crawlers.NewStaticGalleryCollector(crawlers.StaticGalleryConfig{
				MediaMarker:      cfg.Media.MediaMarker,
				Timeout:          cfg.Download.Timeout,
				IgnoreCertErrors: cfg.Download.IgnoreCertErrors,
			}, br.headers, cookies)
			urls, err := static.Collect(ctx, cfg.Site.GalleryURL)
			if err != nil {
				return nil, err
			}
			return h.RunGalleryURLs(ctx, urls)
		}

		page, err := br.browser.Navigate(ctx, cfg.Site.GalleryURL, cfg.Browser.GallerySettle)
		if err != nil {
			return nil, err
		}
		if err := br.browser.Prompt("如有需要请在浏览器中滚动相册页以加载全部图片。准备好后按回车继续..."); err != nil {
			return nil, fmt.Errorf("等待确认失败: %w", err)
		}
		return h.RunGallery(ctx, page)

	case models.TargetTimeline:
		page, err := br.browser.Navigate(ctx, cfg.Site.TimelineURL, cfg.Browser.TimelineSettle)
		if err != nil {
			return nil, err
		}
		h := NewHarvester(target, cfg.Site.TimelineURL, cfg.Media.Normalizer(), dl, br.reporter, options)
		return h.RunTimeline(ctx, page)

	default:
		return nil, fmt.Errorf("未知目标: %s", target)
	}
}

func firstError(summary *BatchSummary) error {
	for _, r := range summary.Results {
		if !r.Success {
			return fmt.Errorf("%s: %w", r.Target, r.Error)
		}
	}
	return nil
}

// printSummary 打印汇总
func (br *BatchRunner) printSummary(summary *BatchSummary) {
	utils.Info("==================================================")
	utils.Info("📊 全部目标汇总")
	utils.Info("==================================================")
	utils.Infof("✅ 成功: %d", summary.SuccessCount)
	utils.Infof("❌ 失败: %d", summary.FailCount)
	utils.Infof("📦 发现媒体: %d, 新下载: %d (%s)", summary.TotalFound, summary.TotalNew, utils.FormatSize(summary.TotalSize))
	utils.Infof("⏱️  总耗时: %.2f秒", summary.TotalDuration)
	utils.Info("==================================================")

	for _, r := range summary.Results {
		if !r.Success {
			utils.Warnf("  - %s: %v", r.Target, r.Error)
		}
	}
}
