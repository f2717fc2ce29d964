package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RecoveryAshes/MediaGrab/internal/core"
	"github.com/RecoveryAshes/MediaGrab/internal/crawlers"
	"github.com/RecoveryAshes/MediaGrab/internal/models"
	"github.com/RecoveryAshes/MediaGrab/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile     string
	verbose        bool
	logLevel       string
	headers        []string
	validateConfig bool

	// 目标参数
	headless       bool
	outputDir      string
	scrollDistance int
	scrollPause    time.Duration
	stallThreshold int
	maxIterations  int
	staticGallery  bool
	noProgress     bool
)

// appConfig 在PersistentPreRunE中加载
var appConfig *core.Config

var rootCmd = &cobra.Command{
	Use:   "mediagrab",
	Short: "ParentZone 相册与时间线媒体下载工具",
	Long: `MediaGrab - 通过浏览器登录后批量下载 ParentZone 相册和时间线中的图片与视频

流程:
  1. 打开浏览器并等待人工登录 (不处理任何账号密码)
  2. 采集相册页或滚动时间线收集媒体地址
  3. 将缩略图地址替换为原图地址
  4. 逐个下载到本地,已存在的文件自动跳过

示例:
  # 下载相册 (默认目录 downloads_media)
  mediagrab gallery

  # 滚动时间线下载图片和视频 (默认目录 downloads_timeline)
  mediagrab timeline --scroll-pause 3s

  # 一次登录,依次处理相册和时间线
  mediagrab all

  # 自定义下载请求头
  mediagrab timeline -H "Referer: https://www.parentzone.me/"

  # 验证配置文件
  mediagrab --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		level := logLevel
		if level == "" && verbose {
			level = "debug"
		}
		config.MergeCLIFlags("", core.CLIOverrides{LogLevel: level})

		if err := utils.InitLogger(config.Logging.LogConfig()); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}
		config.LogLoadNotes()

		if verbose {
			utils.Info("详细模式已启用")
		}
		appConfig = config
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if validateConfig {
			return runValidateConfig()
		}
		return cmd.Help()
	},
}

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "下载相册页中的全部图片",
	Long: `打开相册页并执行一次DOM查询,所有图片保存为 <media_id>.jpg。
导航后会提示在浏览器中手动滚动以加载全部图片。
使用 --static 时不经过浏览器渲染,直接携带登录Cookie请求相册HTML。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTargets(cmd, models.TargetGallery)
	},
}

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "滚动时间线并下载全部图片和视频",
	Long: `逐步滚动时间线页面,每发现一个新媒体立即下载 (视频为 .mp4,图片为 .jpg)。
连续多轮既没有新媒体、页面高度也不变时认为到达末尾 (默认10轮)。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTargets(cmd, models.TargetTimeline)
	},
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "一次登录,依次处理相册和时间线",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTargets(cmd, models.TargetGallery, models.TargetTimeline)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("MediaGrab %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

// runTargets 合并参数 → 登录 → 依次处理目标
func runTargets(cmd *cobra.Command, targets ...models.TargetKind) error {
	if err := ValidateFlags(scrollDistance, scrollPause, stallThreshold, maxIterations); err != nil {
		return err
	}

	mergeTarget := targets[0]
	if len(targets) > 1 {
		mergeTarget = ""
	}
	overrides := core.CLIOverrides{
		OutputDir:      outputDir,
		ScrollDistance: scrollDistance,
		ScrollPause:    scrollPause,
		StallThreshold: stallThreshold,
		MaxIterations:  maxIterations,
		NoProgress:     noProgress,
	}
	if cmd.Flags().Changed("headless") {
		overrides.Headless = &headless
	}
	appConfig.MergeCLIFlags(mergeTarget, overrides)

	if err := appConfig.Validate(); err != nil {
		return fmt.Errorf("配置无效: %w", err)
	}
	if appConfig.Browser.Headless {
		utils.Warn("无头模式下无法人工登录,请确认 browser.user_data_dir 中已保存登录状态")
	}

	headerManager, err := newHeaderManager()
	if err != nil {
		return err
	}
	if _, err := headerManager.GetHeaders(); err != nil {
		return fmt.Errorf("HTTP头部配置无效: %w", err)
	}
	utils.Debugf("下载请求头部: %v", headerManager.GetSafeHeaders())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := crawlers.NewSession(
		appConfig.Browser,
		utils.NewConsolePrompter(),
		appConfig.Media.MediaMarker,
		appConfig.Media.VideoIconSelector,
	)

	runner := core.NewBatchRunner(appConfig, session, headerManager, core.BatchOptions{Static: staticGallery})
	if _, err := runner.Run(ctx, targets); err != nil {
		if errors.Is(err, context.Canceled) {
			utils.Warn("收到中断信号,已停止")
			return nil
		}
		return err
	}

	utils.Info("✨ 全部完成!")
	return nil
}

// newHeaderManager 站点地址作为默认Referer
func newHeaderManager() (*core.HeaderManager, error) {
	hm, err := core.NewHeaderManager(appConfig.Download.HeadersFile, headers)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}
	hm.SetDefault("Referer", appConfig.Site.BaseURL+"/")
	return hm, nil
}

// runValidateConfig 验证配置并输出脱敏后的有效头部
func runValidateConfig() error {
	utils.Info("🔍 验证配置...")
	if err := appConfig.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	hm, err := newHeaderManager()
	if err != nil {
		return err
	}
	if err := hm.LoadConfig(); err != nil {
		return fmt.Errorf("加载头部配置失败: %w", err)
	}
	if err := hm.Validate(); err != nil {
		return fmt.Errorf("头部配置验证失败: %w", err)
	}

	safeHeaders := hm.GetSafeHeaders()
	utils.Info("✅ 配置验证通过!")
	utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
	for name, value := range safeHeaders {
		utils.Infof("  %s: %s", name, value)
	}
	return nil
}

func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&headless, "headless", false, "无头浏览器模式 (需要已保存的登录状态)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "下载目录 (覆盖配置文件)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "不显示进度条")
}

func addScrollFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&scrollDistance, "scroll-distance", 0, "每次滚动像素 (默认800)")
	cmd.Flags().DurationVar(&scrollPause, "scroll-pause", 0, "每次滚动后等待时间 (默认2s)")
	cmd.Flags().IntVar(&stallThreshold, "stall-threshold", 0, "连续多少轮无变化视为到达末尾 (默认10)")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "最大滚动轮数,0为不限")
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义下载请求头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	for _, cmd := range []*cobra.Command{galleryCmd, timelineCmd, allCmd} {
		addTargetFlags(cmd)
	}
	for _, cmd := range []*cobra.Command{timelineCmd, allCmd} {
		addScrollFlags(cmd)
	}
	for _, cmd := range []*cobra.Command{galleryCmd, allCmd} {
		cmd.Flags().BoolVar(&staticGallery, "static", false, "相册页直接请求HTML,不经过浏览器渲染")
	}

	rootCmd.AddCommand(galleryCmd, timelineCmd, allCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
