package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/MediaGrab/internal/crawlers"
	"github.com/RecoveryAshes/MediaGrab/internal/downloader"
	"github.com/RecoveryAshes/MediaGrab/internal/models"
	"github.com/RecoveryAshes/MediaGrab/internal/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Site     SiteConfig           `mapstructure:"site"`
	Browser  models.BrowserConfig `mapstructure:"browser"`
	Scroll   models.ScrollConfig  `mapstructure:"scroll"`
	Media    MediaConfig          `mapstructure:"media"`
	Download DownloadConfig       `mapstructure:"download"`
	Logging  LoggingConfig        `mapstructure:"logging"`
	Output   OutputConfig         `mapstructure:"output"`
	Batch    BatchConfig          `mapstructure:"batch"`

	// 加载过程中的信息,日志系统初始化后由 LogLoadNotes 输出
	FileUsed     string   `mapstructure:"-"`
	EnvFiles     []string `mapstructure:"-"`
	LoadWarnings []string `mapstructure:"-"`
}

// SiteConfig 站点地址
type SiteConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	LoginURL    string `mapstructure:"login_url"`
	GalleryURL  string `mapstructure:"gallery_url"`
	TimelineURL string `mapstructure:"timeline_url"`
}

// MediaConfig DOM和URL中的固定标记
type MediaConfig struct {
	MediaMarker       string `mapstructure:"media_marker"`
	ThumbnailMarker   string `mapstructure:"thumbnail_marker"`
	FullMarker        string `mapstructure:"full_marker"`
	VideoIconSelector string `mapstructure:"video_icon_selector"`
}

// Normalizer 按配置构造URL规范化器
func (m MediaConfig) Normalizer() models.Normalizer {
	return models.Normalizer{
		MediaMarker:     m.MediaMarker,
		ThumbnailMarker: m.ThumbnailMarker,
		FullMarker:      m.FullMarker,
	}
}

// DownloadConfig 下载配置
type DownloadConfig struct {
	GalleryDir       string        `mapstructure:"gallery_dir"`
	TimelineDir      string        `mapstructure:"timeline_dir"`
	Timeout          time.Duration `mapstructure:"timeout"`
	ChunkSize        int           `mapstructure:"chunk_size"`
	ShareCookies     bool          `mapstructure:"share_cookies"` // 复用浏览器登录Cookie
	ShowProgress     bool          `mapstructure:"show_progress"`
	MinFreeMB        int           `mapstructure:"min_free_mb"`
	HeadersFile      string        `mapstructure:"headers_file"`
	IgnoreCertErrors bool          `mapstructure:"ignore_cert_errors"`
}

// For 返回某个目标的下载器配置
func (d DownloadConfig) For(target models.TargetKind) downloader.Config {
	dir := d.GalleryDir
	if target == models.TargetTimeline {
		dir = d.TimelineDir
	}
	return downloader.Config{
		Dir:              dir,
		Timeout:          d.Timeout,
		ChunkSize:        d.ChunkSize,
		ShowProgress:     d.ShowProgress,
		IgnoreCertErrors: d.IgnoreCertErrors,
	}
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	NoColor  bool           `mapstructure:"no_color"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// LogConfig 转换为日志初始化参数
func (l LoggingConfig) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      l.Level,
		LogDir:     l.LogDir,
		MaxSize:    l.Rotation.MaxSize,
		MaxBackups: l.Rotation.MaxBackups,
		MaxAge:     l.Rotation.MaxAge,
		Compress:   l.Rotation.Compress,
		NoColor:    l.NoColor,
	}
}

// OutputConfig 输出配置
type OutputConfig struct {
	ReportsDir string `mapstructure:"reports_dir"`
}

// BatchConfig all模式配置
type BatchConfig struct {
	Delay           time.Duration `mapstructure:"delay"`
	ContinueOnError bool          `mapstructure:"continue_on_error"`
}

// LoadConfig 加载配置文件,未找到时使用默认值
// 环境变量 MEDIAGRAB_<SECTION>_<KEY> 覆盖配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".mediagrab"))
		}
	}

	setDefaults(v)
	envFiles, warnings := loadDotEnv(dotEnvPaths()...)
	v.SetEnvPrefix("MEDIAGRAB")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &models.ConfigError{FilePath: configPath, Cause: fmt.Errorf("读取配置文件失败: %w", err)}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	config.FileUsed = v.ConfigFileUsed()
	config.EnvFiles = envFiles
	config.LoadWarnings = warnings
	return &config, nil
}

// LogLoadNotes 输出加载配置时记录的信息,须在 InitLogger 之后调用
func (c *Config) LogLoadNotes() {
	if c.FileUsed != "" {
		utils.Debugf("使用配置文件: %s", c.FileUsed)
	}
	for _, p := range c.EnvFiles {
		utils.Debugf("已载入环境变量文件: %s", p)
	}
	for _, w := range c.LoadWarnings {
		utils.Warn(w)
	}
}

// dotEnvPaths .env 文件的查找位置
func dotEnvPaths() []string {
	paths := []string{".env"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".mediagrab.env"))
	}
	return paths
}

// loadDotEnv 将 .env 中的变量载入进程环境,已存在的环境变量不被覆盖
// 返回成功载入的文件和读取失败的告警
func loadDotEnv(paths ...string) (loaded []string, warnings []string) {
	for _, p := range paths {
		if !utils.FileExists(p) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			warnings = append(warnings, fmt.Sprintf("读取环境变量文件失败 [%s]: %v", p, err))
			continue
		}
		loaded = append(loaded, p)
	}
	return loaded, warnings
}

// setDefaults 注册全部配置项的默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("site.base_url", "https://www.parentzone.me")
	v.SetDefault("site.login_url", "https://www.parentzone.me/login")
	v.SetDefault("site.gallery_url", "https://www.parentzone.me/gallery")
	v.SetDefault("site.timeline_url", "https://www.parentzone.me/timeline")

	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.user_data_dir", "")
	v.SetDefault("browser.ignore_cert_errors", false)
	v.SetDefault("browser.gallery_settle", "3s")
	v.SetDefault("browser.timeline_settle", "5s")

	scroll := models.DefaultScrollConfig()
	v.SetDefault("scroll.distance", scroll.Distance)
	v.SetDefault("scroll.pause", scroll.Pause)
	v.SetDefault("scroll.stall_threshold", scroll.StallThreshold)
	v.SetDefault("scroll.max_iterations", scroll.MaxIterations)

	v.SetDefault("media.media_marker", models.DefaultMediaMarker)
	v.SetDefault("media.thumbnail_marker", models.DefaultThumbnailMarker)
	v.SetDefault("media.full_marker", models.DefaultFullMarker)
	v.SetDefault("media.video_icon_selector", crawlers.DefaultVideoIconSelector)

	v.SetDefault("download.gallery_dir", "downloads_media")
	v.SetDefault("download.timeline_dir", "downloads_timeline")
	v.SetDefault("download.timeout", downloader.DefaultTimeout)
	v.SetDefault("download.chunk_size", downloader.DefaultChunkSize)
	v.SetDefault("download.share_cookies", true)
	v.SetDefault("download.show_progress", true)
	v.SetDefault("download.min_free_mb", 500)
	v.SetDefault("download.headers_file", "configs/headers.yaml")
	v.SetDefault("download.ignore_cert_errors", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.no_color", false)
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	v.SetDefault("output.reports_dir", "reports")

	v.SetDefault("batch.delay", "2s")
	v.SetDefault("batch.continue_on_error", true)
}

// Validate 检查运行前必须满足的配置
func (c *Config) Validate() error {
	for name, u := range map[string]string{
		"site.login_url":    c.Site.LoginURL,
		"site.gallery_url":  c.Site.GalleryURL,
		"site.timeline_url": c.Site.TimelineURL,
	} {
		if err := models.ValidateURL(u); err != nil {
			return fmt.Errorf("%s 无效: %w", name, err)
		}
	}
	if err := c.Scroll.Validate(); err != nil {
		return err
	}
	if c.Media.MediaMarker == "" {
		return fmt.Errorf("media.media_marker 不能为空")
	}
	if c.Download.GalleryDir == "" || c.Download.TimelineDir == "" {
		return fmt.Errorf("下载目录不能为空")
	}
	return nil
}

// CLIOverrides 命令行参数,零值表示未设置
type CLIOverrides struct {
	Headless       *bool
	OutputDir      string
	ScrollDistance int
	ScrollPause    time.Duration
	StallThreshold int
	MaxIterations  int
	NoProgress     bool
	LogLevel       string
}

// MergeCLIFlags 命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(target models.TargetKind, o CLIOverrides) {
	if o.Headless != nil {
		c.Browser.Headless = *o.Headless
	}
	if o.OutputDir != "" {
		switch target {
		case models.TargetGallery:
			c.Download.GalleryDir = o.OutputDir
		case models.TargetTimeline:
			c.Download.TimelineDir = o.OutputDir
		default:
			// all模式下两个目标分别写入子目录
			c.Download.GalleryDir = filepath.Join(o.OutputDir, "gallery")
			c.Download.TimelineDir = filepath.Join(o.OutputDir, "timeline")
		}
	}
	if o.ScrollDistance > 0 {
		c.Scroll.Distance = o.ScrollDistance
	}
	if o.ScrollPause > 0 {
		c.Scroll.Pause = o.ScrollPause
	}
	if o.StallThreshold > 0 {
		c.Scroll.StallThreshold = o.StallThreshold
	}
	if o.MaxIterations > 0 {
		c.Scroll.MaxIterations = o.MaxIterations
	}
	if o.NoProgress {
		c.Download.ShowProgress = false
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
}

var envKeyReplacer = strings.NewReplacer(".", "_")
