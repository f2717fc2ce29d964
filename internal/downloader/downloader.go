// Package downloader 顺序下载媒体文件到本地目录
//
// 文件名为 <media_id><ext>,已存在即跳过;响应体先写入 .part 临时文件,
// 完整写入后再重命名,失败时删除临时文件,因此失败项下次运行会重新下载。
package downloader

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/RecoveryAshes/MediaGrab/internal/models"
	"github.com/RecoveryAshes/MediaGrab/internal/utils"
	"golang.org/x/net/publicsuffix"
)

const (
	// DefaultTimeout 连接、等待响应头以及两次读取之间的最长空闲时间
	DefaultTimeout = 60 * time.Second

	// DefaultChunkSize 写盘块大小 (64KiB)
	DefaultChunkSize = 64 * 1024

	partSuffix = ".part"
)

var (
	// ErrHTTPStatus 响应状态码不是2xx
	ErrHTTPStatus = errors.New("HTTP状态码异常")

	// ErrIdleTimeout 超过Timeout没有收到任何数据
	ErrIdleTimeout = errors.New("下载空闲超时")
)

// Config 下载配置
type Config struct {
	Dir              string        `mapstructure:"dir"`
	Timeout          time.Duration `mapstructure:"timeout"`
	ChunkSize        int           `mapstructure:"chunk_size"`
	ShowProgress     bool          `mapstructure:"show_progress"`
	IgnoreCertErrors bool          `mapstructure:"ignore_cert_errors"`
}

// Result 单个媒体的下载结果
type Result struct {
	MediaID  string
	URL      string
	Path     string
	Status   models.DownloadStatus
	Size     int64
	Err      error
	Duration time.Duration
}

// Downloader 单连接顺序下载器
type Downloader struct {
	config   Config
	client   *http.Client
	jar      *cookiejar.Jar
	headers  models.HeaderProvider
	progress io.Writer
}

// New 创建下载器并确保下载目录存在
// headers 可以为nil
func New(config Config, headers models.HeaderProvider) (*Downloader, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("下载目录不能为空")
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	if err := utils.EnsureDir(config.Dir); err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("创建Cookie jar失败: %w", err)
	}

	// 整体传输时间不设上限,只限制连接、响应头和读取空闲
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   config.Timeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.ResponseHeaderTimeout = config.Timeout
	if config.IgnoreCertErrors {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		utils.Warnf("下载器已配置为跳过HTTPS证书验证")
	}

	return &Downloader{
		config: config,
		client: &http.Client{
			Transport: transport,
			Jar:       jar,
		},
		jar:      jar,
		headers:  headers,
		progress: os.Stderr,
	}, nil
}

// Dir 下载目录
func (d *Downloader) Dir() string {
	return d.config.Dir
}

// SetCookies 导入浏览器Cookie,siteURL 为登录站点地址
func (d *Downloader) SetCookies(siteURL string, cookies []*http.Cookie) error {
	u, err := url.Parse(siteURL)
	if err != nil {
		return fmt.Errorf("站点地址无效 [%s]: %w", siteURL, err)
	}
	d.jar.SetCookies(u, cookies)
	utils.Debugf("下载器已导入%d个Cookie: %v", len(cookies), utils.NewHeaderRedactor().RedactCookies(cookies))
	return nil
}

// Path 媒体在下载目录中的路径
func (d *Downloader) Path(mediaID, ext string) string {
	return filepath.Join(d.config.Dir, mediaID+ext)
}

// Download 下载一个媒体,错误只记录不返回
func (d *Downloader) Download(ctx context.Context, mediaURL, mediaID, ext string) Result {
	start := time.Now()
	res := Result{
		MediaID: mediaID,
		URL:     mediaURL,
		Path:    d.Path(mediaID, ext),
	}

	if utils.FileExists(res.Path) {
		res.Status = models.StatusSkipped
		utils.Infof("已下载,跳过: %s", filepath.Base(res.Path))
		return res
	}

	size, err := d.fetch(ctx, mediaURL, res.Path)
	res.Duration = time.Since(start)
	if err != nil {
		res.Status = models.StatusFailed
		res.Err = err
		utils.Logger.Error().
			Err(err).
			Str("media_id", mediaID).
			Str("url", mediaURL).
			Msg("下载失败")
		return res
	}

	res.Status = models.StatusDownloaded
	res.Size = size
	utils.Logger.Info().
		Str("media_id", mediaID).
		Str("file", filepath.Base(res.Path)).
		Str("size", utils.FormatSize(size)).
		Dur("elapsed", res.Duration).
		Msg("✅ 下载完成")
	return res
}

// fetch GET → 解码 → 分块写入 .part → 重命名
func (d *Downloader) fetch(ctx context.Context, mediaURL, dest string) (int64, error) {
	ctx, watchdog, stop := startWatchdog(ctx, d.config.Timeout)
	defer stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return 0, fmt.Errorf("创建请求失败: %w", err)
	}
	if err := d.applyHeaders(req); err != nil {
		return 0, err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("请求失败: %w", watchdog.wrap(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("%w: %d %s", ErrHTTPStatus, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := utils.NewDecodingReader(resp.Header.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	tmp := dest + partSuffix
	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("创建临时文件失败: %w", err)
	}

	var w io.Writer = f
	if d.config.ShowProgress {
		bar := utils.NewBytesBar(resp.ContentLength, filepath.Base(dest), d.progress)
		defer bar.Close()
		w = io.MultiWriter(f, bar)
	}

	written, copyErr := copyChunks(w, idleReader{r: body, watchdog: watchdog}, d.config.ChunkSize)
	copyErr = watchdog.wrap(copyErr)
	closeErr := f.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		if rmErr := os.Remove(tmp); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			utils.Warnf("删除临时文件失败 [%s]: %v", tmp, rmErr)
		}
		return 0, fmt.Errorf("写入文件失败: %w", copyErr)
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("重命名文件失败: %w", err)
	}
	return written, nil
}

// applyHeaders 附加配置的头部,Cookie由jar负责
func (d *Downloader) applyHeaders(req *http.Request) error {
	if d.headers == nil {
		return nil
	}
	headers, err := d.headers.GetHeaders()
	if err != nil {
		return fmt.Errorf("获取HTTP头部失败: %w", err)
	}
	for name, values := range headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	return nil
}

// copyChunks 每次最多读取chunkSize字节后写出
func copyChunks(dst io.Writer, src io.Reader, chunkSize int) (int64, error) {
	buf := make([]byte, chunkSize)
	var written int64
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return written, err
			}
			written += int64(n)
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}

// idleWatchdog 超过timeout没有读到数据时取消请求
type idleWatchdog struct {
	timeout time.Duration
	timer   *time.Timer
	fired   atomic.Bool
}

// startWatchdog 返回的stop必须调用以释放计时器
func startWatchdog(parent context.Context, timeout time.Duration) (context.Context, *idleWatchdog, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	w := &idleWatchdog{timeout: timeout}
	w.timer = time.AfterFunc(timeout, func() {
		w.fired.Store(true)
		cancel()
	})
	return ctx, w, func() {
		w.timer.Stop()
		cancel()
	}
}

func (w *idleWatchdog) reset() {
	w.timer.Reset(w.timeout)
}

// wrap 空闲超时引起的取消统一报告为ErrIdleTimeout
func (w *idleWatchdog) wrap(err error) error {
	if err != nil && w.fired.Load() {
		return fmt.Errorf("%w (%v): %v", ErrIdleTimeout, w.timeout, err)
	}
	return err
}

// idleReader 每次读到数据后重置空闲计时
type idleReader struct {
	r        io.Reader
	watchdog *idleWatchdog
}

func (r idleReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		r.watchdog.reset()
	}
	return n, err
}
