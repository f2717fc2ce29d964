package crawlers

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/RecoveryAshes/MediaGrab/internal/models"
	"github.com/RecoveryAshes/MediaGrab/internal/utils"
	"github.com/gocolly/colly/v2"
	"golang.org/x/net/publicsuffix"
)

// StaticGalleryConfig 静态相册采集配置
type StaticGalleryConfig struct {
	MediaMarker      string
	Timeout          time.Duration
	IgnoreCertErrors bool
}

// StaticGalleryCollector 不经过浏览器,直接请求相册页HTML并提取媒体地址
// 只适用于服务端渲染的页面;登录态来自浏览器导出的Cookie
type StaticGalleryCollector struct {
	config         StaticGalleryConfig
	headerProvider models.HeaderProvider
	cookies        []*http.Cookie
}

// NewStaticGalleryCollector headerProvider 可以为nil
func NewStaticGalleryCollector(config StaticGalleryConfig, headerProvider models.HeaderProvider, cookies []*http.Cookie) *StaticGalleryCollector {
	if config.MediaMarker == "" {
		config.MediaMarker = models.DefaultMediaMarker
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &StaticGalleryCollector{
		config:         config,
		headerProvider: headerProvider,
		cookies:        cookies,
	}
}

// Collect 请求相册页,按文档顺序返回绝对地址,不去重
func (sc *StaticGalleryCollector) Collect(ctx context.Context, galleryURL string) ([]string, error) {
	c, err := sc.newCollector(ctx, galleryURL)
	if err != nil {
		return nil, err
	}

	var urls []string
	selector := fmt.Sprintf(`img[src*=%q]`, sc.config.MediaMarker)

	c.OnRequest(func(r *colly.Request) {
		sc.applyHeaders(r)
		utils.Debugf("静态请求: %s", r.URL)
	})

	// OnResponse 先于 OnHTML 执行,解压后的Body会被后续解析使用
	c.OnResponse(func(r *colly.Response) {
		encoding := r.Headers.Get("Content-Encoding")
		if encoding == "" {
			return
		}
		decoded, err := utils.DecompressBody(encoding, r.Body)
		if err != nil {
			// colly 已自行处理gzip
			utils.Debugf("响应体无需解压 [%s] (编码=%s): %v", r.Request.URL, encoding, err)
			return
		}
		utils.Debugf("已解压响应 [%s]: %d → %d bytes", r.Request.URL, len(r.Body), len(decoded))
		r.Body = decoded
	})

	c.OnHTML(selector, func(e *colly.HTMLElement) {
		if src := e.Request.AbsoluteURL(e.Attr("src")); src != "" {
			urls = append(urls, src)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		utils.Errorf("静态相册请求失败 [%s] (状态码=%d): %v", r.Request.URL, r.StatusCode, err)
	})

	utils.Infof("📄 静态采集相册页: %s", galleryURL)
	if err := c.Visit(galleryURL); err != nil {
		return nil, fmt.Errorf("请求相册页失败 [%s]: %w", galleryURL, err)
	}

	utils.Infof("静态页面中发现 %d 个媒体元素", len(urls))
	return urls, nil
}

// newCollector 同步collector,Cookie放入公共后缀感知的jar
func (sc *StaticGalleryCollector) newCollector(ctx context.Context, galleryURL string) (*colly.Collector, error) {
	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(sc.config.Timeout)

	if sc.config.IgnoreCertErrors {
		c.WithTransport(&http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		})
		utils.Warnf("静态采集已配置为跳过HTTPS证书验证")
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("创建Cookie jar失败: %w", err)
	}
	c.SetCookieJar(jar)

	if len(sc.cookies) > 0 {
		u, err := url.Parse(galleryURL)
		if err != nil {
			return nil, fmt.Errorf("相册地址无效 [%s]: %w", galleryURL, err)
		}
		jar.SetCookies(u, sc.cookies)
		utils.Debugf("静态采集使用浏览器Cookie: %v", utils.NewHeaderRedactor().RedactCookies(sc.cookies))
	}
	return c, nil
}

// applyHeaders 每个请求附加配置的头部
func (sc *StaticGalleryCollector) applyHeaders(r *colly.Request) {
	if sc.headerProvider == nil {
		return
	}
	headers, err := sc.headerProvider.GetHeaders()
	if err != nil {
		utils.Warnf("获取HTTP头部失败: %v", err)
		return
	}
	for name, values := range headers {
		if len(values) > 0 {
			r.Headers.Set(name, values[0])
		}
	}
}
