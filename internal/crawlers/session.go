package crawlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/RecoveryAshes/MediaGrab/internal/models"
	"github.com/RecoveryAshes/MediaGrab/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ErrSessionNotOpen 在Open之前调用了需要浏览器的操作
var ErrSessionNotOpen = errors.New("浏览器会话未打开")

// Prompter 阻塞等待操作员确认
type Prompter interface {
	Wait(message string) error
}

// Session 浏览器会话: 启动浏览器,人工登录后导航到目标页面
// 不处理任何账号密码
type Session struct {
	config            models.BrowserConfig
	prompter          Prompter
	mediaMarker       string
	videoIconSelector string

	browser *rod.Browser
	page    *rod.Page
}

// NewSession 创建浏览器会话
func NewSession(config models.BrowserConfig, prompter Prompter, mediaMarker, videoIconSelector string) *Session {
	return &Session{
		config:            config,
		prompter:          prompter,
		mediaMarker:       mediaMarker,
		videoIconSelector: videoIconSelector,
	}
}

// Open 启动浏览器,打开登录页并等待操作员完成登录
func (s *Session) Open(ctx context.Context, loginURL string) error {
	if err := s.launchBrowser(ctx); err != nil {
		return err
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("创建标签页失败: %w", err)
	}
	s.page = page

	utils.Infof("🔐 打开登录页: %s", loginURL)
	if err := s.navigate(ctx, loginURL); err != nil {
		return err
	}

	if err := s.prompter.Wait("请在打开的浏览器中登录。看到首页后,在此按回车继续..."); err != nil {
		return fmt.Errorf("等待登录确认失败: %w", err)
	}

	utils.Info("✅ 操作员已确认登录")
	return nil
}

// Navigate 在同一标签页中打开目标页面,等待加载后再等待settle
func (s *Session) Navigate(ctx context.Context, targetURL string, settle time.Duration) (PageQuerier, error) {
	if s.page == nil {
		return nil, ErrSessionNotOpen
	}

	utils.Infof("🌐 导航到目标页面: %s", targetURL)
	if err := s.navigate(ctx, targetURL); err != nil {
		return nil, err
	}

	if err := sleepContext(ctx, settle); err != nil {
		return nil, err
	}

	utils.Debugf("页面加载完成: %s", targetURL)
	return NewRodPage(s.page, s.mediaMarker, s.videoIconSelector), nil
}

// Prompt 透传给Prompter,用于导航后的人工操作确认
func (s *Session) Prompt(message string) error {
	return s.prompter.Wait(message)
}

// Cookies 导出浏览器Cookie,供HTTP下载复用登录态
func (s *Session) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	if s.browser == nil {
		return nil, ErrSessionNotOpen
	}

	cookies, err := s.browser.Context(ctx).GetCookies()
	if err != nil {
		return nil, fmt.Errorf("读取浏览器Cookie失败: %w", err)
	}

	utils.Debugf("导出浏览器Cookie: %d个", len(cookies))
	return toHTTPCookies(cookies), nil
}

// Close 关闭浏览器
func (s *Session) Close() {
	if s.browser == nil {
		return
	}
	if err := s.browser.Close(); err != nil {
		utils.Warnf("关闭浏览器失败: %v", err)
	}
	s.browser = nil
	s.page = nil
	utils.Debugf("浏览器已关闭")
}

// launchBrowser 启动并连接浏览器
func (s *Session) launchBrowser(ctx context.Context) error {
	utils.LogSystemMemory()

	l := launcher.New().Context(ctx).Headless(s.config.Headless)

	if s.config.Bin != "" {
		l = l.Bin(s.config.Bin)
	} else if path, found := launcher.LookPath(); found {
		utils.Debugf("使用系统浏览器: %s", path)
		l = l.Bin(path)
	}

	if s.config.UserDataDir != "" {
		l = l.UserDataDir(s.config.UserDataDir)
		utils.Debugf("浏览器用户数据目录: %s", s.config.UserDataDir)
	}

	if s.config.IgnoreCertErrors {
		l = l.Set("ignore-certificate-errors")
		utils.Warnf("浏览器已配置为跳过HTTPS证书验证")
	}

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("启动浏览器失败: %w", err)
	}

	s.browser = rod.New().Context(ctx).ControlURL(controlURL)
	if err := s.browser.Connect(); err != nil {
		return fmt.Errorf("连接浏览器失败: %w", err)
	}

	utils.Debugf("浏览器已启动: %s", controlURL)
	return nil
}

// navigate 导航并等待load事件
func (s *Session) navigate(ctx context.Context, targetURL string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(targetURL); err != nil {
		return fmt.Errorf("导航失败 [%s]: %w", targetURL, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("等待页面加载失败 [%s]: %w", targetURL, err)
	}
	return nil
}

// toHTTPCookies 转换CDP Cookie为net/http Cookie
func toHTTPCookies(cookies []*proto.NetworkCookie) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		// 会话Cookie的Expires为-1
		if c.Expires > 0 {
			hc.Expires = c.Expires.Time()
		}
		out = append(out, hc)
	}
	return out
}
