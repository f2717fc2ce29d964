package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RecoveryAshes/MediaGrab/internal/crawlers"
	"github.com/RecoveryAshes/MediaGrab/internal/models"
	"github.com/stretchr/testify/require"
)

// scriptedPage 第i次查询返回batches[i],之后重复最后一批,高度不变
type scriptedPage struct {
	batches [][]models.MediaRef
	queries int
}

func (p *scriptedPage) RenderedMedia(ctx context.Context) ([]models.MediaRef, error) {
	p.queries++
	if len(p.batches) == 0 {
		return nil, nil
	}
	i := p.queries - 1
	if i >= len(p.batches) {
		i = len(p.batches) - 1
	}
	return p.batches[i], nil
}

func (p *scriptedPage) ScrollBy(ctx context.Context, px int) error { return nil }

func (p *scriptedPage) DocumentHeight(ctx context.Context) (int, error) { return 2000, nil }

var errNavigate = errors.New("navigation failed")

type fakeBrowser struct {
	pages       map[string]crawlers.PageQuerier
	cookies     []*http.Cookie
	openErr     error
	navigateErr map[string]error

	opened    int
	closed    bool
	navigated []string
	prompts   []string
}

func (b *fakeBrowser) Open(ctx context.Context, loginURL string) error {
	b.opened++
	return b.openErr
}

func (b *fakeBrowser) Navigate(ctx context.Context, targetURL string, settle time.Duration) (crawlers.PageQuerier, error) {
	b.navigated = append(b.navigated, targetURL)
	if err := b.navigateErr[targetURL]; err != nil {
		return nil, err
	}
	return b.pages[targetURL], nil
}

func (b *fakeBrowser) Prompt(message string) error {
	b.prompts = append(b.prompts, message)
	return nil
}

func (b *fakeBrowser) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	return b.cookies, nil
}

func (b *fakeBrowser) Close() { b.closed = true }

// mediaServer 模拟站点: 只响应full地址;缩略图地址返回404,路径包含fail的返回500
// requireCookie 非空时没有该Cookie返回401
type mediaServer struct {
	*httptest.Server

	// galleryHTML 非空时 /gallery 返回该页面
	galleryHTML string
}

func newMediaServer(t *testing.T, requireCookie string) *mediaServer {
	t.Helper()
	ms := &mediaServer{}
	ms.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requireCookie != "" {
			if _, err := r.Cookie(requireCookie); err != nil {
				http.Error(w, "login required", http.StatusUnauthorized)
				return
			}
		}
		switch {
		case r.URL.Path == "/gallery" && ms.galleryHTML != "":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(ms.galleryHTML))
		case strings.Contains(r.URL.Path, "/thumbnail"):
			http.NotFound(w, r)
		case strings.Contains(r.URL.Path, "fail"):
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			w.Write([]byte("media:" + r.URL.Path))
		}
	}))
	t.Cleanup(ms.Close)
	return ms
}

func (ms *mediaServer) thumb(id string) string {
	return ms.URL + "/v1/media/" + id + "/thumbnail/img.jpg"
}

// writeTestConfig 写入临时配置文件并加载
func writeTestConfig(t *testing.T, baseURL string) *Config {
	t.Helper()
	dir := t.TempDir()
	content := `
site:
  base_url: "` + baseURL + `"
  login_url: "` + baseURL + `/login"
  gallery_url: "` + baseURL + `/gallery"
  timeline_url: "` + baseURL + `/timeline"
browser:
  gallery_settle: 0s
  timeline_settle: 0s
scroll:
  pause: 1ms
download:
  gallery_dir: "` + filepath.ToSlash(filepath.Join(dir, "downloads_media")) + `"
  timeline_dir: "` + filepath.ToSlash(filepath.Join(dir, "downloads_timeline")) + `"
  show_progress: false
  min_free_mb: 0
output:
  reports_dir: "` + filepath.ToSlash(filepath.Join(dir, "reports")) + `"
batch:
  delay: 0s
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	return cfg
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
