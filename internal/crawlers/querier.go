package crawlers

import (
	"context"
	"fmt"

	"github.com/RecoveryAshes/MediaGrab/internal/models"
	"github.com/go-rod/rod"
)

// DefaultVideoIconSelector 视频缩略图容器内的图标选择器
const DefaultVideoIconSelector = "svg[data-testid='VideocamIcon']"

// PageQuerier 页面查询能力
// 采集算法只依赖这三个操作,与具体的浏览器自动化实现解耦
type PageQuerier interface {
	// RenderedMedia 返回当前已渲染的媒体元素,按DOM顺序
	RenderedMedia(ctx context.Context) ([]models.MediaRef, error)

	// ScrollBy 相对滚动指定像素
	ScrollBy(ctx context.Context, px int) error

	// DocumentHeight 返回 document.body.scrollHeight
	DocumentHeight(ctx context.Context) (int, error)
}

// mediaQueryJS 查询所有src包含媒体标记的img,并在最近的div容器中查找视频图标
const mediaQueryJS = `(marker, iconSelector) => {
	var imgs = document.querySelectorAll("img");
	var items = [];
	for (var i = 0; i < imgs.length; i++) {
		var img = imgs[i];
		if (!img.src || img.src.indexOf(marker) === -1) {
			continue;
		}
		var isVideo = false;
		var container = img.closest("div");
		if (container && container.querySelector(iconSelector)) {
			isVideo = true;
		}
		items.push({src: img.src, isVideo: isVideo});
	}
	return items;
}`

// RodPage 基于go-rod页面的PageQuerier实现
type RodPage struct {
	page              *rod.Page
	mediaMarker       string
	videoIconSelector string
}

// NewRodPage 包装go-rod页面
func NewRodPage(page *rod.Page, mediaMarker, videoIconSelector string) *RodPage {
	if mediaMarker == "" {
		mediaMarker = models.DefaultMediaMarker
	}
	if videoIconSelector == "" {
		videoIconSelector = DefaultVideoIconSelector
	}
	return &RodPage{
		page:              page,
		mediaMarker:       mediaMarker,
		videoIconSelector: videoIconSelector,
	}
}

// RenderedMedia 执行DOM查询
func (p *RodPage) RenderedMedia(ctx context.Context) ([]models.MediaRef, error) {
	result, err := p.page.Context(ctx).Evaluate(rod.Eval(mediaQueryJS, p.mediaMarker, p.videoIconSelector))
	if err != nil {
		return nil, fmt.Errorf("执行媒体查询失败 [marker=%s]: %w", p.mediaMarker, err)
	}

	arr := result.Value.Arr()
	refs := make([]models.MediaRef, 0, len(arr))
	for _, item := range arr {
		src := item.Get("src").Str()
		if src == "" {
			continue
		}
		refs = append(refs, models.MediaRef{
			URL:     src,
			IsVideo: item.Get("isVideo").Bool(),
		})
	}
	return refs, nil
}

// ScrollBy 相对滚动
func (p *RodPage) ScrollBy(ctx context.Context, px int) error {
	if _, err := p.page.Context(ctx).Eval(`(dy) => window.scrollBy(0, dy)`, px); err != nil {
		return fmt.Errorf("滚动页面失败: %w", err)
	}
	return nil
}

// DocumentHeight 读取页面高度
func (p *RodPage) DocumentHeight(ctx context.Context) (int, error) {
	res, err := p.page.Context(ctx).Eval(`() => document.body.scrollHeight`)
	if err != nil {
		return 0, fmt.Errorf("读取页面高度失败: %w", err)
	}
	return res.Value.Int(), nil
}
