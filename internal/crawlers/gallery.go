package crawlers

import (
	"context"
	"fmt"

	"github.com/RecoveryAshes/MediaGrab/internal/utils"
)

// GalleryCollector 单页采集器: 一次DOM查询,不滚动
type GalleryCollector struct{}

// NewGalleryCollector 创建单页采集器
func NewGalleryCollector() *GalleryCollector {
	return &GalleryCollector{}
}

// Collect 返回当前页面所有匹配媒体标记的img src,按DOM顺序,不去重
func (g *GalleryCollector) Collect(ctx context.Context, page PageQuerier) ([]string, error) {
	refs, err := page.RenderedMedia(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询相册图片失败: %w", err)
	}

	urls := make([]string, 0, len(refs))
	for _, ref := range refs {
		urls = append(urls, ref.URL)
	}

	utils.Infof("🖼️  相册页共发现 %d 张图片", len(urls))
	return urls, nil
}
