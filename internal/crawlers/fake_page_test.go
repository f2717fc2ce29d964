package crawlers

import (
	"context"
	"errors"
	"time"

	"github.com/RecoveryAshes/MediaGrab/internal/models"
)

// fakePage 按轮返回预设的媒体批次
// 第i次查询返回batches[i],超出后重复最后一批;页面高度在前growUntil次滚动中增长
type fakePage struct {
	batches   [][]models.MediaRef
	growUntil int
	queryErr  error

	queries  int
	scrolls  int
	scrolled []int
}

func (p *fakePage) RenderedMedia(ctx context.Context) ([]models.MediaRef, error) {
	if p.queryErr != nil {
		return nil, p.queryErr
	}
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

func (p *fakePage) ScrollBy(ctx context.Context, px int) error {
	p.scrolls++
	p.scrolled = append(p.scrolled, px)
	return nil
}

func (p *fakePage) DocumentHeight(ctx context.Context) (int, error) {
	n := p.scrolls
	if n > p.growUntil {
		n = p.growUntil
	}
	return 1000 + 800*n, nil
}

func refs(urls ...string) []models.MediaRef {
	out := make([]models.MediaRef, 0, len(urls))
	for _, u := range urls {
		out = append(out, models.MediaRef{URL: u})
	}
	return out
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

var errQuery = errors.New("dom query failed")
