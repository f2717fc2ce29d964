package crawlers

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/MediaGrab/internal/models"
	"github.com/RecoveryAshes/MediaGrab/internal/utils"
)

// StopReason 滚动结束原因
type StopReason string

const (
	StopStalled       StopReason = "stalled"        // 连续停滞达到阈值
	StopMaxIterations StopReason = "max_iterations" // 达到最大轮数
	StopCancelled     StopReason = "cancelled"      // context取消
)

// ScrollEvent 每轮滚动的事件
type ScrollEvent struct {
	Iteration  int // 第几轮,从1开始
	Rendered   int // 本轮查询到的元素数
	New        int // 本轮新增的唯一媒体数
	Total      int // 累计唯一媒体数
	Height     int // 滚动后的页面高度
	HeightGrew bool
	Stall      int // 当前连续停滞轮数
}

// ItemHandler 每发现一个新媒体调用一次,按发现顺序
type ItemHandler func(ctx context.Context, ref models.MediaRef)

// CollectResult 滚动采集结果,创建后不再修改
type CollectResult struct {
	items       []models.MediaRef
	iterations  int
	finalHeight int
	reason      StopReason
}

// Items 返回按发现顺序排列的唯一媒体副本
func (r *CollectResult) Items() []models.MediaRef {
	out := make([]models.MediaRef, len(r.items))
	copy(out, r.items)
	return out
}

// Len 唯一媒体数
func (r *CollectResult) Len() int { return len(r.items) }

// Iterations 执行的滚动轮数
func (r *CollectResult) Iterations() int { return r.iterations }

// FinalHeight 最后一次读取的页面高度
func (r *CollectResult) FinalHeight() int { return r.finalHeight }

// Reason 结束原因
func (r *CollectResult) Reason() StopReason { return r.reason }

// ScrollCollector 增量滚动采集器
//
// 每轮: 查询已渲染媒体 → 按原始URL去重 → 滚动 → 等待 → 比较高度。
// 本轮无新增且高度未变计为一次停滞,否则停滞计数清零;
// 连续停滞达到 StallThreshold 时结束。
type ScrollCollector struct {
	config   models.ScrollConfig
	observer func(ScrollEvent)
	sleep    func(ctx context.Context, d time.Duration) error
}

// ScrollOption 采集器选项
type ScrollOption func(*ScrollCollector)

// WithObserver 设置每轮事件回调
func WithObserver(fn func(ScrollEvent)) ScrollOption {
	return func(c *ScrollCollector) {
		c.observer = fn
	}
}

// WithSleep 替换等待函数(测试用)
func WithSleep(fn func(ctx context.Context, d time.Duration) error) ScrollOption {
	return func(c *ScrollCollector) {
		c.sleep = fn
	}
}

// NewScrollCollector 创建滚动采集器
func NewScrollCollector(config models.ScrollConfig, opts ...ScrollOption) (*ScrollCollector, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("滚动参数无效: %w", err)
	}

	c := &ScrollCollector{
		config: config,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Collect 滚动整个页面并收集全部唯一媒体
// 页面查询或滚动出错时直接返回错误;context取消时返回已收集的部分结果和ctx.Err()
func (c *ScrollCollector) Collect(ctx context.Context, page PageQuerier, handle ItemHandler) (*CollectResult, error) {
	seen := make(map[string]struct{})
	result := &CollectResult{}

	lastHeight, err := page.DocumentHeight(ctx)
	if err != nil {
		return nil, err
	}
	result.finalHeight = lastHeight

	utils.Infof("📜 开始滚动采集 (步长=%dpx, 等待=%v, 停滞阈值=%d)",
		c.config.Distance, c.config.Pause, c.config.StallThreshold)

	stall := 0
	for {
		if err := ctx.Err(); err != nil {
			result.reason = StopCancelled
			return result, err
		}
		result.iterations++

		rendered, err := page.RenderedMedia(ctx)
		if err != nil {
			return nil, fmt.Errorf("第%d轮查询媒体失败: %w", result.iterations, err)
		}

		newCount := 0
		for _, ref := range rendered {
			if _, ok := seen[ref.URL]; ok {
				continue
			}
			seen[ref.URL] = struct{}{}
			result.items = append(result.items, ref)
			newCount++
			if handle != nil {
				handle(ctx, ref)
			}
		}

		utils.Infof("共发现 %d 个媒体, 本轮新增 %d 个", len(result.items), newCount)

		if err := page.ScrollBy(ctx, c.config.Distance); err != nil {
			return nil, fmt.Errorf("第%d轮滚动失败: %w", result.iterations, err)
		}
		if err := c.sleep(ctx, c.config.Pause); err != nil {
			result.reason = StopCancelled
			return result, err
		}

		height, err := page.DocumentHeight(ctx)
		if err != nil {
			return nil, fmt.Errorf("第%d轮读取高度失败: %w", result.iterations, err)
		}

		grew := height != lastHeight
		if newCount == 0 && !grew {
			stall++
		} else {
			stall = 0
		}
		lastHeight = height
		result.finalHeight = height

		if c.observer != nil {
			c.observer(ScrollEvent{
				Iteration:  result.iterations,
				Rendered:   len(rendered),
				New:        newCount,
				Total:      len(result.items),
				Height:     height,
				HeightGrew: grew,
				Stall:      stall,
			})
		}
		utils.Debugf("第%d轮: 高度=%d, 停滞=%d/%d", result.iterations, height, stall, c.config.StallThreshold)

		if stall >= c.config.StallThreshold {
			result.reason = StopStalled
			utils.Infof("✅ 已到达时间线末尾 (共%d轮)", result.iterations)
			return result, nil
		}
		if c.config.MaxIterations > 0 && result.iterations >= c.config.MaxIterations {
			result.reason = StopMaxIterations
			utils.Warnf("达到最大滚动轮数 %d, 提前结束", c.config.MaxIterations)
			return result, nil
		}
	}
}

// sleepContext 可被context打断的等待
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
