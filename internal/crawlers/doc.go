// Package crawlers 提供浏览器会话与媒体地址采集功能
//
// # 概述
//
// crawlers包负责三件事:启动浏览器并等待人工登录、在相册页执行单次查询、
// 在时间线页逐步滚动收集媒体。地址规范化与下载不在本包中。
//
// # 核心组件
//
// ## Session
//
// 基于go-rod的浏览器会话。Open打开登录页后阻塞等待操作员按回车,
// 之后所有页面都在同一个标签页中导航,登录态因此得以保留。
//
//	session := NewSession(browserConfig, utils.NewConsolePrompter(), marker, iconSelector)
//	defer session.Close()
//
//	if err := session.Open(ctx, loginURL); err != nil { /* 处理错误 */ }
//	page, err := session.Navigate(ctx, timelineURL, 5*time.Second)
//
// ## PageQuerier
//
// 对渲染后页面的最小抽象:查询媒体元素、滚动、读取文档高度。
// RodPage是基于go-rod的实现,测试中使用脚本化的假页面。
//
// ## GalleryCollector
//
// 相册页只执行一次DOM查询,返回全部包含媒体标记的图片地址 (保持文档顺序)。
//
// ## StaticGalleryCollector
//
// 基于Colly的相册采集器,携带浏览器导出的Cookie直接请求相册HTML。
// 仅适用于服务端渲染的页面。
//
// ## ScrollCollector
//
// 时间线滚动采集。每轮先查询已渲染的媒体,新发现的条目立即回调处理,
// 然后滚动并等待。连续StallThreshold轮既无新条目、文档高度也不变时结束。
//
//	collector, err := NewScrollCollector(models.DefaultScrollConfig())
//	result, err := collector.Collect(ctx, page, func(ctx context.Context, ref models.MediaRef) {
//	    // 下载
//	})
//
// 结束原因见StopReason。上下文取消时返回已收集的部分结果和ctx.Err()。
//
// # 并发
//
// Session与RodPage不是并发安全的,同一时刻只应有一个调用方操作页面。
package crawlers
