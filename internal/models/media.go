package models

import (
	"crypto/sha256"
	"encoding/binary"
	"strconv"
	"strings"
)

const (
	// DefaultMediaMarker 媒体URL中标识符前的固定路径
	DefaultMediaMarker = "/v1/media/"

	// DefaultThumbnailMarker 缩略图路径片段
	DefaultThumbnailMarker = "/thumbnail"

	// DefaultFullMarker 原图路径片段
	DefaultFullMarker = "/full"
)

// MediaKind 媒体类型
type MediaKind string

const (
	KindImage MediaKind = "image" // 图片
	KindVideo MediaKind = "video" // 视频
)

// Ext 返回落盘使用的扩展名
func (k MediaKind) Ext() string {
	if k == KindVideo {
		return ".mp4"
	}
	return ".jpg"
}

// MediaRef 一次DOM查询得到的媒体引用,不持久化
type MediaRef struct {
	URL     string `json:"url"`      // 原始src (缩略图地址)
	IsVideo bool   `json:"is_video"` // 容器内是否有视频图标
}

// Kind 根据视频标记推导媒体类型
func (m MediaRef) Kind() MediaKind {
	if m.IsVideo {
		return KindVideo
	}
	return KindImage
}

// FileName 生成本地文件名 <media_id><ext>
func FileName(mediaID string, kind MediaKind) string {
	return mediaID + kind.Ext()
}

// Normalizer 把缩略图URL改写为原图URL,并提取媒体ID
type Normalizer struct {
	MediaMarker     string
	ThumbnailMarker string
	FullMarker      string
}

// DefaultNormalizer 使用默认标记的Normalizer
func DefaultNormalizer() Normalizer {
	return Normalizer{
		MediaMarker:     DefaultMediaMarker,
		ThumbnailMarker: DefaultThumbnailMarker,
		FullMarker:      DefaultFullMarker,
	}
}

// FullURL 替换第一个缩略图标记为原图标记
// 纯字符串替换,不解析URL结构;不含标记的URL原样返回
func (n Normalizer) FullURL(raw string) string {
	if n.ThumbnailMarker == "" {
		return raw
	}
	return strings.Replace(raw, n.ThumbnailMarker, n.FullMarker, 1)
}

// MediaID 提取媒体标记之后的第一个路径段
// 标记缺失或路径段为空时,回退为URL的SHA-256前8字节对应的十进制整数
func (n Normalizer) MediaID(u string) string {
	if n.MediaMarker != "" {
		if idx := strings.Index(u, n.MediaMarker); idx != -1 {
			rest := u[idx+len(n.MediaMarker):]
			if end := strings.IndexAny(rest, "/?#"); end != -1 {
				rest = rest[:end]
			}
			if rest != "" {
				return rest
			}
		}
	}
	return HashID(u)
}

// Normalize 返回 (原图URL, 媒体ID),ID从原图URL中提取
func (n Normalizer) Normalize(raw string) (string, string) {
	full := n.FullURL(raw)
	return full, n.MediaID(full)
}

// HashID 跨进程稳定的回退ID
func HashID(s string) string {
	sum := sha256.Sum256([]byte(s))
	return strconv.FormatUint(binary.BigEndian.Uint64(sum[:8]), 10)
}
