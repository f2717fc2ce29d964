package utils

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// NewDecodingReader 按Content-Encoding包装响应体
// 支持 gzip, deflate, br;未知编码原样返回并告警
func NewDecodingReader(contentEncoding string, r io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "gzip", "x-gzip":
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		return gr, nil
	case "deflate":
		return flate.NewReader(r), nil
	case "br":
		return io.NopCloser(brotli.NewReader(r)), nil
	case "", "identity":
		return io.NopCloser(r), nil
	default:
		Warnf("未知的Content-Encoding: %s", contentEncoding)
		return io.NopCloser(r), nil
	}
}

// DecompressBody 一次性解压已读入内存的响应体
func DecompressBody(contentEncoding string, body []byte) ([]byte, error) {
	reader, err := NewDecodingReader(contentEncoding, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	decoded, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("读取%s响应失败: %w", contentEncoding, err)
	}
	return decoded, nil
}
