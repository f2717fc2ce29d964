package utils_test

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"testing"

	"github.com/RecoveryAshes/MediaGrab/internal/utils"
	"github.com/andybalholm/brotli"
)

func compress(t *testing.T, encoding string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	switch encoding {
	case "gzip":
		w := gzip.NewWriter(&buf)
		w.Write(data)
		w.Close()
	case "deflate":
		w, _ := flate.NewWriter(&buf, flate.DefaultCompression)
		w.Write(data)
		w.Close()
	case "br":
		w := brotli.NewWriter(&buf)
		w.Write(data)
		w.Close()
	default:
		buf.Write(data)
	}
	return buf.Bytes()
}

func TestDecompressBody(t *testing.T) {
	payload := bytes.Repeat([]byte("<img src=\"/v1/media/1/thumbnail\">"), 100)

	for _, encoding := range []string{"gzip", "deflate", "br", "", "identity", "x-unknown"} {
		t.Run("编码="+encoding, func(t *testing.T) {
			got, err := utils.DecompressBody(encoding, compress(t, encoding, payload))
			if err != nil {
				t.Fatalf("解压失败: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Errorf("解压结果不一致: %d bytes", len(got))
			}
		})
	}

	t.Run("声明gzip但内容未压缩", func(t *testing.T) {
		if _, err := utils.DecompressBody("gzip", payload); err == nil {
			t.Error("期望返回错误")
		}
	})
}
