package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/spf13/afero"

	"litextract/pkg/contract"
)

// deviceJSON 近似一条设备记录编码后的字节。
const deviceJSON = `  {
    "order": 10,
    "show-by-default": true,
    "title": "iPhone SE",
    "screen": {"horizontal": {"width": 667, "height": 375}, "device-pixel-ratio": 2, "vertical": {"width": 375, "height": 667}},
    "capabilities": ["touch", "mobile"],
    "type": "phone"
  },
`

// BenchmarkWrite 按记录数与写入模式（原子替换/覆盖写/标准输出）测量 Writer.Write。
func BenchmarkWrite(b *testing.B) {
	falsy := false
	modes := []struct {
		name   string
		atomic *bool
		id     contract.ArtifactID
	}{
		{"atomic", nil, "all_devices.json"},
		{"overwrite", &falsy, "all_devices.json"},
		{"stdout", nil, StdoutID},
	}
	for _, records := range []int{100, 10000} {
		data := append([]byte("[\n"), bytes.Repeat([]byte(deviceJSON), records)...)
		data = append(data, "]\n"...)
		for _, m := range modes {
			b.Run(fmt.Sprintf("records=%d/%s", records, m.name), func(b *testing.B) {
				w, err := New(afero.NewMemMapFs(), &Options{OutputDir: "/bench", Atomic: m.atomic})
				if err != nil {
					b.Fatalf("创建 Writer 失败: %v", err)
				}
				w.WithStdout(io.Discard)
				ctx := context.Background()
				b.SetBytes(int64(len(data)))
				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if err := w.Write(ctx, m.id, bytes.NewReader(data)); err != nil {
						b.Fatalf("写入失败: %v", err)
					}
				}
			})
		}
	}
}
