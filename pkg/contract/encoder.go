package contract

import (
	"context"
	"io"
)

// Encoder: 将 Collection 序列化为交换格式文档（带缩进，保持键序）。
// 约束：确定性输出——相同输入必须产生逐字节相同的结果。
type Encoder interface {
	Encode(ctx context.Context, records Collection) (io.Reader, error)
	// Ext: 建议的产物扩展名（含点，如 ".json"）。
	Ext() string
}
