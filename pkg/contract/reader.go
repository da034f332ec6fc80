package contract

import "context"

// Reader: 输入源抽象（文件/STDIN）。
// 约束：
// 1) 一次性完整读入（不做流式抽取）；
// 2) FileID 稳定且去平台差异化；
// 3) 不做解码/业务解析，仅提供文本；
// 4) 不在内部起并发。
type Reader interface {
	Read(ctx context.Context, path string) (Source, error)
}
