package contract

import "context"

// Scanner: 基于花括号深度在 Region 内切出顶层对象片段。
// 约束：
//  1. 单次线性扫描，不做分隔符切分；
//  2. 片段按源顺序产出，Ordinal 自 0 严格递增；
//  3. 空输入产出空序列而非错误；
//  4. 无内部并发、无 I/O。
type Scanner interface {
	Scan(ctx context.Context, region Region) (FragmentStream, error)
}

// FragmentStream: 惰性、有限、不可重启的片段序列。
// 用法与 bufio.Scanner 相同：循环 Next 直至返回 false，再检查 Err。
type FragmentStream interface {
	Next() (Fragment, bool)
	Err() error
}
