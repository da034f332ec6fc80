package contract

import "context"

// Locator: 按字面标记在 Source 中定位数组字面量的区间。
// 约束：
//  1. 纯文本查找，无副作用；
//  2. 起始标记缺失返回 ErrNoArray（致命，不重试）；
//  3. 结束标记缺失时区间延伸至文本末尾。
type Locator interface {
	Locate(ctx context.Context, src Source) (Region, error)
}
