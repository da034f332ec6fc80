package contract

import "context"

// Evaluator: 将规范化文本按字面量文法求值为 Record。
// 仅接受对象/数组/字符串/数字/布尔/null 字面量；不可触达任何代码执行语义。
// 失败返回包裹 ErrFragmentUnparseable 的错误。
type Evaluator interface {
	Evaluate(ctx context.Context, normalized string) (*Record, error)
}
