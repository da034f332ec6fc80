package contract

import "errors"

// 最小错误分类（用于上层策略判定与 diag.Classify）。
var (
	// ErrNoArray: 起始标记缺失，整次运行失败。
	ErrNoArray = errors.New("no array found")
	// ErrUnbalanced: 区间结束时仍有未闭合的对象捕获。
	ErrUnbalanced = errors.New("unbalanced braces")
	// ErrFragmentUnparseable: 片段无法按字面量文法求值（片段级，可恢复）。
	ErrFragmentUnparseable = errors.New("fragment unparseable")
	// ErrInvalidInput: 配置或调用参数非法。
	ErrInvalidInput = errors.New("invalid input")
	// ErrPathInvalid: 目标标识映射为无效/越界路径（例如绝对路径或 '..' 逃逸）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrInvariantViolation: 领域不变量违例（通用哨兵）。
	ErrInvariantViolation = errors.New("invariant violation")
)
