package contract

import "context"

// Normalizer: 将单个原始片段按有序改写规则转为严格文法文本。
// 约束：
//   - 纯计算，不做 I/O；
//   - 不做语义校验，畸形输出交由 Evaluator 的失败路径处理；
//   - 规则顺序固定，后一条规则依赖前一条的输出形态。
type Normalizer interface {
	Normalize(ctx context.Context, raw string) (string, error)
}
