package contract

// FileID: 逻辑文档ID（通常为路径，需规范化，跨平台一致）。
type FileID string

// Source: 一次运行的完整输入文本（只读，生命周期 = 一次抽取）。
type Source struct {
	FileID FileID
	Text   string
}

// Region: Locator 的输出——Source.Text 中数组字面量内部的只读切片。
// 约束：Text == Source.Text[Start:End]；偏移为字节偏移。
type Region struct {
	Start int
	End   int
	Text  string
}

// Fragment: 一个顶层 `{...}` 对象的原始文本（深度 1，括号平衡）。
// - Ordinal: 在数组内的出现序号（0..n-1）；
// - Offset:  左花括号在 Source.Text 中的绝对字节偏移；
// - Text:    原文切片，不做任何修改。
type Fragment struct {
	Ordinal int
	Offset  int
	Text    string
}

// Collection: 一次运行产出的有序 Record 序列（按源数组出现顺序）。
type Collection []*Record

// Stage: 片段级失败发生的阶段。
type Stage string

const (
	StageNormalize Stage = "normalize"
	StageEvaluate  Stage = "evaluate"
)

// Skip: 一个被丢弃片段的诊断信息。
type Skip struct {
	Ordinal int
	Offset  int
	Stage   Stage
	Err     error
}

// Stats: 片段计数与记录计数。
// 不变量：Fragments == Records + Skipped。
type Stats struct {
	Fragments int
	Records   int
	Skipped   int
}
