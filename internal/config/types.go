package config

import (
	"encoding/json"
)

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON 使用 snake_case；未知字段在解析期失败。
type Config struct {
	// Input: 源文本路径；"-" 表示 STDIN。
	Input string `json:"input" validate:"required"`
	// Output: 产物路径；"-" 表示标准输出；为空时写到 output_dir 下的 all_devices.<ext>。
	Output string `json:"output"`
	// Diagnostics: 逐条打印被跳过的片段（stderr）。
	Diagnostics bool `json:"diagnostics"`
	// Summary: 写出后打印设备分类汇总。
	Summary bool    `json:"summary"`
	Logging Logging `json:"logging"`

	// 组件名选择（空则使用默认名）。
	Components Components `json:"components"`

	// 各组件 Options 子树，原样 JSON 传入工厂。
	Options Options `json:"options"`
}

// Logging: 仅保留日志等级可配置；输出路径与轮转策略为固定默认。
type Logging struct {
	Level string `json:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader     string `json:"reader"`
	Locator    string `json:"locator"`
	Scanner    string `json:"scanner"`
	Normalizer string `json:"normalizer"`
	Evaluator  string `json:"evaluator"`
	Encoder    string `json:"encoder"`
	Writer     string `json:"writer"`
}

// Options: 各组件的原样 JSON Options。
type Options struct {
	Reader     json.RawMessage `json:"reader,omitempty"`
	Locator    json.RawMessage `json:"locator,omitempty"`
	Scanner    json.RawMessage `json:"scanner,omitempty"`
	Normalizer json.RawMessage `json:"normalizer,omitempty"`
	Evaluator  json.RawMessage `json:"evaluator,omitempty"`
	Encoder    json.RawMessage `json:"encoder,omitempty"`
	Writer     json.RawMessage `json:"writer,omitempty"`
}
