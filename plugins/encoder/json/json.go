package json

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/tidwall/pretty"

	"litextract/pkg/contract"
)

// Options 为 JSON Encoder 的可选配置。
type Options struct {
	// Indent: 每层缩进的空格数。0 为默认 2；负数输出紧凑单行。
	Indent int `json:"indent"`
	// ArrayWidth: 短列表合并为单行的最大列宽。0 表示总是展开。
	ArrayWidth int `json:"array_width"`
}

// Encoder 输出保序、带缩进、以换行结尾的 JSON 数组。
type Encoder struct {
	indent  string
	compact bool
	width   int
}

// New 创建 JSON Encoder。
func New(opts *Options) *Encoder {
	e := &Encoder{indent: "  "}
	if opts != nil {
		switch {
		case opts.Indent < 0:
			e.compact = true
		case opts.Indent > 0:
			e.indent = strings.Repeat(" ", opts.Indent)
		}
		if opts.ArrayWidth > 0 {
			e.width = opts.ArrayWidth
		}
	}
	return e
}

var _ contract.Encoder = (*Encoder)(nil)

// Ext 返回 ".json"。
func (e *Encoder) Ext() string { return ".json" }

// Encode 序列化集合；HTML 字符不转义，数字保持原文。
func (e *Encoder) Encode(ctx context.Context, records contract.Collection) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := records.MarshalJSON()
	if err != nil {
		return nil, err
	}
	if e.compact {
		return bytes.NewReader(append(raw, '\n')), nil
	}
	out := pretty.PrettyOptions(raw, &pretty.Options{Width: e.width, Indent: e.indent})
	return bytes.NewReader(out), nil
}
