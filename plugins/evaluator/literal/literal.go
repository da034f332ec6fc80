package literal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"

	"litextract/pkg/contract"
)

// Options 为 Literal Evaluator 的可选配置。
type Options struct {
	// Repair: 严格求值失败后尝试 jsonrepair 修复再求值。默认关闭。
	Repair bool `json:"repair"`
	// MaxDepth: 嵌套层数上限（对象与列表合计）。0 表示默认 64。
	MaxDepth int `json:"max_depth"`
}

const defaultMaxDepth = 64

// Evaluator 仅接受字面量文法（对象/列表/字符串/数字/布尔/null），不执行任何代码。
type Evaluator struct {
	repair   bool
	maxDepth int
}

// New 创建 Evaluator。
func New(opts *Options) *Evaluator {
	e := &Evaluator{maxDepth: defaultMaxDepth}
	if opts != nil {
		e.repair = opts.Repair
		if opts.MaxDepth > 0 {
			e.maxDepth = opts.MaxDepth
		}
	}
	return e
}

var _ contract.Evaluator = (*Evaluator)(nil)

// Evaluate 将规范化文本求值为 Record；顶层必须为对象。
// 失败返回包装 ErrFragmentUnparseable 的错误。
func (e *Evaluator) Evaluate(ctx context.Context, normalized string) (*contract.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, err := e.strict(normalized)
	if err == nil || !e.repair {
		return rec, err
	}
	repaired, rerr := jsonrepair.JSONRepair(normalized)
	if rerr != nil {
		return nil, fmt.Errorf("%w (repair: %v)", err, rerr)
	}
	rec, err2 := e.strict(repaired)
	if err2 != nil {
		return nil, fmt.Errorf("%w (after repair)", err2)
	}
	return rec, nil
}

func (e *Evaluator) strict(text string) (*contract.Record, error) {
	if !gjson.Valid(text) {
		return nil, fmt.Errorf("%w: %s", contract.ErrFragmentUnparseable, brief(text))
	}
	root := gjson.Parse(text)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top-level value is %s, want object", contract.ErrFragmentUnparseable, typeName(root))
	}
	v, err := e.value(root, 1)
	if err != nil {
		return nil, err
	}
	return v.(*contract.Record), nil
}

// value 按源顺序遍历 gjson 结果，数字保留原文（json.Number）。
func (e *Evaluator) value(r gjson.Result, depth int) (any, error) {
	switch r.Type {
	case gjson.Null:
		return nil, nil
	case gjson.False:
		return false, nil
	case gjson.True:
		return true, nil
	case gjson.Number:
		return json.Number(r.Raw), nil
	case gjson.String:
		return r.String(), nil
	}
	if depth > e.maxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", contract.ErrFragmentUnparseable, e.maxDepth)
	}
	var err error
	if r.IsArray() {
		list := make([]any, 0)
		r.ForEach(func(_, item gjson.Result) bool {
			var v any
			if v, err = e.value(item, depth+1); err != nil {
				return false
			}
			list = append(list, v)
			return true
		})
		return list, err
	}
	rec := contract.NewRecord(0)
	r.ForEach(func(key, item gjson.Result) bool {
		var v any
		if v, err = e.value(item, depth+1); err != nil {
			return false
		}
		rec.Set(key.String(), v)
		return true
	})
	return rec, err
}

func typeName(r gjson.Result) string {
	switch {
	case r.IsArray():
		return "array"
	case r.Type == gjson.String:
		return "string"
	case r.Type == gjson.Number:
		return "number"
	case r.Type == gjson.True, r.Type == gjson.False:
		return "bool"
	default:
		return "null"
	}
}

// brief 截取错误信息中的片段预览。
func brief(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	const max = 60
	if len(s) > max {
		return fmt.Sprintf("%q...", s[:max])
	}
	return fmt.Sprintf("%q", s)
}
