package brace

import (
	"context"
	"fmt"

	"litextract/pkg/contract"
)

// Options 为 Brace Scanner 的可选配置。
type Options struct {
	// StopAtSentinel: 深度 0 处遇到 `];` 时停止扫描。nil 视为 true。
	StopAtSentinel *bool `json:"stop_at_sentinel"`
}

// Scanner 按花括号深度切分顶层对象。
type Scanner struct {
	stop bool
}

// New 创建 Scanner。
func New(opts *Options) *Scanner {
	stop := true
	if opts != nil && opts.StopAtSentinel != nil {
		stop = *opts.StopAtSentinel
	}
	return &Scanner{stop: stop}
}

var _ contract.Scanner = (*Scanner)(nil)

// Scan 返回 region 上的惰性片段流；不会预先扫描。
func (s *Scanner) Scan(ctx context.Context, region contract.Region) (contract.FragmentStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &stream{ctx: ctx, text: region.Text, base: region.Start, stop: s.stop, open: -1}, nil
}

// stream: 单次线性扫描状态。
type stream struct {
	ctx  context.Context
	text string
	base int
	stop bool

	pos   int
	depth int
	open  int // 当前捕获的起点；-1 表示未在捕获
	next  int // 下一个 Ordinal
	done  bool
	err   error
}

// Next 产出下一个平衡片段；序列结束返回 false。
func (st *stream) Next() (contract.Fragment, bool) {
	if st.done {
		return contract.Fragment{}, false
	}
	for st.pos < len(st.text) {
		if err := st.ctx.Err(); err != nil {
			st.finish(err)
			return contract.Fragment{}, false
		}
		i := st.pos
		c := st.text[i]
		st.pos++
		switch c {
		case '{':
			if st.depth == 0 {
				st.open = i
			}
			st.depth++
		case '}':
			if st.depth == 0 {
				// 游离的右花括号：忽略
				continue
			}
			st.depth--
			if st.depth == 0 {
				f := contract.Fragment{Ordinal: st.next, Offset: st.base + st.open, Text: st.text[st.open : i+1]}
				st.next++
				st.open = -1
				return f, true
			}
		case ']':
			if st.stop && st.depth == 0 && i+1 < len(st.text) && st.text[i+1] == ';' {
				st.finish(nil)
				return contract.Fragment{}, false
			}
		}
	}
	if st.depth > 0 {
		st.finish(fmt.Errorf("%w: object at offset %d not closed (depth %d)", contract.ErrUnbalanced, st.base+st.open, st.depth))
	} else {
		st.finish(nil)
	}
	return contract.Fragment{}, false
}

func (st *stream) finish(err error) {
	st.done = true
	st.err = err
	st.open = -1
}

// Err 返回扫描结束原因；正常结束为 nil。
func (st *stream) Err() error { return st.err }

// Collect 读尽 stream，返回全部片段与结束错误（便于测试与小输入场景）。
func Collect(fs contract.FragmentStream) ([]contract.Fragment, error) {
	var out []contract.Fragment
	for {
		f, ok := fs.Next()
		if !ok {
			break
		}
		out = append(out, f)
	}
	return out, fs.Err()
}
