package device

import (
	"fmt"
	"io"
	"sort"
)

// Summary: 设备分类汇总。
type Summary struct {
	Total      int
	ByType     map[string]int
	Shown      int
	Hidden     int
	DualScreen int
	Foldable   int
	// Invalid: 无法解码为设备的记录数。
	Invalid int
}

// Summarize 按 type 与 show-by-default 统计。
func Summarize(devices []EmulatedDevice) Summary {
	s := Summary{ByType: make(map[string]int)}
	for _, d := range devices {
		s.Total++
		t := d.Type
		if t == "" {
			t = "unknown"
		}
		s.ByType[t]++
		if d.ShowByDefault {
			s.Shown++
		} else {
			s.Hidden++
		}
		if d.DualScreen {
			s.DualScreen++
		}
		if d.FoldableScreen {
			s.Foldable++
		}
	}
	return s
}

// Types 返回出现过的类型（字典序）。
func (s Summary) Types() []string {
	out := make([]string, 0, len(s.ByType))
	for t := range s.ByType {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// WriteTo 以纯文本输出汇总（确定性顺序）。
func (s Summary) WriteTo(w io.Writer) (int64, error) {
	var n int64
	p := func(format string, a ...any) error {
		m, err := fmt.Fprintf(w, format, a...)
		n += int64(m)
		return err
	}
	if err := p("devices: %d (shown %d, hidden %d)\n", s.Total, s.Shown, s.Hidden); err != nil {
		return n, err
	}
	for _, t := range s.Types() {
		if err := p("  %-10s %d\n", t, s.ByType[t]); err != nil {
			return n, err
		}
	}
	if s.DualScreen > 0 || s.Foldable > 0 {
		if err := p("  dual-screen %d, foldable %d\n", s.DualScreen, s.Foldable); err != nil {
			return n, err
		}
	}
	if s.Invalid > 0 {
		if err := p("  invalid    %d\n", s.Invalid); err != nil {
			return n, err
		}
	}
	return n, nil
}
