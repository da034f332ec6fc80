package marker

import (
	"context"
	"fmt"
	"strings"

	"litextract/pkg/contract"
)

// 默认标记：DevTools EmulatedDevices.ts 中的设备数组。
const (
	DefaultStartMarker = "const emulatedDevices = ["
	DefaultEndMarker   = "];"
)

// Options 为 Marker Locator 的可选配置。
type Options struct {
	// StartMarker: 数组起始标记（字面匹配，含左方括号）。为空使用默认值。
	StartMarker string `json:"start_marker"`
	// EndMarker: 数组结束标记（字面匹配）。为空使用默认值。
	EndMarker string `json:"end_marker"`
}

// Locator 按字面标记定位数组区间。
type Locator struct {
	start string
	end   string
}

// New 创建 Locator；标记仅由空白组成时视为非法输入。
func New(opts *Options) (*Locator, error) {
	l := &Locator{start: DefaultStartMarker, end: DefaultEndMarker}
	if opts != nil {
		if opts.StartMarker != "" {
			l.start = opts.StartMarker
		}
		if opts.EndMarker != "" {
			l.end = opts.EndMarker
		}
	}
	if strings.TrimSpace(l.start) == "" || strings.TrimSpace(l.end) == "" {
		return nil, fmt.Errorf("marker: blank marker: %w", contract.ErrInvalidInput)
	}
	return l, nil
}

var _ contract.Locator = (*Locator)(nil)

// StartMarker 返回生效的起始标记（用于诊断输出）。
func (l *Locator) StartMarker() string { return l.start }

// Locate 返回起始标记之后、其后首个结束标记之前的区间。
func (l *Locator) Locate(ctx context.Context, src contract.Source) (contract.Region, error) {
	select {
	case <-ctx.Done():
		return contract.Region{}, ctx.Err()
	default:
	}
	i := strings.Index(src.Text, l.start)
	if i < 0 {
		return contract.Region{}, fmt.Errorf("%w: %q", contract.ErrNoArray, l.start)
	}
	start := i + len(l.start)
	end := len(src.Text)
	if j := strings.Index(src.Text[start:], l.end); j >= 0 {
		end = start + j
	}
	return contract.Region{Start: start, End: end, Text: src.Text[start:end]}, nil
}
