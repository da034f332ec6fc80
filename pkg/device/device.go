package device

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-viper/mapstructure/v2"

	"litextract/pkg/contract"
)

// Insets: 外框图片的内边距。
type Insets struct {
	Left   int `mapstructure:"left" json:"left"`
	Top    int `mapstructure:"top" json:"top"`
	Right  int `mapstructure:"right" json:"right"`
	Bottom int `mapstructure:"bottom" json:"bottom"`
}

// Outline: 设备外框。
type Outline struct {
	Image  string  `mapstructure:"image" json:"image,omitempty"`
	Insets *Insets `mapstructure:"insets" json:"insets,omitempty"`
}

// Orientation: 某一朝向下的视口尺寸。
type Orientation struct {
	Width   int      `mapstructure:"width" json:"width"`
	Height  int      `mapstructure:"height" json:"height"`
	Outline *Outline `mapstructure:"outline" json:"outline,omitempty"`
}

// Screen: 屏幕参数；*-spanned 仅双屏设备存在。
type Screen struct {
	DevicePixelRatio  float64      `mapstructure:"device-pixel-ratio" json:"device-pixel-ratio"`
	Horizontal        Orientation  `mapstructure:"horizontal" json:"horizontal"`
	Vertical          Orientation  `mapstructure:"vertical" json:"vertical"`
	VerticalSpanned   *Orientation `mapstructure:"vertical-spanned" json:"vertical-spanned,omitempty"`
	HorizontalSpanned *Orientation `mapstructure:"horizontal-spanned" json:"horizontal-spanned,omitempty"`
}

// UserAgentMetadata: UA Client Hints。
type UserAgentMetadata struct {
	Platform        string `mapstructure:"platform" json:"platform"`
	PlatformVersion string `mapstructure:"platformVersion" json:"platformVersion"`
	Architecture    string `mapstructure:"architecture" json:"architecture"`
	Model           string `mapstructure:"model" json:"model"`
	Mobile          bool   `mapstructure:"mobile" json:"mobile"`
}

// EmulatedDevice: 单个仿真设备的类型化视图。
type EmulatedDevice struct {
	Title             string             `mapstructure:"title" json:"title"`
	Type              string             `mapstructure:"type" json:"type"`
	Order             int                `mapstructure:"order" json:"order"`
	UserAgent         string             `mapstructure:"user-agent" json:"user-agent"`
	Capabilities      []string           `mapstructure:"capabilities" json:"capabilities"`
	Screen            Screen             `mapstructure:"screen" json:"screen"`
	UserAgentMetadata *UserAgentMetadata `mapstructure:"user-agent-metadata" json:"user-agent-metadata,omitempty"`
	ShowByDefault     bool               `mapstructure:"show-by-default" json:"show-by-default"`
	DualScreen        bool               `mapstructure:"dual-screen" json:"dual-screen"`
	FoldableScreen    bool               `mapstructure:"foldable-screen" json:"foldable-screen"`

	// Unused: 记录中存在但未映射到字段的键（排序后）。
	Unused []string `mapstructure:"-" json:"-"`
}

// ErrMissingField: 必需字段缺失。
var ErrMissingField = errors.New("missing required field")

var required = []string{"title", "type", "screen"}

// Decode 将一条 Record 解码为 EmulatedDevice。
// 数值来自 json.Number；未知键不视为错误，记录在 Unused。
func Decode(rec *contract.Record) (EmulatedDevice, error) {
	var d EmulatedDevice
	if rec == nil {
		return d, fmt.Errorf("device: nil record: %w", contract.ErrInvalidInput)
	}
	for _, k := range required {
		if _, ok := rec.Get(k); !ok {
			return d, fmt.Errorf("device: %w: %q", ErrMissingField, k)
		}
	}
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:   &d,
		TagName:  "mapstructure",
		Metadata: &md,
	})
	if err != nil {
		return d, fmt.Errorf("device: create decoder: %w", err)
	}
	if err := decoder.Decode(rec.ToMap()); err != nil {
		return d, fmt.Errorf("device: decode %v: %w", titleOf(rec), err)
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		d.Unused = md.Unused
	}
	return d, nil
}

// RecordError: 第 Index 条记录的解码错误。
type RecordError struct {
	Index int
	Err   error
}

func (e RecordError) Error() string { return fmt.Sprintf("record %d: %v", e.Index, e.Err) }

func (e RecordError) Unwrap() error { return e.Err }

// DecodeAll 逐条解码；失败的记录按出现顺序返回在 errs 中，不影响其余记录。
func DecodeAll(records contract.Collection) (devices []EmulatedDevice, errs []RecordError) {
	for i, rec := range records {
		d, err := Decode(rec)
		if err != nil {
			errs = append(errs, RecordError{Index: i, Err: err})
			continue
		}
		devices = append(devices, d)
	}
	return devices, errs
}

func titleOf(rec *contract.Record) any {
	if v, ok := rec.Get("title"); ok {
		return v
	}
	return "<untitled>"
}
