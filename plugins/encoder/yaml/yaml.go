package yaml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"litextract/pkg/contract"
)

// Options 为 YAML Encoder 的可选配置。
type Options struct {
	// Indent: 缩进空格数。0 为默认 2。
	Indent int `json:"indent"`
}

// Encoder 以 yaml.Node 构造文档，保持键序与数字类型。
type Encoder struct {
	indent int
}

// New 创建 YAML Encoder。
func New(opts *Options) *Encoder {
	e := &Encoder{indent: 2}
	if opts != nil && opts.Indent > 0 {
		e.indent = opts.Indent
	}
	return e
}

var _ contract.Encoder = (*Encoder)(nil)

// Ext 返回 ".yaml"。
func (e *Encoder) Ext() string { return ".yaml" }

// Encode 序列化集合为单个 YAML 文档（顶层为序列）。
func (e *Encoder) Encode(ctx context.Context, records contract.Collection) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	if len(records) == 0 {
		seq.Style = yaml.FlowStyle
	}
	for _, r := range records {
		n, err := node(r)
		if err != nil {
			return nil, err
		}
		seq.Content = append(seq.Content, n)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(e.indent)
	if err := enc.Encode(seq); err != nil {
		return nil, fmt.Errorf("yaml encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("yaml encode: %w", err)
	}
	return bytes.NewReader(buf.Bytes()), nil
}

func node(v any) (*yaml.Node, error) {
	switch x := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprint(x)}, nil
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: x}, nil
	case json.Number:
		tag := "!!int"
		if strings.ContainsAny(string(x), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(x)}, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if len(x) == 0 {
			n.Style = yaml.FlowStyle
		}
		for _, item := range x {
			c, err := node(item)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	case *contract.Record:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if x.Len() == 0 {
			n.Style = yaml.FlowStyle
		}
		for _, f := range x.Fields() {
			c, err := node(f.Value)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key}, c)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("yaml: unsupported value %T: %w", v, contract.ErrInvariantViolation)
	}
}
