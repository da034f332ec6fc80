package rewrite

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"litextract/pkg/contract"
)

// 规则名（顺序即默认执行顺序）。
const (
	RuleStripComments  = "strip-comments"
	RuleQuoteKeys      = "quote-keys"
	RuleQuoteValues    = "quote-values"
	RuleQuoteLists     = "quote-lists"
	RuleTrailingCommas = "trailing-commas"
	RuleLiterals       = "literals"
)

// rule: 一条命名的文本改写。
type rule struct {
	name  string
	apply func(string) string
}

var table = []rule{
	{RuleStripComments, stripComments},
	{RuleQuoteKeys, quoteKeys},
	{RuleQuoteValues, quoteValues},
	{RuleQuoteLists, quoteLists},
	{RuleTrailingCommas, trailingCommas},
	{RuleLiterals, literals},
}

// RuleNames 返回全部规则名（默认顺序）。
func RuleNames() []string {
	out := make([]string, len(table))
	for i, r := range table {
		out[i] = r.name
	}
	return out
}

// Options 为 Rewrite Normalizer 的可选配置。
type Options struct {
	// Rules: 启用的规则名。nil 表示全部启用；执行顺序始终按默认顺序，与列出顺序无关。
	Rules []string `json:"rules"`
}

// Normalizer 依次应用规则表，把宽松字面量改写为严格文法。
type Normalizer struct {
	rules []rule
}

// New 创建 Normalizer；未知规则名返回 ErrInvalidInput。
func New(opts *Options) (*Normalizer, error) {
	if opts == nil || opts.Rules == nil {
		return &Normalizer{rules: table}, nil
	}
	enabled := make(map[string]struct{}, len(opts.Rules))
	for _, name := range opts.Rules {
		if !known(name) {
			return nil, fmt.Errorf("rewrite: unknown rule %q: %w", name, contract.ErrInvalidInput)
		}
		enabled[name] = struct{}{}
	}
	var rs []rule
	for _, r := range table {
		if _, ok := enabled[r.name]; ok {
			rs = append(rs, r)
		}
	}
	return &Normalizer{rules: rs}, nil
}

func known(name string) bool {
	for _, r := range table {
		if r.name == name {
			return true
		}
	}
	return false
}

var _ contract.Normalizer = (*Normalizer)(nil)

// Enabled 返回生效的规则名。
func (n *Normalizer) Enabled() []string {
	out := make([]string, len(n.rules))
	for i, r := range n.rules {
		out[i] = r.name
	}
	return out
}

// Normalize 不做语义校验；畸形结果交由 Evaluator 判定。
func (n *Normalizer) Normalize(ctx context.Context, raw string) (string, error) {
	s := raw
	for _, r := range n.rules {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		s = r.apply(s)
	}
	return s, nil
}

var (
	quotedKeyRe     = regexp.MustCompile(`'([\w-]+)'\s*:`)
	quotedValueRe   = regexp.MustCompile(`:\s*'([^']*)'`)
	pairListRe      = regexp.MustCompile(`\[\s*'([^']*)'\s*,\s*'([^']*)'\s*\]`)
	singleListRe    = regexp.MustCompile(`\[\s*'([^']*)'\s*\]`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	undefinedRe     = regexp.MustCompile(`([:\[,]\s*)undefined\b`)
)

// stripComments 删除字符串之外的 `//` 行注释与 `/* */` 块注释，换行保留。
func stripComments(s string) string {
	if !strings.Contains(s, "/") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case c == '\'' || c == '"' || c == '`':
			quote = c
			b.WriteByte(c)
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			j := strings.IndexByte(s[i:], '\n')
			if j < 0 {
				i = len(s)
			} else {
				i += j - 1
			}
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			j := strings.Index(s[i+2:], "*/")
			if j < 0 {
				i = len(s)
			} else {
				i += j + 3
			}
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// quoteKeys: 'key': → "key":，随后为 `{`/`,` 之后的裸标识符键加双引号。
func quoteKeys(s string) string {
	s = quotedKeyRe.ReplaceAllString(s, `"$1":`)
	return quoteBareKeys(s)
}

func quoteBareKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == '\\' && i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			} else if c == quote {
				quote = 0
			}
			continue
		}
		b.WriteByte(c)
		switch c {
		case '\'', '"', '`':
			quote = c
			continue
		case '{', ',':
		default:
			continue
		}
		j := i + 1
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		if j >= len(s) || !isIdentStart(s[j]) {
			continue
		}
		k := j + 1
		for k < len(s) && isIdentPart(s[k]) {
			k++
		}
		m := k
		for m < len(s) && isSpace(s[m]) {
			m++
		}
		if m >= len(s) || s[m] != ':' {
			continue
		}
		b.WriteString(s[i+1 : j])
		b.WriteByte('"')
		b.WriteString(s[j:k])
		b.WriteByte('"')
		i = k - 1
	}
	return b.String()
}

// quoteValues: : 'value' → : "value"；值内双引号转义。
func quoteValues(s string) string {
	return quotedValueRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := quotedValueRe.FindStringSubmatch(m)
		return `: "` + escapeDouble(sub[1]) + `"`
	})
}

// quoteLists: 先两元素列表，再单元素列表。
func quoteLists(s string) string {
	s = pairListRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := pairListRe.FindStringSubmatch(m)
		return `["` + escapeDouble(sub[1]) + `", "` + escapeDouble(sub[2]) + `"]`
	})
	return singleListRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := singleListRe.FindStringSubmatch(m)
		return `["` + escapeDouble(sub[1]) + `"]`
	})
}

// trailingCommas: 删除 `}`/`]` 之前的逗号（仅字符串之外）。
func trailingCommas(s string) string {
	return outsideStrings(s, func(seg string) string {
		return trailingCommaRe.ReplaceAllString(seg, "$1")
	})
}

// literals: 值位置的 undefined → null；true/false 原样保留；字符串内不改。
func literals(s string) string {
	return outsideStrings(s, func(seg string) string {
		return undefinedRe.ReplaceAllString(seg, "${1}null")
	})
}

// outsideStrings 仅对引号之外的片段应用 fn；引号内（含未闭合的尾部）原样保留。
func outsideStrings(s string, fn func(string) string) string {
	var b strings.Builder
	b.Grow(len(s))
	start := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
				b.WriteString(s[start : i+1])
				start = i + 1
			}
			continue
		}
		if c == '\'' || c == '"' || c == '`' {
			b.WriteString(fn(s[start:i]))
			start = i
			quote = c
		}
	}
	if quote != 0 {
		b.WriteString(s[start:])
	} else {
		b.WriteString(fn(s[start:]))
	}
	return b.String()
}

func escapeDouble(v string) string {
	if !strings.Contains(v, `"`) {
		return v
	}
	var b strings.Builder
	b.Grow(len(v) + 4)
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == '\\' && i+1 < len(v) {
			b.WriteByte(c)
			i++
			b.WriteByte(v[i])
			continue
		}
		if c == '"' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c == '-' || (c >= '0' && c <= '9')
}
