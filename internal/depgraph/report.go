package depgraph

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
)

// Report 以 Markdown 输出依赖报告。
// prefixes 为 nil 时使用 DefaultPrefixes；空切片表示外部依赖全部展示。
func Report(w io.Writer, g *Graph, prefixes []string) error {
	if prefixes == nil {
		prefixes = DefaultPrefixes
	}
	var b strings.Builder
	b.WriteString("# Dependency Analysis Report\n\n")
	b.WriteString("## Import Graph\n\n")
	for _, file := range g.Files() {
		fmt.Fprintf(&b, "### `%s` imports:\n", file)
		internal, external := g.Split(file)
		if len(internal) > 0 {
			b.WriteString("**Internal (Extracted Files):**\n")
			for _, dep := range internal {
				fmt.Fprintf(&b, "- `%s`\n", dep)
			}
		}
		if ext := filterPrefix(external, prefixes); len(ext) > 0 {
			b.WriteString("**External:**\n")
			for _, dep := range ext {
				fmt.Fprintf(&b, "- `%s`\n", dep)
			}
		}
		b.WriteString("\n\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// HTML 将 Markdown 渲染为 HTML 片段。
func HTML(markdown []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := goldmark.New().Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("depgraph: render html: %w", err)
	}
	return buf.Bytes(), nil
}

func filterPrefix(deps, prefixes []string) []string {
	if len(prefixes) == 0 {
		return deps
	}
	var out []string
	for _, d := range deps {
		for _, p := range prefixes {
			if strings.HasPrefix(d, p) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}
