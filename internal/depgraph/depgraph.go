package depgraph

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// 默认的文件选择模式与外部依赖前缀。
var (
	DefaultInclude  = []string{"**/*.h", "**/*.cc"}
	DefaultPrefixes = []string{"net/", "services/"}
)

var includeRe = regexp.MustCompile(`^\s*#include\s+["<](.+?)[">]`)

// Options 控制扫描范围与报告过滤。
type Options struct {
	// Root: 扫描根目录。为空使用当前目录。
	Root string
	// Include/Exclude: 相对 Root 的 doublestar 模式（斜杠分隔）。Include 为空使用默认值。
	Include []string
	Exclude []string
	// Prefixes: 外部依赖的前缀过滤。nil 使用默认值；空切片表示全部展示。
	Prefixes []string
}

// FileError: 无法读取的文件。
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

// Graph: 文件 → 按行序排列的 include 引用。
// Seen 包含所有被选中的文件（含读取失败者），用于内部/外部判定。
type Graph struct {
	Imports map[string][]string
	Seen    map[string]struct{}
	Errors  []FileError
}

// Files 返回可报告的文件（字典序）。
func (g *Graph) Files() []string {
	out := make([]string, 0, len(g.Imports))
	for f := range g.Imports {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Internal 判断引用是否恰好等于某个已扫描文件的相对路径。
func (g *Graph) Internal(dep string) bool {
	_, ok := g.Seen[dep]
	return ok
}

// Split 将 file 的引用分为内部与外部两组（保持行序）。
func (g *Graph) Split(file string) (internal, external []string) {
	for _, dep := range g.Imports[file] {
		if g.Internal(dep) {
			internal = append(internal, dep)
		} else {
			external = append(external, dep)
		}
	}
	return internal, external
}

// Scan 遍历 opts.Root，收集匹配文件中的 #include 指令。
// 读取失败的文件记录在 Graph.Errors 中，保留失败前已读到的引用，不中断扫描。
func Scan(ctx context.Context, fsys afero.Fs, opts Options) (*Graph, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	root := opts.Root
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	include := opts.Include
	if len(include) == 0 {
		include = DefaultInclude
	}
	for _, p := range append(append([]string{}, include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("depgraph: bad pattern %q", p)
		}
	}

	g := &Graph{Imports: map[string][]string{}, Seen: map[string]struct{}{}}
	var selected []string
	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if info.IsDir() {
			return nil
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)
		if !matchAny(include, rel) || matchAny(opts.Exclude, rel) {
			return nil
		}
		g.Seen[rel] = struct{}{}
		selected = append(selected, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, rel := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		deps, err := readIncludes(fsys, filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			g.Errors = append(g.Errors, FileError{Path: rel, Err: err})
		}
		g.Imports[rel] = deps
	}
	return g, nil
}

func matchAny(patterns []string, rel string) bool {
	base := rel
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		base = rel[i+1:]
	}
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(p, base); err == nil && ok {
			return true
		}
	}
	return false
}

// readIncludes 出错时仍返回已读到的引用。
func readIncludes(fsys afero.Fs, path string) ([]string, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var deps []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if m := includeRe.FindStringSubmatch(sc.Text()); m != nil {
			deps = append(deps, m[1])
		}
	}
	return deps, sc.Err()
}
