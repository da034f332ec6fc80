package main

import (
	"bytes"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"litextract/internal/depgraph"
	"litextract/internal/diag"
)

type depsFlags struct {
	include  []string
	exclude  []string
	prefixes []string
	all      bool
	html     bool
	out      string
	logLevel string
}

func newDepsCmd(stdout, stderr io.Writer) *cobra.Command {
	var f depsFlags
	cmd := &cobra.Command{
		Use:   "deps [root]",
		Short: "Report #include dependencies of C/C++ sources under root",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(cmd, args, &f, stdout, stderr)
		},
	}
	fl := cmd.Flags()
	fl.StringSliceVar(&f.include, "include", depgraph.DefaultInclude, "选择文件的 doublestar 模式（相对 root）")
	fl.StringSliceVar(&f.exclude, "exclude", nil, "排除文件的 doublestar 模式")
	fl.StringSliceVar(&f.prefixes, "prefix", depgraph.DefaultPrefixes, "外部依赖仅展示这些前缀")
	fl.BoolVar(&f.all, "all", false, "展示全部外部依赖（忽略 --prefix）")
	fl.BoolVar(&f.html, "html", false, "输出 HTML 而非 Markdown")
	fl.StringVarP(&f.out, "output", "o", "-", "报告输出路径；\"-\" 表示标准输出")
	fl.StringVar(&f.logLevel, "log-level", "info", "日志级别 debug|info|warn|error")
	return cmd
}

func runDeps(cmd *cobra.Command, args []string, f *depsFlags, stdout, stderr io.Writer) error {
	start := time.Now()
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	logger := diag.NewLogger(uuid.NewString(), f.logLevel)
	defer func() { _ = logger.Close() }()

	t := logger.StartWith("depgraph", "scan", root)
	g, err := depgraph.Scan(cmd.Context(), nil, depgraph.Options{Root: root, Include: f.include, Exclude: f.exclude})
	if err != nil {
		fprintf(stderr, "扫描失败: %v\n", err)
		logger.Error("depgraph", string(diag.Classify(err)), "first error", &start)
		diag.IncOp("depgraph", "scan", "error")
		return exit(exitRun, err)
	}
	for _, fe := range g.Errors {
		fprintf(stderr, "Error reading %s: %v\n", fe.Path, fe.Err)
		logger.Warn("depgraph", string(diag.Classify(fe.Err)), "unreadable file", fe.Path, nil)
	}
	t.Finish("scan", int64(len(g.Imports)))
	diag.IncOp("depgraph", "scan", "success")

	prefixes := f.prefixes
	if f.all {
		prefixes = []string{}
	}
	var buf bytes.Buffer
	if err := depgraph.Report(&buf, g, prefixes); err != nil {
		return exit(exitRun, err)
	}
	out := buf.Bytes()
	if f.html {
		if out, err = depgraph.HTML(out); err != nil {
			fprintf(stderr, "渲染失败: %v\n", err)
			return exit(exitRun, err)
		}
	}
	if f.out == "" || f.out == "-" {
		_, err = stdout.Write(out)
	} else {
		err = afero.WriteFile(afero.NewOsFs(), f.out, out, 0o644)
	}
	if err != nil {
		fprintf(stderr, "写出失败: %v\n", err)
		return exit(exitRun, err)
	}
	diag.ObserveDuration("depgraph", "finish", time.Since(start).Milliseconds())
	return nil
}
