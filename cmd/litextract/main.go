package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"litextract/internal/pipeline"
)

// 测试替身：替换流水线执行入口。
var pipelineRun = pipeline.Run

// 退出码：0 成功；1 运行失败（含起始标记缺失、I/O）；2 用法错误；3 配置错误。
const (
	exitOK     = 0
	exitRun    = 1
	exitUsage  = 2
	exitConfig = 3
)

// exitError 携带退出码；消息已在返回前输出。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exit(code int, err error) error { return &exitError{code: code, err: err} }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fprintf(stderr, "%v\n", err)
	return exitUsage
}

// newRootCmd: 根命令即 extract；子命令 extract / deps。
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var f extractFlags
	root := &cobra.Command{
		Use:   "litextract [input]",
		Short: "Extract object-literal arrays from source text into JSON/YAML",
		Long: "从源文本中定位具名数组字面量，逐个对象规范化并求值，输出保序的记录列表。\n" +
			"默认数组标记为 `const emulatedDevices = [`，输出 all_devices.json。",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args, &f, stdout, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	bindExtractFlags(root, &f)
	root.AddCommand(newExtractCmd(stdout, stderr), newDepsCmd(stdout, stderr))
	return root
}

func fprintf(w io.Writer, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }
