package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	cfgpkg "litextract/internal/config"
	"litextract/internal/diag"
	"litextract/internal/pipeline"
	"litextract/pkg/contract"
	"litextract/pkg/device"
	"litextract/pkg/registry"
	wfs "litextract/plugins/writer/filesystem"
)

type extractFlags struct {
	config      string
	input       string
	output      string
	format      string
	logLevel    string
	initDir     string
	summary     bool
	diagnostics bool
	status      bool
}

func bindExtractFlags(cmd *cobra.Command, f *extractFlags) {
	fl := cmd.Flags()
	fl.StringVar(&f.config, "config", "", "配置文件路径（JSON）；缺省读取 ./config.json（若存在）")
	fl.StringVarP(&f.input, "input", "i", "", "输入文件路径；\"-\" 表示 STDIN（也可作为位置参数）")
	fl.StringVarP(&f.output, "output", "o", "", "输出文件路径；\"-\" 表示标准输出；缺省 all_devices.<ext>")
	fl.StringVar(&f.format, "format", "", "输出格式："+strings.Join(registry.Names(registry.Encoder), "|"))
	fl.StringVar(&f.logLevel, "log-level", "", "日志级别 debug|info|warn|error（覆盖配置）")
	fl.BoolVar(&f.summary, "summary", false, "写出后打印设备分类汇总")
	fl.BoolVar(&f.diagnostics, "diagnostics", false, "逐条打印被跳过的片段（stderr）")
	fl.BoolVar(&f.status, "status", true, "终端状态提示（stderr）；缺省仅在 TTY 启用，显式开启时非 TTY 打点输出")
	fl.StringVar(&f.initDir, "init-config", "", "在指定目录生成默认 config.json 和 .env 模板（已存在则跳过）；不带值时为当前目录")
	fl.Lookup("init-config").NoOptDefVal = "."
}

func newExtractCmd(stdout, stderr io.Writer) *cobra.Command {
	var f extractFlags
	cmd := &cobra.Command{
		Use:   "extract [input]",
		Short: "Extract records (default command)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args, &f, stdout, stderr)
		},
	}
	bindExtractFlags(cmd, &f)
	return cmd
}

func runExtract(cmd *cobra.Command, args []string, f *extractFlags, stdout, stderr io.Writer) error {
	start := time.Now()
	corrID := uuid.NewString()
	// 在任何 ENV 读取前加载工作目录下的 .env（不覆盖已有 ENV）。
	_ = cfgpkg.LoadDotEnv(".env")

	if dir := strings.TrimSpace(f.initDir); dir != "" {
		if err := initConfig(dir, stderr); err != nil {
			fprintf(stderr, "生成默认配置失败: %v\n", err)
			return exit(exitConfig, err)
		}
		return nil
	}

	// 指标按运行计数
	diag.ResetMetrics()
	logger := diag.NewLogger(corrID, "info")
	defer func() { _ = logger.Close() }()

	cfg, err := loadConfig(cmd, args, f)
	if err != nil {
		fprintf(stderr, "配置解析失败: %v\n", err)
		logger.Error("pipeline", string(diag.Classify(err)), "first error", &start)
		return exit(exitConfig, err)
	}
	if err := cfgpkg.Validate(cfg); err != nil {
		fprintf(stderr, "配置校验失败: %v\n", err)
		dumpConfig(stderr, cfg)
		logger.Error("pipeline", string(diag.Classify(err)), "first error", &start)
		return exit(exitConfig, err)
	}
	if lv := strings.TrimSpace(cfg.Logging.Level); lv != "" {
		logger.SetLevel(lv)
	}

	comp, set, err := cfgpkg.Assemble(cfg, nil)
	if err != nil {
		fprintf(stderr, "装配失败: %v\n", err)
		logger.Error("pipeline", string(diag.Classify(err)), "first error", &start)
		return exit(exitConfig, err)
	}

	if w, ok := comp.Writer.(*wfs.FS); ok {
		w.WithStdout(stdout)
	}

	// 未显式给出 --status 时仅在交互终端启用
	status := f.status
	if !cmd.Flags().Changed("status") {
		status = diag.IsTTY(stderr)
	}
	term := diag.NewTerminal(stderr, status)
	diag.SetTerminal(term)
	defer diag.SetTerminal(nil)
	format := effective(cfg.Components.Encoder, cfgpkg.Defaults().Components.Encoder)
	term.RunStart(format)

	t := logger.StartWithKV("pipeline", "run", cfg.Input, map[string]string{
		"output":      string(set.Artifact),
		"format":      format,
		"locator":     effective(cfg.Components.Locator, "marker"),
		"normalizer":  effective(cfg.Components.Normalizer, "rewrite"),
		"evaluator":   effective(cfg.Components.Evaluator, "literal"),
		"diagnostics": strconv.FormatBool(cfg.Diagnostics),
	})
	res, err := pipelineRun(cmd.Context(), comp, set, logger)
	if cfg.Diagnostics {
		printSkips(stderr, res)
		printSkipTotals(stderr)
	}
	if err != nil {
		code := string(diag.Classify(err))
		logger.Error("pipeline", code, "first error", &start)
		diag.IncOp("pipeline", "error", "error")
		if code != string(diag.CodeUnknown) {
			diag.IncError("pipeline", code)
		}
		switch {
		case errors.Is(err, contract.ErrNoArray):
			fprintf(stderr, "no array found: %s\n", startMarker(comp.Locator))
		case errors.Is(err, context.Canceled):
			// 中断：不额外输出
		default:
			fprintf(stderr, "运行失败: %v\n", err)
		}
		term.RunFinish(false, time.Since(start))
		return exit(exitRun, err)
	}
	t.Finish("run", int64(res.Stats.Records))
	diag.IncOp("pipeline", "finish", "success")
	diag.ObserveDuration("pipeline", "finish", time.Since(start).Milliseconds())

	fprintf(stderr, "%s\n", res.Summary())
	if cfg.Summary {
		// 产物写往标准输出时汇总改走 stderr，避免混入数据
		w := stdout
		if set.Artifact == wfs.StdoutID {
			w = stderr
		}
		devices, errs := device.DecodeAll(res.Records)
		for _, derr := range errs {
			logger.Warn("device", string(diag.CodeProtocol), derr.Err.Error(), cfg.Input, map[string]string{"record": strconv.Itoa(derr.Index)})
		}
		s := device.Summarize(devices)
		s.Invalid = len(errs)
		_, _ = s.WriteTo(w)
	}
	term.RunFinish(true, time.Since(start))
	return nil
}

// loadConfig 按优先级合并：CLI > ENV > JSON > 默认。
func loadConfig(cmd *cobra.Command, args []string, f *extractFlags) (cfgpkg.Config, error) {
	path := f.config
	if path == "" {
		path = os.Getenv(cfgpkg.EnvPrefix + "CONFIG_FILE")
	}
	raw := []byte(os.Getenv(cfgpkg.EnvPrefix + "CONFIG_JSON"))
	if path == "" && len(raw) == 0 {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}

	cfg := cfgpkg.Defaults()
	if path != "" || len(raw) > 0 {
		base, err := cfgpkg.LoadJSON(nil, path, raw)
		if err != nil {
			return cfg, err
		}
		cfg = cfgpkg.Merge(cfg, base)
	}

	overEnv, swEnv, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		return cfg, err
	}
	cfg = swEnv.Apply(cfgpkg.Merge(cfg, overEnv))

	var over cfgpkg.Config
	over.Input = f.input
	if len(args) > 0 {
		if f.input != "" && f.input != args[0] {
			return cfg, fmt.Errorf("input given twice: %q and %q: %w", f.input, args[0], contract.ErrInvalidInput)
		}
		over.Input = args[0]
	}
	over.Output = f.output
	over.Components.Encoder = f.format
	over.Logging.Level = strings.ToLower(f.logLevel)
	cfg = cfgpkg.Merge(cfg, over)

	// 布尔开关：显式给出时（含 false）覆盖
	var sw cfgpkg.Switches
	fl := cmd.Flags()
	if fl.Changed("summary") {
		sw.Summary = &f.summary
	}
	if fl.Changed("diagnostics") {
		sw.Diagnostics = &f.diagnostics
	}
	return sw.Apply(cfg), nil
}

func printSkips(w io.Writer, res pipeline.Result) {
	for _, s := range res.Skips {
		fprintf(w, "[skip] #%d @%d %s: %v\n", s.Ordinal, s.Offset, s.Stage, s.Err)
	}
	if res.ScanErr != nil {
		fprintf(w, "[scan] %v\n", res.ScanErr)
	}
}

// printSkipTotals 按阶段输出本次运行的丢弃计数（取自指标快照）。
func printSkipTotals(w io.Writer) {
	totals, err := diag.SkipTotals()
	if err != nil {
		fprintf(w, "[metrics] %v\n", err)
		return
	}
	stages := make([]string, 0, len(totals))
	for st := range totals {
		stages = append(stages, st)
	}
	sort.Strings(stages)
	parts := make([]string, 0, len(stages))
	for _, st := range stages {
		parts = append(parts, fmt.Sprintf("%s=%d", st, totals[st]))
	}
	if len(parts) == 0 {
		parts = append(parts, "none")
	}
	fprintf(w, "[metrics] fragment_skip_total %s\n", strings.Join(parts, " "))
}

func startMarker(l contract.Locator) string {
	if m, ok := l.(interface{ StartMarker() string }); ok {
		return m.StartMarker()
	}
	return "<unknown>"
}

func effective(got, def string) string {
	if strings.TrimSpace(got) == "" {
		return def
	}
	return got
}
