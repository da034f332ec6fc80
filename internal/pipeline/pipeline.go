package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"litextract/internal/diag"
	"litextract/pkg/contract"
)

// - 单线程顺序执行：Reader → Locator → Scanner → (Normalizer → Evaluator)×片段 → Aggregator → Encoder → Writer。
// - 片段级失败可恢复：计数、记录阶段与错误后继续下一片段。
// - 运行级失败（起始标记缺失、I/O）立即返回，不写出任何产物。

// Components 聚合运行所需的原子组件。
type Components struct {
	Reader     contract.Reader
	Locator    contract.Locator
	Scanner    contract.Scanner
	Normalizer contract.Normalizer
	Evaluator  contract.Evaluator
	Encoder    contract.Encoder
	Writer     contract.Writer
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	// Input: 输入路径；"-" 表示 STDIN。
	Input string
	// Artifact: 交给 Writer 的产物标识；"-" 表示标准输出。
	Artifact contract.ArtifactID
}

// Result 为一次运行的汇总。
type Result struct {
	FileID  contract.FileID
	Records contract.Collection
	Stats   contract.Stats
	Skips   []contract.Skip
	// ScanErr: 扫描提前终止的原因（例如 ErrUnbalanced）；不影响已产出的记录。
	ScanErr error
}

// Run 执行完整流水线并写出产物；返回汇总。
// 起始标记缺失时返回 ErrNoArray 且不调用 Encoder/Writer。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) (Result, error) {
	if err := sanity(comp, set); err != nil {
		return Result{}, fmt.Errorf("sanity: %w", err)
	}
	if logger == nil {
		logger = diag.Nop()
	}

	rt := logger.Start("reader", "read")
	src, err := comp.Reader.Read(ctx, set.Input)
	if err != nil {
		fail(logger, "reader", set.Input, err)
		return Result{}, fmt.Errorf("reader read: %w", err)
	}
	ok(rt, "reader", "read", int64(len(src.Text)))

	fileID := string(src.FileID)
	if t := diag.GetTerminal(); t != nil {
		t.FileStart(fileID)
	}
	fileStart := time.Now()
	res, err := Extract(ctx, comp, src, logger)
	if t := diag.GetTerminal(); t != nil {
		defer func() { t.FileFinish(err == nil, res.Stats.Records, res.Stats.Skipped, time.Since(fileStart)) }()
	}
	if err != nil {
		return res, err
	}

	et := logger.StartWith("encoder", "encode", fileID)
	r, err := comp.Encoder.Encode(ctx, res.Records)
	if err != nil {
		fail(logger, "encoder", fileID, err)
		return res, fmt.Errorf("encoder encode: %w", err)
	}
	ok(et, "encoder", "encode", int64(len(res.Records)))

	wkv := map[string]string{"artifact": string(set.Artifact)}
	if tw, isTarget := comp.Writer.(interface {
		Target(contract.ArtifactID) (string, error)
	}); isTarget {
		if p, terr := tw.Target(set.Artifact); terr == nil {
			wkv["path"] = p
		}
	}
	wt := logger.StartWithKV("writer", "write", fileID, wkv)
	if err = comp.Writer.Write(ctx, set.Artifact, r); err != nil {
		fail(logger, "writer", fileID, err)
		return res, fmt.Errorf("writer write: %w", err)
	}
	ok(wt, "writer", "write", 0)
	return res, nil
}

// Extract 在已读入的 Source 上执行 Locator → Scanner → Normalizer → Evaluator → Aggregator。
// 无副作用；相同输入得到相同结果。
func Extract(ctx context.Context, comp Components, src contract.Source, logger *diag.Logger) (Result, error) {
	if logger == nil {
		logger = diag.Nop()
	}
	fileID := string(src.FileID)

	lt := logger.StartWith("locator", "locate", fileID)
	region, err := comp.Locator.Locate(ctx, src)
	if err != nil {
		fail(logger, "locator", fileID, err)
		return Result{FileID: src.FileID}, fmt.Errorf("locator locate: %w", err)
	}
	ok(lt, "locator", "locate", int64(len(region.Text)))

	st := logger.StartWith("scanner", "scan", fileID)
	stream, err := comp.Scanner.Scan(ctx, region)
	if err != nil {
		fail(logger, "scanner", fileID, err)
		return Result{FileID: src.FileID}, fmt.Errorf("scanner scan: %w", err)
	}

	agg := NewAggregator(src.FileID)
	for {
		frag, more := stream.Next()
		if !more {
			break
		}
		rec, stage, ferr := evalFragment(ctx, comp, frag)
		if ferr != nil {
			if errors.Is(ferr, context.Canceled) || errors.Is(ferr, context.DeadlineExceeded) {
				fail(logger, stageComp(stage), fileID, ferr)
				return agg.Result(), ferr
			}
			agg.Skip(frag, stage, ferr)
			diag.IncSkip(string(stage))
			logger.DebugFragment(stageComp(stage), "fragment skipped", fileID, frag.Ordinal, map[string]string{
				"offset": strconv.Itoa(frag.Offset),
				"error":  ferr.Error(),
			})
		} else {
			agg.Add(frag, rec)
			if logger.Enabled(diag.Debug) {
				logger.DebugFragment("evaluator", "fragment accepted", fileID, frag.Ordinal, map[string]string{
					"keys": strings.Join(rec.Keys(), ","),
				})
			}
		}
		if t := diag.GetTerminal(); t != nil {
			t.FileProgress(agg.stats.Records, agg.stats.Skipped)
		}
	}
	res := agg.Result()
	if serr := stream.Err(); serr != nil {
		if errors.Is(serr, context.Canceled) || errors.Is(serr, context.DeadlineExceeded) {
			fail(logger, "scanner", fileID, serr)
			return res, serr
		}
		// 未闭合的尾部捕获：告警，不致命
		res.ScanErr = serr
		logger.Warn("scanner", string(diag.Classify(serr)), serr.Error(), fileID, nil)
	}
	ok(st, "scanner", "scan", int64(res.Stats.Fragments))

	if res.Stats.Skipped > 0 {
		logger.Warn("pipeline", string(diag.CodeProtocol), "fragments skipped", fileID, map[string]string{
			"fragments": strconv.Itoa(res.Stats.Fragments),
			"skipped":   strconv.Itoa(res.Stats.Skipped),
		})
	}
	if err := res.Check(); err != nil {
		fail(logger, "pipeline", fileID, err)
		return res, err
	}
	return res, nil
}

// evalFragment 规范化并求值单个片段；失败时返回所处阶段。
func evalFragment(ctx context.Context, comp Components, f contract.Fragment) (*contract.Record, contract.Stage, error) {
	norm, err := comp.Normalizer.Normalize(ctx, f.Text)
	if err != nil {
		return nil, contract.StageNormalize, err
	}
	rec, err := comp.Evaluator.Evaluate(ctx, norm)
	if err != nil {
		return nil, contract.StageEvaluate, err
	}
	if rec == nil {
		return nil, contract.StageEvaluate, fmt.Errorf("%w: nil record", contract.ErrInvariantViolation)
	}
	return rec, "", nil
}

// stageComp 片段阶段对应的组件名（日志/指标维度）。
func stageComp(s contract.Stage) string {
	if s == contract.StageNormalize {
		return "normalizer"
	}
	return "evaluator"
}

func ok(t *diag.Timer, comp, msg string, count int64) {
	t.Finish(msg, count)
	diag.IncOp(comp, "finish", "success")
	diag.ObserveDuration(comp, "finish", time.Since(t.Since()).Milliseconds())
}

func fail(logger *diag.Logger, comp, fileID string, err error) {
	code := diag.Classify(err)
	logger.ErrorWith(comp, string(code), err.Error(), nil, fileID)
	diag.IncOp(comp, "error", "error")
	if code != diag.CodeUnknown {
		diag.IncError(comp, string(code))
	}
}

// sanity 基本参数校验（组件非空）。
func sanity(comp Components, set Settings) error {
	if comp.Reader == nil || comp.Locator == nil || comp.Scanner == nil || comp.Normalizer == nil ||
		comp.Evaluator == nil || comp.Encoder == nil || comp.Writer == nil {
		return fmt.Errorf("%w: components incomplete", contract.ErrInvalidInput)
	}
	if set.Input == "" {
		return fmt.Errorf("%w: input empty", contract.ErrInvalidInput)
	}
	if set.Artifact == "" {
		return fmt.Errorf("%w: artifact empty", contract.ErrInvalidInput)
	}
	return nil
}
