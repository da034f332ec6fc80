package diag

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// 进程级指标（私有 Registry，不对外暴露 HTTP 端点）：
// - litextract_op_total{comp,stage,result}
// - litextract_error_total{comp,code}
// - litextract_op_duration_ms{comp,stage}
// - litextract_fragment_skip_total{stage}
var (
	registry = prometheus.NewRegistry()

	opTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "litextract",
		Name:      "op_total",
		Help:      "Component operations by result.",
	}, []string{"comp", "stage", "result"})

	errorTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "litextract",
		Name:      "error_total",
		Help:      "Errors by component and classification code.",
	}, []string{"comp", "code"})

	opDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "litextract",
		Name:      "op_duration_ms",
		Help:      "Stage duration in milliseconds.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"comp", "stage"})

	skipTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "litextract",
		Name:      "fragment_skip_total",
		Help:      "Fragments dropped by stage.",
	}, []string{"stage"})
)

func init() {
	registry.MustRegister(opTotal, errorTotal, opDuration, skipTotal)
}

// IncOp 累加操作计数（result=success|error）。
func IncOp(comp, stage, result string) {
	opTotal.WithLabelValues(comp, stage, result).Inc()
}

// IncError 按分类累加错误计数。
func IncError(comp, code string) {
	errorTotal.WithLabelValues(comp, code).Inc()
}

// ObserveDuration 记录阶段耗时（毫秒）。
func ObserveDuration(comp, stage string, durMS int64) {
	opDuration.WithLabelValues(comp, stage).Observe(float64(durMS))
}

// IncSkip 片段被丢弃（stage=normalize|evaluate）。
func IncSkip(stage string) {
	skipTotal.WithLabelValues(stage).Inc()
}

// Registry 返回进程级指标注册表。
func Registry() *prometheus.Registry { return registry }

// ResetMetrics 清空全部指标（每次运行前与测试使用）。
func ResetMetrics() {
	opTotal.Reset()
	errorTotal.Reset()
	opDuration.Reset()
	skipTotal.Reset()
}

// Gather 返回扁平化快照：`name{k=v,...}` → 值；直方图取样本数。
func Gather() (map[string]float64, error) {
	mfs, err := registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			pairs := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				pairs = append(pairs, lp.GetName()+"="+lp.GetValue())
			}
			sort.Strings(pairs)
			key := mf.GetName()
			if len(pairs) > 0 {
				key += "{" + strings.Join(pairs, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				out[key] = float64(m.GetHistogram().GetSampleCount())
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			}
		}
	}
	return out, nil
}

// SkipTotals 从 Gather 快照中取出各阶段的片段丢弃数（stage → 次数）。
func SkipTotals() (map[string]int, error) {
	snap, err := Gather()
	if err != nil {
		return nil, err
	}
	const prefix = "litextract_fragment_skip_total{stage="
	out := make(map[string]int)
	for k, v := range snap {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		out[strings.TrimSuffix(strings.TrimPrefix(k, prefix), "}")] = int(v)
	}
	return out, nil
}
