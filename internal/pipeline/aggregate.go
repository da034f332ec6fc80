package pipeline

import (
	"fmt"

	"litextract/pkg/contract"
)

// Aggregator 按出现顺序收集记录并统计跳过的片段；自身不写出。
type Aggregator struct {
	fileID  contract.FileID
	records contract.Collection
	skips   []contract.Skip
	stats   contract.Stats
}

// NewAggregator 创建空 Aggregator。
func NewAggregator(fileID contract.FileID) *Aggregator {
	return &Aggregator{fileID: fileID}
}

// Add 接收一个成功求值的片段。
func (a *Aggregator) Add(_ contract.Fragment, rec *contract.Record) {
	a.stats.Fragments++
	a.stats.Records++
	a.records = append(a.records, rec)
}

// Skip 记录一个被丢弃的片段。
func (a *Aggregator) Skip(f contract.Fragment, stage contract.Stage, err error) {
	a.stats.Fragments++
	a.stats.Skipped++
	a.skips = append(a.skips, contract.Skip{Ordinal: f.Ordinal, Offset: f.Offset, Stage: stage, Err: err})
}

// Result 返回当前汇总（Records 非 nil，空集合可直接编码为 []）。
func (a *Aggregator) Result() Result {
	recs := a.records
	if recs == nil {
		recs = contract.Collection{}
	}
	return Result{FileID: a.fileID, Records: recs, Stats: a.stats, Skips: a.skips}
}

// Check 校验计数不变量：Fragments == Records + Skipped 且与明细一致。
func (r Result) Check() error {
	s := r.Stats
	if s.Fragments != s.Records+s.Skipped || s.Records != len(r.Records) || s.Skipped != len(r.Skips) {
		return fmt.Errorf("%w: stats %+v records=%d skips=%d", contract.ErrInvariantViolation, s, len(r.Records), len(r.Skips))
	}
	return nil
}

// Summary 返回一行汇总文本。
func (r Result) Summary() string {
	return fmt.Sprintf("extracted %d records (%d fragments, %d skipped)", r.Stats.Records, r.Stats.Fragments, r.Stats.Skipped)
}
