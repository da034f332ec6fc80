package registry

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/spf13/afero"

	"litextract/pkg/contract"
	ejson "litextract/plugins/encoder/json"
	eyaml "litextract/plugins/encoder/yaml"
	literal "litextract/plugins/evaluator/literal"
	marker "litextract/plugins/locator/marker"
	rewrite "litextract/plugins/normalizer/rewrite"
	rfs "litextract/plugins/reader/filesystem"
	brace "litextract/plugins/scanner/brace"
	wfs "litextract/plugins/writer/filesystem"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewReader 工厂签名：接收文件系统与原样 JSON Options。
type NewReader func(fs afero.Fs, raw json.RawMessage) (contract.Reader, error)

// NewLocator 工厂签名：接收原样 JSON Options。
type NewLocator func(raw json.RawMessage) (contract.Locator, error)

// NewScanner 工厂签名：接收原样 JSON Options。
type NewScanner func(raw json.RawMessage) (contract.Scanner, error)

// NewNormalizer 工厂签名：接收原样 JSON Options。
type NewNormalizer func(raw json.RawMessage) (contract.Normalizer, error)

// NewEvaluator 工厂签名：接收原样 JSON Options。
type NewEvaluator func(raw json.RawMessage) (contract.Evaluator, error)

// NewEncoder 工厂签名：接收原样 JSON Options。
type NewEncoder func(raw json.RawMessage) (contract.Encoder, error)

// NewWriter 工厂签名：接收文件系统与原样 JSON Options。
type NewWriter func(fs afero.Fs, raw json.RawMessage) (contract.Writer, error)

// Reader 工厂注册表（显式、零反射）。
var Reader = map[string]NewReader{
	// fs: 文件系统/STDIN Reader
	"fs": func(fs afero.Fs, raw json.RawMessage) (contract.Reader, error) {
		var opts rfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rfs.New(fs, &opts), nil
	},
}

// Locator 工厂注册表。
var Locator = map[string]NewLocator{
	// marker: 起止字面标记
	"marker": func(raw json.RawMessage) (contract.Locator, error) {
		var opts marker.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return marker.New(&opts)
	},
}

// Scanner 工厂注册表。
var Scanner = map[string]NewScanner{
	// brace: 花括号深度扫描
	"brace": func(raw json.RawMessage) (contract.Scanner, error) {
		var opts brace.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return brace.New(&opts), nil
	},
}

// Normalizer 工厂注册表。
var Normalizer = map[string]NewNormalizer{
	// rewrite: 有序改写规则表
	"rewrite": func(raw json.RawMessage) (contract.Normalizer, error) {
		var opts rewrite.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rewrite.New(&opts)
	},
}

// Evaluator 工厂注册表。
var Evaluator = map[string]NewEvaluator{
	// literal: 严格字面量求值（可选 jsonrepair 兜底）
	"literal": func(raw json.RawMessage) (contract.Evaluator, error) {
		var opts literal.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return literal.New(&opts), nil
	},
}

// Encoder 工厂注册表；键同时是 --format 的取值。
var Encoder = map[string]NewEncoder{
	"json": func(raw json.RawMessage) (contract.Encoder, error) {
		var opts ejson.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return ejson.New(&opts), nil
	},
	"yaml": func(raw json.RawMessage) (contract.Encoder, error) {
		var opts eyaml.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return eyaml.New(&opts), nil
	},
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// fs: 文件系统 Writer（覆盖写/原子替换可配置）
	"fs": func(fs afero.Fs, raw json.RawMessage) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wfs.New(fs, &opts)
	},
}

// Names 返回注册表的有序键（用于帮助与错误信息）。
func Names[F any](m map[string]F) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
