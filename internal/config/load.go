package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
)

// EnvPrefix: 环境变量覆盖的统一前缀。
const EnvPrefix = "LITEXTRACT_"

// Defaults 返回带有安全默认值的 Config 雏形。
// 注意：Input 不设默认（必须由 JSON/ENV/CLI 提供）。
func Defaults() Config {
	return Config{
		Logging: Logging{Level: "info"},
		Components: Components{
			Reader:     "fs",
			Locator:    "marker",
			Scanner:    "brace",
			Normalizer: "rewrite",
			Evaluator:  "literal",
			Encoder:    "json",
			Writer:     "fs",
		},
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
// fsys 为 nil 时使用操作系统文件系统。
func LoadJSON(fsys afero.Fs, path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		if fsys == nil {
			fsys = afero.NewOsFs()
		}
		f, err := fsys.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Merge 按优先级合并（后者覆盖前者）。
// 零值不覆盖；原样 JSON 整体替换，不做深度合并。
func Merge(base, over Config) Config {
	out := base
	out.Options = cloneOptions(base.Options)
	over.Options = cloneOptions(over.Options)
	over.Input = strings.TrimSpace(over.Input)
	over.Output = strings.TrimSpace(over.Output)
	over.Logging.Level = strings.TrimSpace(over.Logging.Level)
	if err := mergo.Merge(&out, over, mergo.WithOverride); err != nil {
		// 同类型结构体合并不会失败；保守起见返回基线。
		return base
	}
	return out
}

// Switches: 显式给出的布尔开关；nil 表示未设置。
// Merge 不覆盖零值，故布尔开关在 Merge 之后用 Apply 单独套用（false 也生效）。
type Switches struct {
	Diagnostics *bool
	Summary     *bool
}

// Apply 将已设置的开关写入 cfg。
func (s Switches) Apply(cfg Config) Config {
	if s.Diagnostics != nil {
		cfg.Diagnostics = *s.Diagnostics
	}
	if s.Summary != nil {
		cfg.Summary = *s.Summary
	}
	return cfg
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 规则：前缀 LITEXTRACT_；集合之外的键忽略。
// 支持：INPUT, OUTPUT, FORMAT, LOG_LEVEL, DIAGNOSTICS, SUMMARY, COMPONENTS_*, OPTIONS_<COMP>_JSON
// 布尔键经 Switches 返回，由调用方在 Merge 之后 Apply。
func EnvOverlay(environ []string) (Config, Switches, error) {
	var over Config
	var sw Switches
	for _, kv := range environ {
		if !strings.HasPrefix(kv, EnvPrefix) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(EnvPrefix) {
			continue
		}
		nk := strings.TrimPrefix(kv[:eq], EnvPrefix)
		val := strings.TrimSpace(kv[eq+1:])
		switch nk {
		case "INPUT":
			over.Input = val
		case "OUTPUT":
			over.Output = val
		case "FORMAT", "COMPONENTS_ENCODER":
			over.Components.Encoder = val
		case "LOG_LEVEL":
			over.Logging.Level = strings.ToLower(val)
		case "DIAGNOSTICS", "SUMMARY":
			if val == "" {
				continue
			}
			b, err := strconv.ParseBool(val)
			if err != nil {
				return Config{}, Switches{}, fmt.Errorf("config: env %s%s: %w", EnvPrefix, nk, err)
			}
			if nk == "DIAGNOSTICS" {
				sw.Diagnostics = &b
			} else {
				sw.Summary = &b
			}
		case "COMPONENTS_READER":
			over.Components.Reader = val
		case "COMPONENTS_LOCATOR":
			over.Components.Locator = val
		case "COMPONENTS_SCANNER":
			over.Components.Scanner = val
		case "COMPONENTS_NORMALIZER":
			over.Components.Normalizer = val
		case "COMPONENTS_EVALUATOR":
			over.Components.Evaluator = val
		case "COMPONENTS_WRITER":
			over.Components.Writer = val
		default:
			// OPTIONS_<COMP>_JSON：原样 JSON；空值视为未设置
			if !strings.HasPrefix(nk, "OPTIONS_") || !strings.HasSuffix(nk, "_JSON") || val == "" {
				continue
			}
			comp := strings.TrimSuffix(strings.TrimPrefix(nk, "OPTIONS_"), "_JSON")
			slot := optionSlot(&over.Options, comp)
			if slot == nil {
				continue
			}
			if !json.Valid([]byte(val)) {
				return Config{}, Switches{}, fmt.Errorf("config: env %s%s: invalid json", EnvPrefix, nk)
			}
			*slot = json.RawMessage(val)
		}
	}
	return over, sw, nil
}

// LoadDotEnv 读取 .env 注入进程环境；不覆盖已存在的变量，文件不存在时忽略。
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func optionSlot(o *Options, comp string) *json.RawMessage {
	switch comp {
	case "READER":
		return &o.Reader
	case "LOCATOR":
		return &o.Locator
	case "SCANNER":
		return &o.Scanner
	case "NORMALIZER":
		return &o.Normalizer
	case "EVALUATOR":
		return &o.Evaluator
	case "ENCODER":
		return &o.Encoder
	case "WRITER":
		return &o.Writer
	}
	return nil
}

func cloneOptions(in Options) Options {
	return Options{
		Reader:     cloneRaw(in.Reader),
		Locator:    cloneRaw(in.Locator),
		Scanner:    cloneRaw(in.Scanner),
		Normalizer: cloneRaw(in.Normalizer),
		Evaluator:  cloneRaw(in.Evaluator),
		Encoder:    cloneRaw(in.Encoder),
		Writer:     cloneRaw(in.Writer),
	}
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
