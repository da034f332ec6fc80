package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"

	"litextract/internal/pipeline"
	"litextract/pkg/contract"
	"litextract/pkg/registry"
	wfs "litextract/plugins/writer/filesystem"
)

// DefaultArtifact: 未指定 output 时的产物基名（扩展名由 Encoder 决定）。
const DefaultArtifact = "all_devices"

var validate = validator.New()

// Validate 对最小必要边界做静态校验：结构体标签 + 注册表查找。
func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			fe := ve[0]
			return fmt.Errorf("config: %s failed %q: %w", strings.ToLower(fe.Namespace()), fe.Tag(), contract.ErrInvalidInput)
		}
		return fmt.Errorf("config: %w", err)
	}
	if strings.TrimSpace(cfg.Input) == "" {
		return fmt.Errorf("config: input path cannot be empty: %w", contract.ErrInvalidInput)
	}
	d := Defaults().Components
	c := cfg.Components
	checks := []struct {
		kind string
		name string
		ok   bool
	}{
		{"reader", effName(c.Reader, d.Reader), registry.Reader[effName(c.Reader, d.Reader)] != nil},
		{"locator", effName(c.Locator, d.Locator), registry.Locator[effName(c.Locator, d.Locator)] != nil},
		{"scanner", effName(c.Scanner, d.Scanner), registry.Scanner[effName(c.Scanner, d.Scanner)] != nil},
		{"normalizer", effName(c.Normalizer, d.Normalizer), registry.Normalizer[effName(c.Normalizer, d.Normalizer)] != nil},
		{"evaluator", effName(c.Evaluator, d.Evaluator), registry.Evaluator[effName(c.Evaluator, d.Evaluator)] != nil},
		{"encoder", effName(c.Encoder, d.Encoder), registry.Encoder[effName(c.Encoder, d.Encoder)] != nil},
		{"writer", effName(c.Writer, d.Writer), registry.Writer[effName(c.Writer, d.Writer)] != nil},
	}
	for _, ck := range checks {
		if !ck.ok {
			return fmt.Errorf("config: %s %q not registered: %w", ck.kind, ck.name, contract.ErrInvalidInput)
		}
	}
	return nil
}

// Assemble 构造 Components 与 Settings。
// 严格 Options 解析在 registry（工厂）层进行；此处只传 raw JSON。
// output 拆分为 Writer 的 output_dir 与产物基名；fsys 为 nil 时使用操作系统文件系统。
func Assemble(cfg Config, fsys afero.Fs) (pipeline.Components, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	d := Defaults().Components
	c := cfg.Components

	r, err := registry.Reader[effName(c.Reader, d.Reader)](fsys, cfg.Options.Reader)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("reader options: %w", err)
	}
	loc, err := registry.Locator[effName(c.Locator, d.Locator)](cfg.Options.Locator)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("locator options: %w", err)
	}
	sc, err := registry.Scanner[effName(c.Scanner, d.Scanner)](cfg.Options.Scanner)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("scanner options: %w", err)
	}
	nz, err := registry.Normalizer[effName(c.Normalizer, d.Normalizer)](cfg.Options.Normalizer)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("normalizer options: %w", err)
	}
	ev, err := registry.Evaluator[effName(c.Evaluator, d.Evaluator)](cfg.Options.Evaluator)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("evaluator options: %w", err)
	}
	enc, err := registry.Encoder[effName(c.Encoder, d.Encoder)](cfg.Options.Encoder)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("encoder options: %w", err)
	}

	wraw, artifact, err := writerTarget(cfg.Output, cfg.Options.Writer, enc.Ext())
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("writer options: %w", err)
	}
	w, err := registry.Writer[effName(c.Writer, d.Writer)](fsys, wraw)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("writer options: %w", err)
	}

	comp := pipeline.Components{
		Reader:     r,
		Locator:    loc,
		Scanner:    sc,
		Normalizer: nz,
		Evaluator:  ev,
		Encoder:    enc,
		Writer:     w,
	}
	set := pipeline.Settings{
		Input:    strings.TrimSpace(cfg.Input),
		Artifact: artifact,
	}
	return comp, set, nil
}

// writerTarget 由 output 推导 Writer 的 output_dir 与产物标识：
//   - "-"：标准输出；
//   - 非空路径：output_dir = Dir(output)，产物 = Base(output)；
//   - 空：沿用 options.writer.output_dir（缺省 "."），产物 = all_devices + ext。
func writerTarget(output string, raw json.RawMessage, ext string) (json.RawMessage, contract.ArtifactID, error) {
	opts := map[string]json.RawMessage{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &opts); err != nil {
			return nil, "", err
		}
	}
	var dir string
	if v, ok := opts["output_dir"]; ok {
		if err := json.Unmarshal(v, &dir); err != nil {
			return nil, "", err
		}
	}

	output = strings.TrimSpace(output)
	var artifact contract.ArtifactID
	switch {
	case contract.ArtifactID(output) == wfs.StdoutID:
		artifact = wfs.StdoutID
	case output != "":
		dir = filepath.Dir(output)
		artifact = contract.ArtifactID(filepath.Base(output))
	default:
		artifact = contract.ArtifactID(DefaultArtifact + ext)
	}
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	b, err := json.Marshal(dir)
	if err != nil {
		return nil, "", err
	}
	opts["output_dir"] = b
	out, err := json.Marshal(opts)
	if err != nil {
		return nil, "", err
	}
	return out, artifact, nil
}

func effName(got, def string) string {
	if got == "" {
		return def
	}
	return got
}
