package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"litextract/pkg/contract"
	wfs "litextract/plugins/writer/filesystem"
)

// UT-CFG-01: 解析完整 config.json
func TestLoadJSON(t *testing.T) {
	cfg, err := LoadJSON(nil, "../../testdata/config/basic.json", nil)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if cfg.Components.Encoder != "yaml" {
		t.Fatalf("encoder 期望 yaml 实得 %s", cfg.Components.Encoder)
	}
	if cfg.Input == "" || cfg.Components.Reader != "fs" || !cfg.Diagnostics {
		t.Fatalf("字段映射错误: %+v", cfg)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("校验失败: %v", err)
	}
}

// UT-CFG-02: ENV 覆盖部分字段
func TestEnvOverlay(t *testing.T) {
	env := []string{
		"LITEXTRACT_INPUT=a.ts",
		"LITEXTRACT_FORMAT=yaml",
		"LITEXTRACT_LOG_LEVEL=DEBUG",
		"LITEXTRACT_SUMMARY=true",
		"LITEXTRACT_COMPONENTS_READER=fs",
		`LITEXTRACT_OPTIONS_EVALUATOR_JSON={"repair":true}`,
		"LITEXTRACT_UNKNOWN=1",
		"OTHER_INPUT=b.ts",
	}
	over, sw, err := EnvOverlay(env)
	if err != nil {
		t.Fatalf("EnvOverlay 错误: %v", err)
	}
	if sw.Summary == nil || !*sw.Summary || sw.Diagnostics != nil {
		t.Fatalf("开关解析错误: %+v", sw)
	}
	if over.Input != "a.ts" || over.Components.Encoder != "yaml" || over.Logging.Level != "debug" {
		t.Fatalf("覆盖结果不正确: %+v", over)
	}
	if string(over.Options.Evaluator) != `{"repair":true}` {
		t.Fatalf("options 覆盖错误: %s", over.Options.Evaluator)
	}
}

// UT-CFG-03: 含非法字段
func TestLoadJSONUnknown(t *testing.T) {
	raw := []byte(`{"unknown":1}`)
	if _, err := LoadJSON(nil, "", raw); err == nil {
		t.Fatalf("应当返回错误")
	}
}

func TestLoadJSONMemFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "cfg.json", []byte(`{"input":"x.ts","output":"-"}`), 0o644))

	cfg, err := LoadJSON(fs, "cfg.json", nil)
	require.NoError(t, err)
	assert.Equal(t, "x.ts", cfg.Input)
	assert.Equal(t, "-", cfg.Output)

	_, err = LoadJSON(fs, "missing.json", nil)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = LoadJSON(fs, "", nil)
	assert.Error(t, err)
}

func TestEnvOverlayErrors(t *testing.T) {
	_, _, err := EnvOverlay([]string{"LITEXTRACT_DIAGNOSTICS=maybe"})
	assert.Error(t, err)

	_, _, err = EnvOverlay([]string{"LITEXTRACT_OPTIONS_WRITER_JSON={broken"})
	assert.Error(t, err)

	// 空值与未知组件忽略
	over, sw, err := EnvOverlay([]string{"LITEXTRACT_DIAGNOSTICS=", "LITEXTRACT_OPTIONS_BOGUS_JSON={}", "LITEXTRACT_="})
	require.NoError(t, err)
	assert.Equal(t, Config{}, over)
	assert.Equal(t, Switches{}, sw)
}

// ENV 中显式的 false 覆盖 JSON 中的 true。
func TestEnvFalseOverridesJSON(t *testing.T) {
	base, err := LoadJSON(nil, "", []byte(`{"input":"a.ts","diagnostics":true,"summary":true}`))
	require.NoError(t, err)
	cfg := Merge(Defaults(), base)
	require.True(t, cfg.Diagnostics)
	require.True(t, cfg.Summary)

	over, sw, err := EnvOverlay([]string{"LITEXTRACT_DIAGNOSTICS=false", "LITEXTRACT_SUMMARY=0"})
	require.NoError(t, err)
	got := sw.Apply(Merge(cfg, over))
	assert.False(t, got.Diagnostics)
	assert.False(t, got.Summary)
	assert.Equal(t, "a.ts", got.Input)

	// 未设置的开关保持原值
	got = Switches{}.Apply(cfg)
	assert.True(t, got.Diagnostics)
	assert.True(t, got.Summary)
}

// 优先级：后者覆盖前者，零值不覆盖。
func TestMerge(t *testing.T) {
	base := Defaults()
	base.Input = "file.ts"
	base.Diagnostics = true
	base.Options.Locator = json.RawMessage(`{"start_marker":"a"}`)

	over := Config{
		Output:     " out.json ",
		Components: Components{Encoder: "yaml"},
		Options:    Options{Evaluator: json.RawMessage(`{"repair":true}`)},
	}
	got := Merge(base, over)

	assert.Equal(t, "file.ts", got.Input)
	assert.Equal(t, "out.json", got.Output)
	assert.True(t, got.Diagnostics)
	assert.Equal(t, "yaml", got.Components.Encoder)
	assert.Equal(t, "brace", got.Components.Scanner)
	assert.Equal(t, "info", got.Logging.Level)
	assert.JSONEq(t, `{"start_marker":"a"}`, string(got.Options.Locator))
	assert.JSONEq(t, `{"repair":true}`, string(got.Options.Evaluator))

	// 不共享底层字节
	base.Options.Locator[2] = 'X'
	assert.JSONEq(t, `{"start_marker":"a"}`, string(got.Options.Locator))
}

// 补充覆盖: Defaults 与 cloneRaw
func TestDefaultsClone(t *testing.T) {
	d := Defaults()
	if d.Components.Reader != "fs" || d.Components.Evaluator != "literal" {
		t.Fatalf("默认组件错误: %+v", d.Components)
	}
	src := []byte("abc")
	dst := cloneRaw(src)
	src[0] = 'x'
	if string(dst) != "abc" {
		t.Fatalf("cloneRaw 未复制")
	}
}

// 补充覆盖: Validate 错误分支
func TestValidateErrors(t *testing.T) {
	if err := Validate(Config{}); err == nil {
		t.Fatal("空配置应失败")
	}
	cfg := DefaultTemplateConfig()
	cfg.Input = "   "
	if err := Validate(cfg); err == nil {
		t.Fatal("空白输入应失败")
	}
	cfg = DefaultTemplateConfig()
	cfg.Logging.Level = "trace"
	if err := Validate(cfg); !errors.Is(err, contract.ErrInvalidInput) {
		t.Fatalf("非法日志级别应失败: %v", err)
	}
	cfg = DefaultTemplateConfig()
	cfg.Components.Encoder = "toml"
	if err := Validate(cfg); !errors.Is(err, contract.ErrInvalidInput) {
		t.Fatalf("未注册 encoder 应失败: %v", err)
	}
}

func TestTemplateValid(t *testing.T) {
	cfg := DefaultTemplateConfig()
	require.NoError(t, Validate(cfg))

	// 模板经 JSON 往返后仍可被严格解析
	b, err := json.Marshal(cfg)
	require.NoError(t, err)
	back, err := LoadJSON(nil, "", b)
	require.NoError(t, err)
	_, _, err = Assemble(back, afero.NewMemMapFs())
	require.NoError(t, err)
}

func TestAssembleTargets(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		format   string
		writer   string
		artifact contract.ArtifactID
	}{
		{"缺省产物名", "", "json", "", "all_devices.json"},
		{"yaml 扩展名", "", "yaml", "", "all_devices.yaml"},
		{"显式路径", filepath.Join("out", "devices.json"), "json", "", "devices.json"},
		{"标准输出", "-", "json", "", wfs.StdoutID},
		{"沿用 output_dir", "", "json", `{"output_dir":"dist"}`, "all_devices.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Input = "in.ts"
			cfg.Output = tt.output
			cfg.Components.Encoder = tt.format
			if tt.writer != "" {
				cfg.Options.Writer = json.RawMessage(tt.writer)
			}
			comp, set, err := Assemble(cfg, afero.NewMemMapFs())
			require.NoError(t, err)
			assert.Equal(t, "in.ts", set.Input)
			assert.Equal(t, tt.artifact, set.Artifact)
			assert.NotNil(t, comp.Reader)
			assert.NotNil(t, comp.Writer)
		})
	}
}

func TestWriterTargetDir(t *testing.T) {
	raw, id, err := writerTarget(filepath.Join("a", "b", "x.json"), json.RawMessage(`{"atomic":false}`), ".json")
	require.NoError(t, err)
	assert.Equal(t, contract.ArtifactID("x.json"), id)
	assert.JSONEq(t, `{"atomic":false,"output_dir":"`+filepath.ToSlash(filepath.Join("a", "b"))+`"}`, filepath.ToSlash(string(raw)))

	raw, _, err = writerTarget("", json.RawMessage(`{"output_dir":"dist"}`), ".json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"output_dir":"dist"}`, string(raw))

	_, _, err = writerTarget("", json.RawMessage(`[1]`), ".json")
	assert.Error(t, err)
}

func TestAssembleBadOptions(t *testing.T) {
	cfg := Defaults()
	cfg.Input = "in.ts"
	cfg.Options.Normalizer = json.RawMessage(`{"rules":["no-such-rule"]}`)
	_, _, err := Assemble(cfg, nil)
	assert.ErrorIs(t, err, contract.ErrInvalidInput)

	cfg = Defaults()
	cfg.Input = "in.ts"
	cfg.Options.Locator = json.RawMessage(`{"bogus":1}`)
	_, _, err = Assemble(cfg, nil)
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))

	p := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(p, []byte("LITEXTRACT_TEST_DOTENV=from-file\nLITEXTRACT_TEST_KEEP=from-file\n"), 0o644))
	t.Setenv("LITEXTRACT_TEST_KEEP", "from-env")
	t.Setenv("LITEXTRACT_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("LITEXTRACT_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(p))
	assert.Equal(t, "from-file", os.Getenv("LITEXTRACT_TEST_DOTENV"))
	assert.Equal(t, "from-env", os.Getenv("LITEXTRACT_TEST_KEEP"))
}
