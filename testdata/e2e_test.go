package testdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cfgpkg "litextract/internal/config"
	"litextract/internal/pipeline"
	"litextract/pkg/contract"
	"litextract/pkg/device"
)

const fixture = "devices/EmulatedDevices.ts"

func baseConfig(input, output string) cfgpkg.Config {
	cfg := cfgpkg.DefaultTemplateConfig()
	cfg.Input = input
	cfg.Output = output
	cfg.Logging.Level = "error"
	cfg.Options.Writer = json.RawMessage(`{"atomic":false,"flat":true,"perm_file":0,"perm_dir":0,"buf_size":65536}`)
	return cfg
}

func runPipeline(t *testing.T, cfg cfgpkg.Config) (pipeline.Result, error) {
	t.Helper()
	comp, set, err := cfgpkg.Assemble(cfg, nil)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return pipeline.Run(context.Background(), comp, set, nil)
}

func TestE2EDevicesJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "all_devices.json")
	res, err := runPipeline(t, baseConfig(fixture, out))
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	want := contract.Stats{Fragments: 5, Records: 4, Skipped: 1}
	if res.Stats != want {
		t.Fatalf("stats: want %+v got %+v", want, res.Stats)
	}
	if len(res.Skips) != 1 || res.Skips[0].Ordinal != 4 || res.Skips[0].Stage != contract.StageEvaluate {
		t.Fatalf("skips: %+v", res.Skips)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	prefix := "[\n  {\n    \"order\": 10,\n    \"show-by-default\": true,\n    \"title\": \"iPhone SE\",\n    \"screen\": {\n"
	if !strings.HasPrefix(string(got), prefix) {
		t.Fatalf("unexpected head:\n%s", got[:min(len(got), 200)])
	}
	if !bytes.HasSuffix(got, []byte("]\n")) {
		t.Fatalf("missing trailing newline")
	}

	var plain []map[string]any
	if err := json.Unmarshal(got, &plain); err != nil {
		t.Fatalf("output is not json: %v", err)
	}
	titles := []string{"iPhone SE", "Pixel 7", "iPad Air", "Surface Duo"}
	for i, title := range titles {
		if plain[i]["title"] != title {
			t.Fatalf("record %d: want %q got %v", i, title, plain[i]["title"])
		}
	}
	if plain[3]["modes"] != nil {
		t.Fatalf("undefined should become null: %v", plain[3]["modes"])
	}

	devices, errs := device.DecodeAll(res.Records)
	if len(errs) != 0 {
		t.Fatalf("decode: %v", errs)
	}
	s := device.Summarize(devices)
	if s.ByType["phone"] != 3 || s.ByType["tablet"] != 1 || s.Hidden != 1 || s.DualScreen != 1 {
		t.Fatalf("summary: %+v", s)
	}
	if devices[3].Screen.VerticalSpanned == nil || devices[3].Screen.VerticalSpanned.Width != 1114 {
		t.Fatalf("spanned screen: %+v", devices[3].Screen)
	}
}

func TestE2EIdempotent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.json")
	b := filepath.Join(dir, "b.json")
	if _, err := runPipeline(t, baseConfig(fixture, a)); err != nil {
		t.Fatalf("run a: %v", err)
	}
	if _, err := runPipeline(t, baseConfig(fixture, b)); err != nil {
		t.Fatalf("run b: %v", err)
	}
	ga, _ := os.ReadFile(a)
	gb, _ := os.ReadFile(b)
	if len(ga) == 0 || !bytes.Equal(ga, gb) {
		t.Fatalf("outputs differ")
	}
}

func TestE2EYAML(t *testing.T) {
	out := filepath.Join(t.TempDir(), "devices.yaml")
	cfg := baseConfig(fixture, out)
	cfg.Components.Encoder = "yaml"
	cfg.Options.Encoder = json.RawMessage(`{"indent":2}`)
	if _, err := runPipeline(t, cfg); err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(got), "- order: 10\n  show-by-default: true\n  title: iPhone SE\n") {
		t.Fatalf("unexpected yaml head:\n%s", got[:min(len(got), 200)])
	}
	if !strings.Contains(string(got), "device-pixel-ratio: 2.625\n") {
		t.Fatalf("float typing lost")
	}
}

func TestE2ERepairOption(t *testing.T) {
	out := filepath.Join(t.TempDir(), "x.json")
	in := filepath.Join(t.TempDir(), "list.ts")
	src := "const emulatedDevices = [\n  {'title': 'a', 'modes': ['x', 'y', 'z']},\n  {'title': 'b'},\n];\n"
	if err := os.WriteFile(in, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := runPipeline(t, baseConfig(in, out))
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if res.Stats.Records != 1 || res.Stats.Skipped != 1 {
		t.Fatalf("strict: %+v", res.Stats)
	}

	cfg := baseConfig(in, out)
	cfg.Options.Evaluator = json.RawMessage(`{"repair":true}`)
	res, err = runPipeline(t, cfg)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if res.Stats.Records != 2 || res.Stats.Skipped != 0 {
		t.Fatalf("repair: %+v", res.Stats)
	}
}

func TestE2ENoArray(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "empty.ts")
	out := filepath.Join(dir, "out.json")
	if err := os.WriteFile(in, []byte("export const x = 1;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := runPipeline(t, baseConfig(in, out))
	if !errors.Is(err, contract.ErrNoArray) {
		t.Fatalf("want ErrNoArray, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatalf("output must not be written: %v", statErr)
	}
}

func TestE2EMissingInput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.json")
	_, err := runPipeline(t, baseConfig(filepath.Join("devices", "nope.ts"), out))
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want not-exist error, got %v", err)
	}
}
