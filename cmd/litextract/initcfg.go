package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/tidwall/pretty"

	cfgpkg "litextract/internal/config"
)

// initFs: --init-config 使用的文件系统（测试可替换）。
var initFs = afero.NewOsFs()

// initConfig 在 dir 下生成 config.json 与 .env 模板；已存在的文件跳过，不覆盖。
func initConfig(dir string, stderr io.Writer) error {
	if err := initFs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := marshalConfig(cfgpkg.DefaultTemplateConfig())
	if err != nil {
		return err
	}
	cfgPath := filepath.Join(dir, "config.json")
	created, err := writeNew(cfgPath, b)
	if err != nil {
		return err
	}
	if !created {
		fprintf(stderr, "提示：%s 已存在（已跳过）\n", cfgPath)
	}
	// .env 生成失败不影响结果
	if _, err := writeNew(filepath.Join(dir, ".env"), []byte(cfgpkg.DotEnvTemplate)); err != nil {
		fprintf(stderr, "提示：.env 生成失败（已跳过）：%v\n", err)
	}
	return nil
}

func marshalConfig(c cfgpkg.Config) ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return pretty.PrettyOptions(b, &pretty.Options{Indent: "  "}), nil
}

// dumpConfig 打印有效配置，便于诊断。
func dumpConfig(w io.Writer, c cfgpkg.Config) {
	b, err := marshalConfig(c)
	if err != nil {
		return
	}
	_, _ = w.Write(append([]byte("有效配置:\n"), b...))
}

// writeNew 仅在文件不存在时创建；返回是否创建。
func writeNew(path string, data []byte) (bool, error) {
	f, err := initFs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return false, err
	}
	return true, nil
}
