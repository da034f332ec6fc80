package config

import "encoding/json"

// DefaultTemplateConfig 返回一个“可运行”的默认配置模板：
// - 默认输入为 STDIN（"-"），产物写到 ./out/all_devices.json；
// - 组件名采用仓库内置实现；
// - 选项给出安全中性默认值，覆盖全部键。
func DefaultTemplateConfig() Config {
	cfg := Defaults()
	cfg.Input = "-"
	cfg.Output = "out/all_devices.json"
	cfg.Options.Reader = json.RawMessage(`{
  "buf_size": 65536,
  "max_bytes": 0
}`)
	cfg.Options.Locator = json.RawMessage(`{
  "start_marker": "const emulatedDevices = [",
  "end_marker": "];"
}`)
	cfg.Options.Scanner = json.RawMessage(`{
  "stop_at_sentinel": true
}`)
	// rules 为 null 表示全部规则
	cfg.Options.Normalizer = json.RawMessage(`{
  "rules": null
}`)
	cfg.Options.Evaluator = json.RawMessage(`{
  "repair": false,
  "max_depth": 64
}`)
	cfg.Options.Encoder = json.RawMessage(`{
  "indent": 2,
  "array_width": 0
}`)
	// output_dir 由 output 推导
	cfg.Options.Writer = json.RawMessage(`{
  "atomic": true,
  "flat": true,
  "perm_file": 0,
  "perm_dir": 0,
  "buf_size": 65536
}`)
	return cfg
}

// DotEnvTemplate: --init-config 生成的 .env 模板（全部注释，按需启用）。
const DotEnvTemplate = `# litextract 环境变量覆盖（优先级：CLI > ENV > config.json > 默认）
# LITEXTRACT_INPUT=EmulatedDevices.ts
# LITEXTRACT_OUTPUT=out/all_devices.json
# LITEXTRACT_FORMAT=json
# LITEXTRACT_LOG_LEVEL=info
# LITEXTRACT_DIAGNOSTICS=false
# LITEXTRACT_SUMMARY=false
# LITEXTRACT_OPTIONS_EVALUATOR_JSON={"repair":true}
# LITEXTRACT_CONFIG_FILE=config.json
`
