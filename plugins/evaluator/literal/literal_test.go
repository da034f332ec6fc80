package literal

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"litextract/pkg/contract"
)

// TestEvaluateObject 保序、类型映射
func TestEvaluateObject(t *testing.T) {
	e := New(nil)
	rec, err := e.Evaluate(context.Background(), `{ "title": "Pixel 7", "order": 12, "dpr": 2.625, "show": true, "off": false, "outline": null, "caps": ["touch", "mobile"], "screen": {"vertical": {"width": 412, "height": 915}} }`)
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "order", "dpr", "show", "off", "outline", "caps", "screen"}, rec.Keys())

	v, _ := rec.Get("order")
	assert.Equal(t, json.Number("12"), v)
	v, _ = rec.Get("dpr")
	assert.Equal(t, json.Number("2.625"), v)
	v, _ = rec.Get("show")
	assert.Equal(t, true, v)
	v, _ = rec.Get("off")
	assert.Equal(t, false, v)
	v, ok := rec.Get("outline")
	assert.True(t, ok)
	assert.Nil(t, v)
	v, _ = rec.Get("caps")
	assert.Equal(t, []any{"touch", "mobile"}, v)

	v, _ = rec.Get("screen")
	screen, ok := v.(*contract.Record)
	require.True(t, ok)
	v, _ = screen.Get("vertical")
	vert := v.(*contract.Record)
	assert.Equal(t, []string{"width", "height"}, vert.Keys())
}

// TestEvaluateStringEscapes 字符串按 JSON 转义解码
func TestEvaluateStringEscapes(t *testing.T) {
	rec, err := New(nil).Evaluate(context.Background(), `{"a": "say \"hi\"\n", "b": "é"}`)
	require.NoError(t, err)
	v, _ := rec.Get("a")
	assert.Equal(t, "say \"hi\"\n", v)
	v, _ = rec.Get("b")
	assert.Equal(t, "é", v)
}

// TestEvaluateDuplicateKey 重复键：首位置、末值
func TestEvaluateDuplicateKey(t *testing.T) {
	rec, err := New(nil).Evaluate(context.Background(), `{"a": 1, "b": 2, "a": 3}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rec.Keys())
	v, _ := rec.Get("a")
	assert.Equal(t, json.Number("3"), v)
}

// TestEvaluateRejects 非法输入均包装 ErrFragmentUnparseable
func TestEvaluateRejects(t *testing.T) {
	cases := map[string]string{
		"未闭合字符串": `{ "a": 'unterminated }`,
		"单引号残留":  `{"c": ['a', 'b', 'c']}`,
		"顶层列表":   `[1, 2]`,
		"顶层字符串":  `"x"`,
		"空":      ``,
		"函数值":    `{"f": function() { return 1 }}`,
		"表达式":    `{"a": 1 + 2}`,
	}
	e := New(nil)
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.Evaluate(context.Background(), in)
			require.Error(t, err)
			assert.ErrorIs(t, err, contract.ErrFragmentUnparseable)
		})
	}
}

// TestEvaluateMaxDepth 嵌套上限
func TestEvaluateMaxDepth(t *testing.T) {
	deep := `{"a":` + strings.Repeat("[", 10) + strings.Repeat("]", 10) + `}`
	_, err := New(&Options{MaxDepth: 5}).Evaluate(context.Background(), deep)
	assert.ErrorIs(t, err, contract.ErrFragmentUnparseable)
	_, err = New(nil).Evaluate(context.Background(), deep)
	assert.NoError(t, err)
}

// TestEvaluateRepair 开启 repair 后三元素单引号列表可求值
func TestEvaluateRepair(t *testing.T) {
	in := `{"c": ['a', 'b', 'c']}`
	rec, err := New(&Options{Repair: true}).Evaluate(context.Background(), in)
	require.NoError(t, err)
	v, _ := rec.Get("c")
	assert.Equal(t, []any{"a", "b", "c"}, v)
}

// TestEvaluateRepairTopLevelArray repair 不改变“顶层必须是对象”的约束
func TestEvaluateRepairTopLevelArray(t *testing.T) {
	_, err := New(&Options{Repair: true}).Evaluate(context.Background(), `[1, 2]`)
	assert.ErrorIs(t, err, contract.ErrFragmentUnparseable)
}

// TestEvaluateCtxCancel 取消
func TestEvaluateCtxCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil).Evaluate(ctx, `{}`)
	assert.ErrorIs(t, err, context.Canceled)
}
