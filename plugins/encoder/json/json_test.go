package json

import (
	"context"
	ejson "encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"litextract/pkg/contract"
)

func sample() contract.Collection {
	screen := contract.NewRecord(2)
	screen.Set("width", ejson.Number("375"))
	screen.Set("height", ejson.Number("667"))
	r := contract.NewRecord(4)
	r.Set("title", "iPhone <SE>")
	r.Set("screen", screen)
	r.Set("capabilities", []any{"touch", "mobile"})
	r.Set("outline", nil)
	return contract.Collection{r}
}

func encode(t *testing.T, e *Encoder, c contract.Collection) string {
	t.Helper()
	rd, err := e.Encode(context.Background(), c)
	require.NoError(t, err)
	b, err := io.ReadAll(rd)
	require.NoError(t, err)
	return string(b)
}

// TestEncodeIndented 默认两空格缩进，列表展开，结尾换行
func TestEncodeIndented(t *testing.T) {
	want := `[
  {
    "title": "iPhone <SE>",
    "screen": {
      "width": 375,
      "height": 667
    },
    "capabilities": [
      "touch",
      "mobile"
    ],
    "outline": null
  }
]
`
	assert.Equal(t, want, encode(t, New(nil), sample()))
	assert.Equal(t, ".json", New(nil).Ext())
}

// TestEncodeCompact 负缩进输出单行
func TestEncodeCompact(t *testing.T) {
	got := encode(t, New(&Options{Indent: -1}), sample())
	assert.Equal(t, `[{"title":"iPhone <SE>","screen":{"width":375,"height":667},"capabilities":["touch","mobile"],"outline":null}]`+"\n", got)
}

// TestEncodeEmpty 空集合
func TestEncodeEmpty(t *testing.T) {
	assert.Equal(t, "[]\n", encode(t, New(nil), nil))
}

// TestEncodeDeterministic 相同输入逐字节相同
func TestEncodeDeterministic(t *testing.T) {
	e := New(&Options{Indent: 4})
	assert.Equal(t, encode(t, e, sample()), encode(t, e, sample()))
}

// TestEncodeRoundTrip 输出可被标准库解析
func TestEncodeRoundTrip(t *testing.T) {
	var v []map[string]any
	require.NoError(t, ejson.Unmarshal([]byte(encode(t, New(nil), sample())), &v))
	require.Len(t, v, 1)
	assert.Equal(t, "iPhone <SE>", v[0]["title"])
}
