package device

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"litextract/pkg/contract"
)

func orientation(w, h int) *contract.Record {
	r := contract.NewRecord(2)
	r.Set("width", json.Number(itoa(w)))
	r.Set("height", json.Number(itoa(h)))
	return r
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func phone(title string, show bool) *contract.Record {
	screen := contract.NewRecord(3)
	screen.Set("horizontal", orientation(667, 375))
	screen.Set("device-pixel-ratio", json.Number("2.625"))
	screen.Set("vertical", orientation(375, 667))

	r := contract.NewRecord(8)
	r.Set("title", title)
	r.Set("type", "phone")
	r.Set("order", json.Number("10"))
	r.Set("user-agent", "Mozilla/5.0")
	r.Set("capabilities", []any{"touch", "mobile"})
	r.Set("screen", screen)
	r.Set("show-by-default", show)
	return r
}

func TestDecode(t *testing.T) {
	r := phone("iPhone SE", true)
	meta := contract.NewRecord(5)
	meta.Set("platform", "Android")
	meta.Set("platformVersion", "13")
	meta.Set("architecture", "")
	meta.Set("model", "Pixel 7")
	meta.Set("mobile", true)
	r.Set("user-agent-metadata", meta)
	r.Set("modes", []any{"default"})

	d, err := Decode(r)
	require.NoError(t, err)
	assert.Equal(t, "iPhone SE", d.Title)
	assert.Equal(t, "phone", d.Type)
	assert.Equal(t, 10, d.Order)
	assert.Equal(t, []string{"touch", "mobile"}, d.Capabilities)
	assert.InDelta(t, 2.625, d.Screen.DevicePixelRatio, 1e-9)
	assert.Equal(t, 375, d.Screen.Vertical.Width)
	assert.Equal(t, 667, d.Screen.Horizontal.Width)
	assert.Nil(t, d.Screen.VerticalSpanned)
	require.NotNil(t, d.UserAgentMetadata)
	assert.Equal(t, "13", d.UserAgentMetadata.PlatformVersion)
	assert.True(t, d.UserAgentMetadata.Mobile)
	assert.True(t, d.ShowByDefault)
	assert.False(t, d.DualScreen)
	assert.Equal(t, []string{"modes"}, d.Unused)
}

func TestDecodeSpannedAndOutline(t *testing.T) {
	r := phone("Surface Duo", false)
	r.Set("dual-screen", true)
	screen, _ := r.Get("screen")
	span := orientation(1114, 720)
	outline := contract.NewRecord(2)
	outline.Set("image", "@url(optimized/duo.avif)")
	insets := contract.NewRecord(4)
	for _, k := range []string{"left", "top", "right", "bottom"} {
		insets.Set(k, json.Number("8"))
	}
	outline.Set("insets", insets)
	span.Set("outline", outline)
	screen.(*contract.Record).Set("vertical-spanned", span)

	d, err := Decode(r)
	require.NoError(t, err)
	require.NotNil(t, d.Screen.VerticalSpanned)
	assert.Equal(t, 1114, d.Screen.VerticalSpanned.Width)
	require.NotNil(t, d.Screen.VerticalSpanned.Outline)
	assert.Equal(t, 8, d.Screen.VerticalSpanned.Outline.Insets.Bottom)
	assert.True(t, d.DualScreen)
	assert.Empty(t, d.Unused)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, contract.ErrInvalidInput)

	r := phone("x", true)
	missing := contract.NewRecord(0)
	for _, f := range r.Fields() {
		if f.Key != "screen" {
			missing.Set(f.Key, f.Value)
		}
	}
	_, err = Decode(missing)
	assert.ErrorIs(t, err, ErrMissingField)

	bad := phone("x", true)
	bad.Set("order", "first")
	_, err = Decode(bad)
	assert.Error(t, err)
}

func TestDecodeAllAndSummarize(t *testing.T) {
	tablet := phone("iPad Air", true)
	tablet.Set("type", "tablet")
	duo := phone("Surface Duo", false)
	duo.Set("dual-screen", true)
	broken := contract.NewRecord(1)
	broken.Set("title", "broken")

	noType := withoutKey(phone("no type", true), "type")

	devices, errs := DecodeAll(contract.Collection{phone("iPhone SE", true), broken, tablet, noType, duo})
	require.Len(t, devices, 3)
	require.Len(t, errs, 2)
	// 错误按记录顺序返回
	assert.Equal(t, 1, errs[0].Index)
	assert.Equal(t, 3, errs[1].Index)
	assert.ErrorIs(t, errs[0], ErrMissingField)
	assert.ErrorIs(t, errs[1], ErrMissingField)
	assert.Contains(t, errs[1].Error(), "record 3: ")

	s := Summarize(devices)
	s.Invalid = len(errs)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, map[string]int{"phone": 2, "tablet": 1}, s.ByType)
	assert.Equal(t, 2, s.Shown)
	assert.Equal(t, 1, s.Hidden)
	assert.Equal(t, 1, s.DualScreen)
	assert.Equal(t, []string{"phone", "tablet"}, s.Types())

	var buf bytes.Buffer
	n, err := s.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, "devices: 3 (shown 2, hidden 1)\n  phone      2\n  tablet     1\n  dual-screen 1, foldable 0\n  invalid    2\n", buf.String())
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Total)
	assert.Empty(t, s.Types())

	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "devices: 0 (shown 0, hidden 0)\n", buf.String())
}

func withoutKey(r *contract.Record, key string) *contract.Record {
	out := contract.NewRecord(r.Len())
	for _, f := range r.Fields() {
		if f.Key != key {
			out.Set(f.Key, f.Value)
		}
	}
	return out
}
