package media

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uninet-app/uninet/internal/apperr"
)

func encodePNG(t *testing.T, width, height int, fill color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func encodeGIF(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, width, height), []color.Color{
		color.White, color.Black,
	})
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}

// TestSniffFormat 测试魔数识别
func TestSniffFormat(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		want   string
		wantOK bool
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpeg", true},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A}, "png", true},
		{"gif", []byte("GIF89a"), "gif", true},
		{"webp", []byte("RIFF1234WEBP"), "webp", true},
		{"text", []byte("hello world"), "", false},
		{"empty", nil, "", false},
		{"truncated", []byte{0xFF}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SniffFormat(tt.data)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestProcessValidInputs 测试各格式的正常处理
func TestProcessValidInputs(t *testing.T) {
	codec := NewCodec()

	inputs := map[string][]byte{
		"png":  encodePNG(t, 400, 300, color.RGBA{R: 200, G: 100, B: 50, A: 255}),
		"jpeg": encodeJPEG(t, 400, 300),
		"gif":  encodeGIF(t, 400, 300),
	}

	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			draft, err := codec.Process(raw)
			require.NoError(t, err)
			assert.Equal(t, 400, draft.Width)
			assert.Equal(t, 300, draft.Height)
			assert.True(t, strings.HasSuffix(draft.Reference, ".jpg"))

			// 输出必须是可解码的 JPEG
			format, ok := SniffFormat(draft.Encoded)
			require.True(t, ok)
			assert.Equal(t, "jpeg", format)
			img, err := jpeg.Decode(bytes.NewReader(draft.Encoded))
			require.NoError(t, err)
			assert.Equal(t, 400, img.Bounds().Dx())
		})
	}
}

// TestProcessUnrecognizedFormat 测试非图片输入
func TestProcessUnrecognizedFormat(t *testing.T) {
	codec := NewCodec()

	_, err := codec.Process([]byte("definitely not an image"))
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidImage(err))
	assert.Contains(t, err.Error(), "unrecognized format")
}

// TestProcessCorruptImage 测试头部合法但内容损坏
func TestProcessCorruptImage(t *testing.T) {
	codec := NewCodec()

	raw := encodePNG(t, 200, 200, color.White)
	corrupt := append([]byte{}, raw[:30]...)

	_, err := codec.Process(corrupt)
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidImage(err))
	assert.Contains(t, err.Error(), "corrupt")
}

// TestProcessTooSmall 测试最小尺寸校验
func TestProcessTooSmall(t *testing.T) {
	codec := NewCodec()

	_, err := codec.Process(encodePNG(t, 50, 200, color.White))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too small")

	_, err = codec.Process(encodePNG(t, 200, 99, color.White))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too small")

	// 恰好在下限的不拒绝
	_, err = codec.Process(encodePNG(t, 100, 100, color.White))
	assert.NoError(t, err)
}

// TestProcessDownscale 测试超限等比缩小
func TestProcessDownscale(t *testing.T) {
	codec := NewCodec()

	draft, err := codec.Process(encodePNG(t, 2400, 1200, color.White))
	require.NoError(t, err)
	assert.Equal(t, 1200, draft.Width)
	assert.Equal(t, 600, draft.Height)

	// 纵向超限
	draft, err = codec.Process(encodePNG(t, 600, 2400, color.White))
	require.NoError(t, err)
	assert.Equal(t, 300, draft.Width)
	assert.Equal(t, 1200, draft.Height)
}

// TestProcessNeverUpscale 测试从不放大
func TestProcessNeverUpscale(t *testing.T) {
	codec := NewCodec()

	draft, err := codec.Process(encodePNG(t, 150, 120, color.White))
	require.NoError(t, err)
	assert.Equal(t, 150, draft.Width)
	assert.Equal(t, 120, draft.Height)

	// 恰好在上限的保持不变
	draft, err = codec.Process(encodePNG(t, 1200, 800, color.White))
	require.NoError(t, err)
	assert.Equal(t, 1200, draft.Width)
	assert.Equal(t, 800, draft.Height)
}

// TestProcessFlattensAlpha 测试透明区域拍平到白底
func TestProcessFlattensAlpha(t *testing.T) {
	codec := NewCodec()

	// 全透明 PNG
	raw := encodePNG(t, 200, 200, color.RGBA{})

	draft, err := codec.Process(raw)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(draft.Encoded))
	require.NoError(t, err)

	r, g, b, _ := img.At(100, 100).RGBA()
	// JPEG 有损，接近白即可
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

// TestProcessStripsMetadata 测试 EXIF 段不进入输出
func TestProcessStripsMetadata(t *testing.T) {
	codec := NewCodec()

	base := encodeJPEG(t, 200, 200)
	exifMarker := []byte("Exif\x00\x00")

	// 在 SOI 之后插入一个最小 APP1/EXIF 段，解码器会跳过它
	segment := []byte{0xFF, 0xE1, 0x00, byte(2 + len(exifMarker))}
	segment = append(segment, exifMarker...)

	withExif := append([]byte{}, base[:2]...)
	withExif = append(withExif, segment...)
	withExif = append(withExif, base[2:]...)
	require.True(t, bytes.Contains(withExif, exifMarker))

	draft, err := codec.Process(withExif)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(draft.Encoded, exifMarker))
}

// TestNewReference 测试标识符唯一性与格式
func TestNewReference(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref := NewReference()
		assert.True(t, strings.HasSuffix(ref, ".jpg"))
		assert.NotContains(t, ref, "-")
		assert.False(t, seen[ref])
		seen[ref] = true
	}
}
