package media

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/google/uuid"
	"github.com/uninet-app/uninet/internal/apperr"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

const (
	// MinDimension 最小边长，低于此值拒绝
	MinDimension = 100
	// MaxDimension 最大边长，超过则等比缩小
	MaxDimension = 1200
	// JPEGQuality 统一输出质量
	JPEGQuality = 85
)

// 魔数签名表，与客户端声明的 Content-Type 无关
var signatures = []struct {
	prefix []byte
	format string
}{
	{[]byte{0xFF, 0xD8, 0xFF}, "jpeg"},
	{[]byte{0x89, 0x50, 0x4E, 0x47}, "png"},
	{[]byte{0x47, 0x49, 0x46, 0x38}, "gif"},
	{[]byte{0x52, 0x49, 0x46, 0x46}, "webp"},
}

// SniffFormat 根据文件头识别图片格式
func SniffFormat(data []byte) (string, bool) {
	for _, sig := range signatures {
		if len(data) >= len(sig.prefix) && bytes.Equal(data[:len(sig.prefix)], sig.prefix) {
			return sig.format, true
		}
	}
	return "", false
}

// Draft 处理完成、尚未持久化的图片
type Draft struct {
	Reference string
	Encoded   []byte
	Width     int
	Height    int
}

// Codec 图片净化编解码器
// 纯内存变换，无副作用，可安全放入工作池执行
type Codec struct{}

// NewCodec 创建编解码器
func NewCodec() *Codec {
	return &Codec{}
}

// Process 校验并净化一张图片
// 流程：魔数识别 -> 解码 -> 最小尺寸校验 -> 白底拍平并重建像素 -> 等比缩小 -> JPEG 重编码
// 重建像素缓冲保证 EXIF（GPS、设备信息、时间戳）不会进入输出
func (c *Codec) Process(raw []byte) (*Draft, error) {
	format, ok := SniffFormat(raw)
	if !ok {
		return nil, apperr.NewInvalidImage("unrecognized format")
	}

	src, err := decode(raw, format)
	if err != nil {
		return nil, apperr.NewInvalidImage("corrupt")
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < MinDimension || height < MinDimension {
		return nil, apperr.NewInvalidImage("too small")
	}

	// 透明和调色板图像拍平到白底，避免 JPEG 重编码后透明区域变黑
	flat := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, flat.Bounds(), src, bounds.Min, draw.Over)

	out := downscale(flat)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, apperr.NewInvalidImage("encode failed")
	}

	final := out.Bounds()
	return &Draft{
		Reference: NewReference(),
		Encoded:   buf.Bytes(),
		Width:     final.Dx(),
		Height:    final.Dy(),
	}, nil
}

// decode 按识别出的格式解码
func decode(raw []byte, format string) (image.Image, error) {
	r := bytes.NewReader(raw)
	switch format {
	case "jpeg":
		return jpeg.Decode(r)
	case "png":
		return png.Decode(r)
	case "gif":
		return gif.Decode(r)
	default:
		return webp.Decode(r)
	}
}

// downscale 超过最大边长时等比缩小，从不放大
func downscale(src *image.RGBA) image.Image {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= MaxDimension && height <= MaxDimension {
		return src
	}

	newWidth, newHeight := width, height
	if width >= height {
		newWidth = MaxDimension
		newHeight = height * MaxDimension / width
	} else {
		newHeight = MaxDimension
		newWidth = width * MaxDimension / height
	}
	if newWidth < 1 {
		newWidth = 1
	}
	if newHeight < 1 {
		newHeight = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

// NewReference 生成不透明的存储标识符
func NewReference() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ".jpg"
}
