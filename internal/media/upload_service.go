package media

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/uninet-app/uninet/internal/apperr"
)

// MaxRawBytes 解码前的单文件体积上限，防止超大载荷浪费 CPU
const MaxRawBytes = 10 << 20

// UploadService 批量图片摄取管线
// 全部成功或全部回滚，绝不向调用方返回半个批次
type UploadService struct {
	codec *Codec
	store *Store
	run   func(ctx context.Context, fn func()) error
}

// NewUploadService 创建摄取管线
// run 把 CPU 密集的编解码调度到工作池，传 nil 则在调用方协程内执行
func NewUploadService(codec *Codec, store *Store, run func(ctx context.Context, fn func()) error) *UploadService {
	if run == nil {
		run = func(_ context.Context, fn func()) error {
			fn()
			return nil
		}
	}
	return &UploadService{codec: codec, store: store, run: run}
}

// Ingest 摄取一批原始图片字节
// 数量和体积校验在任何处理开始前完成，零副作用失败；
// 条目按输入顺序处理，任一条目失败时已存储的条目全部回滚
func (s *UploadService) Ingest(ctx context.Context, items [][]byte, maxCount int) ([]ImageMeta, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if maxCount > 0 && len(items) > maxCount {
		return nil, apperr.NewValidation("too many images: %d (max %d)", len(items), maxCount)
	}
	for i, raw := range items {
		if len(raw) > MaxRawBytes {
			return nil, apperr.NewValidation("image %d exceeds max size of %d MB", i, MaxRawBytes>>20)
		}
	}

	saved := make([]string, 0, len(items))
	metas := make([]ImageMeta, 0, len(items))

	for i, raw := range items {
		var draft *Draft
		var procErr error
		if err := s.run(ctx, func() {
			draft, procErr = s.codec.Process(raw)
		}); err != nil {
			s.store.DeleteBatch(ctx, saved)
			return nil, err
		}
		if procErr != nil {
			s.store.DeleteBatch(ctx, saved)
			return nil, itemError(procErr, i)
		}

		if err := s.store.Save(ctx, draft); err != nil {
			s.store.DeleteBatch(ctx, saved)
			return nil, err
		}

		saved = append(saved, draft.Reference)
		metas = append(metas, ImageMeta{URL: draft.Reference, W: draft.Width, H: draft.Height})
	}

	return metas, nil
}

// IngestBase64 摄取一批 base64 编码的图片，容忍 data-URI 前缀
func (s *UploadService) IngestBase64(ctx context.Context, items []string, maxCount int) ([]ImageMeta, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if maxCount > 0 && len(items) > maxCount {
		return nil, apperr.NewValidation("too many images: %d (max %d)", len(items), maxCount)
	}

	decoded := make([][]byte, 0, len(items))
	for i, item := range items {
		payload := item
		if idx := strings.Index(payload, ";base64,"); idx >= 0 {
			payload = payload[idx+len(";base64,"):]
		}
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, itemError(apperr.NewInvalidImage("invalid base64 payload"), i)
		}
		decoded = append(decoded, raw)
	}

	return s.Ingest(ctx, decoded, maxCount)
}

// itemError 给图片错误标注出错条目的下标
func itemError(err error, index int) error {
	if ie, ok := err.(*apperr.InvalidImageError); ok {
		ie.Item = index
		return ie
	}
	return err
}
