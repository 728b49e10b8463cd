package media

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"

	"github.com/uninet-app/uninet/internal/apperr"
	"github.com/uninet-app/uninet/storage"
)

// PublicPathPrefix 静态文件路由挂载点
const PublicPathPrefix = "/uploads/images/"

// Store 处理后图片的持久化层，包装底层存储提供者
type Store struct {
	provider storage.Provider
	baseURL  string
}

// NewStore 创建图片存储
func NewStore(provider storage.Provider, baseURL string) *Store {
	return &Store{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Save 持久化处理完成的图片
func (s *Store) Save(ctx context.Context, draft *Draft) error {
	if err := s.provider.SaveWithContext(ctx, draft.Reference, bytes.NewReader(draft.Encoded)); err != nil {
		return &apperr.StorageError{Err: err}
	}
	return nil
}

// URLFor 计算公开访问地址，纯函数，不访问存储
func (s *Store) URLFor(reference string) string {
	return s.baseURL + PublicPathPrefix + reference
}

// Delete 删除单张图片
// 幂等：文件不存在不算错误；其他失败只记日志不上抛，
// 漏删的文件由 janitor 对账回收，中断上层删除事务则无法恢复
func (s *Store) Delete(ctx context.Context, reference string) {
	err := s.provider.DeleteWithContext(ctx, reference)
	if err != nil && !storage.IsNotExist(err) {
		log.Printf("WARN: failed to delete image %s: %v", reference, err)
	}
}

// DeleteBatch 删除一批图片，单个失败不影响其余
func (s *Store) DeleteBatch(ctx context.Context, references []string) {
	for _, ref := range references {
		s.Delete(ctx, ref)
	}
}

// Open 读取已存储的图片内容
func (s *Store) Open(ctx context.Context, reference string) (io.ReadCloser, error) {
	return s.provider.GetWithContext(ctx, reference)
}

// Provider 暴露底层存储提供者，供 janitor 对账使用
func (s *Store) Provider() storage.Provider {
	return s.provider
}

// ResolveURLs 把批次内的裸标识符解析成完整公开地址，只在读路径调用
func (s *Store) ResolveURLs(metas []ImageMeta) []ImageMeta {
	out := make([]ImageMeta, len(metas))
	for i, m := range metas {
		out[i] = m
		if !strings.HasPrefix(m.URL, "http://") && !strings.HasPrefix(m.URL, "https://") {
			out[i].URL = s.URLFor(m.URL)
		}
	}
	return out
}
