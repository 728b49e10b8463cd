package media

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uninet-app/uninet/storage"
)

func newLocalStore(t *testing.T) *Store {
	t.Helper()
	provider, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewStore(provider, "http://localhost:8000/")
}

// TestStoreSaveThenRead 测试保存后立即可读且内容一致
func TestStoreSaveThenRead(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	draft := &Draft{Reference: NewReference(), Encoded: []byte("jpeg bytes"), Width: 10, Height: 10}
	require.NoError(t, store.Save(ctx, draft))

	rc, err := store.Open(ctx, draft.Reference)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, draft.Encoded, data)
}

// TestStoreURLFor 测试公开地址拼接
func TestStoreURLFor(t *testing.T) {
	store := newLocalStore(t)
	assert.Equal(t, "http://localhost:8000/uploads/images/abc.jpg", store.URLFor("abc.jpg"))
}

// TestStoreDeleteIdempotent 测试重复删除不报错
func TestStoreDeleteIdempotent(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	draft := &Draft{Reference: NewReference(), Encoded: []byte("x")}
	require.NoError(t, store.Save(ctx, draft))

	store.Delete(ctx, draft.Reference)
	store.Delete(ctx, draft.Reference) // 第二次是 no-op
	store.Delete(ctx, "never-existed.jpg")
}

// TestStoreDeleteBatchAttemptsAll 测试批量删除逐条尝试
func TestStoreDeleteBatchAttemptsAll(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	a := &Draft{Reference: NewReference(), Encoded: []byte("a")}
	b := &Draft{Reference: NewReference(), Encoded: []byte("b")}
	require.NoError(t, store.Save(ctx, a))
	require.NoError(t, store.Save(ctx, b))

	// 中间夹一个不存在的引用，后续删除仍执行
	store.DeleteBatch(ctx, []string{a.Reference, "missing.jpg", b.Reference})

	exists, err := store.Provider().Exists(ctx, a.Reference)
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = store.Provider().Exists(ctx, b.Reference)
	require.NoError(t, err)
	assert.False(t, exists)
}

// TestResolveURLs 测试读路径补全地址
func TestResolveURLs(t *testing.T) {
	store := newLocalStore(t)

	metas := store.ResolveURLs([]ImageMeta{
		{URL: "bare.jpg", W: 100, H: 100},
		{URL: "https://cdn.example.com/full.jpg", W: 200, H: 200},
	})

	assert.Equal(t, "http://localhost:8000/uploads/images/bare.jpg", metas[0].URL)
	assert.Equal(t, "https://cdn.example.com/full.jpg", metas[1].URL)
}
