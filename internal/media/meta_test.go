package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecodeBatch 测试正常格式解析
func TestDecodeBatch(t *testing.T) {
	raw := `[{"url":"a.jpg","w":800,"h":600},{"url":"b.jpg","w":1200,"h":900}]`

	metas, err := DecodeBatch(raw)
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "a.jpg", metas[0].URL)
	assert.Equal(t, 800, metas[0].W)
	assert.Equal(t, 600, metas[0].H)
}

// TestDecodeBatchLegacyStrings 测试旧格式裸字符串的兼容读取
func TestDecodeBatchLegacyStrings(t *testing.T) {
	raw := `["old1.jpg","old2.jpg"]`

	metas, err := DecodeBatch(raw)
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "old1.jpg", metas[0].URL)
	assert.Equal(t, 1000, metas[0].W)
	assert.Equal(t, 1000, metas[0].H)
}

// TestDecodeBatchMixed 测试新旧条目混合
func TestDecodeBatchMixed(t *testing.T) {
	raw := `["legacy.jpg",{"url":"new.jpg","w":640,"h":480}]`

	metas, err := DecodeBatch(raw)
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, 1000, metas[0].W)
	assert.Equal(t, 640, metas[1].W)
}

// TestDecodeBatchEmpty 测试空字段
func TestDecodeBatchEmpty(t *testing.T) {
	metas, err := DecodeBatch("")
	require.NoError(t, err)
	assert.Nil(t, metas)
}

// TestEncodeBatchRoundTrip 测试序列化保持顺序
func TestEncodeBatchRoundTrip(t *testing.T) {
	in := []ImageMeta{
		{URL: "cover.jpg", W: 1200, H: 800},
		{URL: "second.jpg", W: 640, H: 480},
	}

	raw, err := EncodeBatch(in)
	require.NoError(t, err)

	out, err := DecodeBatch(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

// TestEncodeBatchEmpty 测试空批次序列化为空串
func TestEncodeBatchEmpty(t *testing.T) {
	raw, err := EncodeBatch(nil)
	require.NoError(t, err)
	assert.Equal(t, "", raw)
}

// TestReferences 测试标识符提取
func TestReferences(t *testing.T) {
	refs := References([]ImageMeta{{URL: "a.jpg"}, {URL: "b.jpg"}})
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, refs)
}
