package users

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uninet-app/uninet/database/models"
	usersrepo "github.com/uninet-app/uninet/database/repo/users"
	"github.com/uninet-app/uninet/internal/apperr"
	"github.com/uninet-app/uninet/internal/media"
	"github.com/uninet-app/uninet/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func newService(t *testing.T) (*Service, *gorm.DB, storage.Provider) {
	t.Helper()
	db := newTestDB(t)
	provider, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	store := media.NewStore(provider, "http://localhost:8000")
	uploads := media.NewUploadService(media.NewCodec(), store, nil)
	svc := NewService(usersrepo.NewRepository(db), uploads, store, nil)
	return svc, db, provider
}

func seedUser(t *testing.T, db *gorm.DB) uint {
	t.Helper()
	u := &models.User{
		TelegramID: 1000,
		Name:       "Alice",
		University: "Test University",
		Institute:  "Test Institute",
	}
	require.NoError(t, db.Create(u).Error)
	return u.ID
}

func pngBase64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 120; x++ {
			img.Set(x, y, color.RGBA{R: 40, G: 80, B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// TestUpdateFields 测试部分字段更新
func TestUpdateFields(t *testing.T) {
	svc, db, _ := newService(t)
	id := seedUser(t, db)
	ctx := context.Background()

	updated, err := svc.Update(ctx, id, UpdateInput{
		Bio:       strPtr("hello"),
		Course:    intPtr(3),
		Interests: []string{"chess", "go"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", updated.Bio)
	assert.Equal(t, 3, updated.Course)
	assert.Equal(t, "Alice", updated.Name)
	assert.Equal(t, []string{"chess", "go"}, svc.Interests(updated))
}

// TestUpdateValidation 测试非法输入
func TestUpdateValidation(t *testing.T) {
	svc, db, _ := newService(t)
	id := seedUser(t, db)
	ctx := context.Background()

	_, err := svc.Update(ctx, id, UpdateInput{Name: strPtr("")})
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.Update(ctx, id, UpdateInput{Age: intPtr(-1)})
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.Update(ctx, 9999, UpdateInput{Bio: strPtr("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// TestAvatarReplace 测试换头像删旧存新
func TestAvatarReplace(t *testing.T) {
	svc, db, provider := newService(t)
	id := seedUser(t, db)
	ctx := context.Background()

	first, err := svc.Update(ctx, id, UpdateInput{AvatarBase64: strPtr(pngBase64(t))})
	require.NoError(t, err)
	require.NotEmpty(t, first.Avatar)

	second, err := svc.Update(ctx, id, UpdateInput{AvatarBase64: strPtr(pngBase64(t))})
	require.NoError(t, err)
	require.NotEmpty(t, second.Avatar)
	assert.NotEqual(t, first.Avatar, second.Avatar)

	exists, err := provider.Exists(ctx, first.Avatar)
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = provider.Exists(ctx, second.Avatar)
	require.NoError(t, err)
	assert.True(t, exists)

	// 清空头像
	cleared, err := svc.Update(ctx, id, UpdateInput{AvatarBase64: strPtr("")})
	require.NoError(t, err)
	assert.Empty(t, cleared.Avatar)
	exists, err = provider.Exists(ctx, second.Avatar)
	require.NoError(t, err)
	assert.False(t, exists)
}

// TestAvatarKeptWhenUpdateFails 测试字段更新失败时旧头像保留、新上传回滚
func TestAvatarKeptWhenUpdateFails(t *testing.T) {
	svc, db, provider := newService(t)
	id := seedUser(t, db)
	ctx := context.Background()

	first, err := svc.Update(ctx, id, UpdateInput{AvatarBase64: strPtr(pngBase64(t))})
	require.NoError(t, err)
	require.NotEmpty(t, first.Avatar)

	// 用触发器让 UPDATE 失败
	require.NoError(t, db.Exec(
		"CREATE TRIGGER block_user_update BEFORE UPDATE ON users BEGIN SELECT RAISE(ABORT, 'blocked'); END",
	).Error)

	_, err = svc.Update(ctx, id, UpdateInput{AvatarBase64: strPtr(pngBase64(t))})
	require.Error(t, err)

	// 行里引用的旧头像必须还在，失败的新上传不能留下文件
	exists, err := provider.Exists(ctx, first.Avatar)
	require.NoError(t, err)
	assert.True(t, exists)
	names, err := provider.List(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 1)
}

// TestGetPublicResolvesAvatar 测试公开资料解析头像地址
func TestGetPublicResolvesAvatar(t *testing.T) {
	svc, db, _ := newService(t)
	id := seedUser(t, db)
	ctx := context.Background()

	_, err := svc.Update(ctx, id, UpdateInput{AvatarBase64: strPtr(pngBase64(t))})
	require.NoError(t, err)

	pub, err := svc.GetPublic(ctx, id)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(pub.Avatar, "http://localhost:8000/uploads/images/"))
}
