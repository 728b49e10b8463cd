package dating

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uninet-app/uninet/database/models"
	datingrepo "github.com/uninet-app/uninet/database/repo/dating"
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
	// 每个测试独立的共享缓存内存库，避免连接池里每个连接各开一个库
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.DatingLike{}, &models.Match{}, &models.DatingProfile{},
	))
	return db
}

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	provider, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	store := media.NewStore(provider, "http://localhost:8000")
	svc := NewService(datingrepo.NewRepository(db), usersrepo.NewRepository(db), store, nil)
	return svc, db
}

func seedUser(t *testing.T, db *gorm.DB, telegramID int64) uint {
	t.Helper()
	u := &models.User{
		TelegramID: telegramID,
		Name:       fmt.Sprintf("user-%d", telegramID),
		University: "Test University",
		Institute:  "Test Institute",
	}
	require.NoError(t, db.Create(u).Error)
	return u.ID
}

// TestLikeSelf 测试不能给自己点赞
func TestLikeSelf(t *testing.T) {
	svc, db := newService(t)
	a := seedUser(t, db, 1)

	_, err := svc.Like(context.Background(), a, a)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidOperation)

	err = svc.Dislike(context.Background(), a, a)
	assert.ErrorIs(t, err, apperr.ErrInvalidOperation)
}

// TestLikeNoMatch 测试单向喜欢不产生匹配
func TestLikeNoMatch(t *testing.T) {
	svc, db := newService(t)
	a := seedUser(t, db, 1)
	b := seedUser(t, db, 2)

	result, err := svc.Like(context.Background(), a, b)
	require.NoError(t, err)
	assert.False(t, result.AlreadyLiked)
	assert.False(t, result.IsMatch)

	var count int64
	db.Model(&models.Match{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

// TestMutualLikeCreatesMatch 测试互相喜欢产生唯一匹配
func TestMutualLikeCreatesMatch(t *testing.T) {
	svc, db := newService(t)
	a := seedUser(t, db, 1)
	b := seedUser(t, db, 2)
	ctx := context.Background()

	_, err := svc.Like(ctx, b, a)
	require.NoError(t, err)

	result, err := svc.Like(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, result.IsMatch)
	assert.NotZero(t, result.MatchID)
	require.NotNil(t, result.MatchedUser)
	assert.Equal(t, b, result.MatchedUser.ID)

	// 规范化存储：low < high
	var match models.Match
	require.NoError(t, db.First(&match, result.MatchID).Error)
	assert.Less(t, match.UserLowID, match.UserHighID)

	var count int64
	db.Model(&models.Match{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

// TestRepeatedLikeIdempotent 测试重复点赞是成功的 no-op
func TestRepeatedLikeIdempotent(t *testing.T) {
	svc, db := newService(t)
	a := seedUser(t, db, 1)
	b := seedUser(t, db, 2)
	ctx := context.Background()

	_, err := svc.Like(ctx, a, b)
	require.NoError(t, err)

	result, err := svc.Like(ctx, a, b)
	require.NoError(t, err)
	assert.True(t, result.AlreadyLiked)
	assert.False(t, result.IsMatch)

	var count int64
	db.Model(&models.DatingLike{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

// TestBothSidesObserveMatch 测试双方先后点赞都看到同一个匹配
func TestBothSidesObserveMatch(t *testing.T) {
	svc, db := newService(t)
	a := seedUser(t, db, 1)
	b := seedUser(t, db, 2)
	ctx := context.Background()

	_, err := svc.Like(ctx, a, b)
	require.NoError(t, err)
	first, err := svc.Like(ctx, b, a)
	require.NoError(t, err)
	require.True(t, first.IsMatch)

	// b 一侧若匹配已存在，ensureMatch 仍须返回同一条记录
	low, high := a, b
	if low > high {
		low, high = high, low
	}
	match, err := svc.ensureMatch(b, a)
	require.NoError(t, err)
	assert.Equal(t, first.MatchID, match.ID)
	assert.Equal(t, low, match.UserLowID)
	assert.Equal(t, high, match.UserHighID)
}

// TestDislikeFlipsLike 测试 dislike 翻转既有喜欢并保留历史
func TestDislikeFlipsLike(t *testing.T) {
	svc, db := newService(t)
	a := seedUser(t, db, 1)
	b := seedUser(t, db, 2)
	ctx := context.Background()

	_, err := svc.Like(ctx, a, b)
	require.NoError(t, err)

	require.NoError(t, svc.Dislike(ctx, a, b))

	var like models.DatingLike
	require.NoError(t, db.Where("liker_id = ? AND liked_id = ?", a, b).First(&like).Error)
	assert.False(t, like.IsLike)

	// 重复 dislike 幂等
	require.NoError(t, svc.Dislike(ctx, a, b))

	var count int64
	db.Model(&models.DatingLike{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

// TestLikeAfterDislike 测试跳过后改为喜欢
func TestLikeAfterDislike(t *testing.T) {
	svc, db := newService(t)
	a := seedUser(t, db, 1)
	b := seedUser(t, db, 2)
	ctx := context.Background()

	require.NoError(t, svc.Dislike(ctx, a, b))
	_, err := svc.Like(ctx, b, a)
	require.NoError(t, err)

	result, err := svc.Like(ctx, a, b)
	require.NoError(t, err)
	assert.False(t, result.AlreadyLiked)
	assert.True(t, result.IsMatch)
}

// TestWhoLikedExcludesDecided 测试已表态的用户不出现在待处理列表
func TestWhoLikedExcludesDecided(t *testing.T) {
	svc, db := newService(t)
	me := seedUser(t, db, 1)
	liker1 := seedUser(t, db, 2)
	liker2 := seedUser(t, db, 3)
	liker3 := seedUser(t, db, 4)
	ctx := context.Background()

	_, err := svc.Like(ctx, liker1, me)
	require.NoError(t, err)
	_, err = svc.Like(ctx, liker2, me)
	require.NoError(t, err)
	_, err = svc.Like(ctx, liker3, me)
	require.NoError(t, err)

	// 回赞 liker1（变成匹配），跳过 liker2
	_, err = svc.Like(ctx, me, liker1)
	require.NoError(t, err)
	require.NoError(t, svc.Dislike(ctx, me, liker2))

	pending, err := svc.WhoLiked(ctx, me, 20, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, liker3, pending[0].ID)
}

// TestGetStats 测试统计
func TestGetStats(t *testing.T) {
	svc, db := newService(t)
	me := seedUser(t, db, 1)
	other1 := seedUser(t, db, 2)
	other2 := seedUser(t, db, 3)
	ctx := context.Background()

	_, err := svc.Like(ctx, other1, me)
	require.NoError(t, err)
	_, err = svc.Like(ctx, other2, me)
	require.NoError(t, err)
	_, err = svc.Like(ctx, me, other1)
	require.NoError(t, err)

	stats, err := svc.GetStats(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.PendingLikes)
	assert.Equal(t, int64(1), stats.Matches)
}

// TestMatchesListing 测试匹配列表带对方公开信息
func TestMatchesListing(t *testing.T) {
	svc, db := newService(t)
	me := seedUser(t, db, 1)
	other := seedUser(t, db, 2)
	ctx := context.Background()

	_, err := svc.Like(ctx, other, me)
	require.NoError(t, err)
	_, err = svc.Like(ctx, me, other)
	require.NoError(t, err)

	views, err := svc.Matches(ctx, me, 20, 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, other, views[0].User.ID)
	assert.Equal(t, "user-2", views[0].User.Name)
}

// TestFeedExcludesDecidedAndSelf 测试信息流排除自己和已表态的
func TestFeedExcludesDecidedAndSelf(t *testing.T) {
	svc, db := newService(t)
	me := seedUser(t, db, 1)
	seen := seedUser(t, db, 2)
	fresh := seedUser(t, db, 3)
	inactive := seedUser(t, db, 4)
	ctx := context.Background()

	for _, uid := range []uint{me, seen, fresh} {
		_, err := svc.UpdateProfile(ctx, uid, "bio", "", "", true, nil)
		require.NoError(t, err)
	}
	_, err := svc.UpdateProfile(ctx, inactive, "bio", "", "", false, nil)
	require.NoError(t, err)

	_, err = svc.Like(ctx, me, seen)
	require.NoError(t, err)

	cards, err := svc.Feed(ctx, me, 10, 0)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, fresh, cards[0].UserID)
}

// TestUpdateProfileReplacesPhotos 测试换图删旧存新
func TestUpdateProfileReplacesPhotos(t *testing.T) {
	svc, db := newService(t)
	me := seedUser(t, db, 1)
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, me, "bio", "male", "female", true,
		[]media.ImageMeta{{URL: "old.jpg", W: 100, H: 100}})
	require.NoError(t, err)

	profile, err := svc.UpdateProfile(ctx, me, "bio", "male", "female", true,
		[]media.ImageMeta{{URL: "new.jpg", W: 200, H: 200}})
	require.NoError(t, err)

	metas, err := media.DecodeBatch(profile.Photos)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "new.jpg", metas[0].URL)
}
