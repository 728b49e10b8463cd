package comments

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uninet-app/uninet/database/models"
	commentsrepo "github.com/uninet-app/uninet/database/repo/comments"
	postsrepo "github.com/uninet-app/uninet/database/repo/posts"
	"github.com/uninet-app/uninet/internal/apperr"
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
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Post{}, &models.Comment{}, &models.CommentLike{},
	))
	return db
}

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewService(commentsrepo.NewRepository(db), postsrepo.NewRepository(db))
	return svc, db
}

func seedUser(t *testing.T, db *gorm.DB, telegramID int64) uint {
	t.Helper()
	u := &models.User{
		TelegramID: telegramID,
		Name:       fmt.Sprintf("user-%d", telegramID),
		University: "U",
		Institute:  "I",
	}
	require.NoError(t, db.Create(u).Error)
	return u.ID
}

func seedPost(t *testing.T, db *gorm.DB, authorID uint, anonymous, forceAnonComments bool) *models.Post {
	t.Helper()
	p := &models.Post{
		AuthorID:                authorID,
		Category:                models.PostCategoryConfessions,
		Body:                    "post body",
		IsAnonymous:             anonymous,
		EnableAnonymousComments: forceAnonComments,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func anonIndex(t *testing.T, c *models.Comment) int {
	t.Helper()
	require.NotNil(t, c.AnonymousIndex)
	return *c.AnonymousIndex
}

// TestAnonymousIndicesIncrease 测试新匿名作者按首次出现顺序拿递增序号
func TestAnonymousIndicesIncrease(t *testing.T) {
	svc, db := newService(t)
	author := seedUser(t, db, 1)
	u2 := seedUser(t, db, 2)
	u3 := seedUser(t, db, 3)
	u4 := seedUser(t, db, 4)
	post := seedPost(t, db, author, false, false)
	ctx := context.Background()

	c2, err := svc.Create(ctx, CreateInput{PostID: post.ID, AuthorID: u2, Body: "a", IsAnonymous: true})
	require.NoError(t, err)
	c3, err := svc.Create(ctx, CreateInput{PostID: post.ID, AuthorID: u3, Body: "b", IsAnonymous: true})
	require.NoError(t, err)
	c4, err := svc.Create(ctx, CreateInput{PostID: post.ID, AuthorID: u4, Body: "c", IsAnonymous: true})
	require.NoError(t, err)

	assert.Equal(t, 1, anonIndex(t, c2))
	assert.Equal(t, 2, anonIndex(t, c3))
	assert.Equal(t, 3, anonIndex(t, c4))
}

// TestAnonymousIndexStable 测试同一作者整串复用同一序号
func TestAnonymousIndexStable(t *testing.T) {
	svc, db := newService(t)
	author := seedUser(t, db, 1)
	u2 := seedUser(t, db, 2)
	u3 := seedUser(t, db, 3)
	post := seedPost(t, db, author, false, false)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateInput{PostID: post.ID, AuthorID: u2, Body: "a", IsAnonymous: true})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{PostID: post.ID, AuthorID: u3, Body: "b", IsAnonymous: true})
	require.NoError(t, err)
	again, err := svc.Create(ctx, CreateInput{PostID: post.ID, AuthorID: u2, Body: "c", IsAnonymous: true})
	require.NoError(t, err)

	assert.Equal(t, anonIndex(t, first), anonIndex(t, again))
}

// TestAnonymousPostAuthorGetsZero 测试匿名帖作者本人拿保留序号 0
func TestAnonymousPostAuthorGetsZero(t *testing.T) {
	svc, db := newService(t)
	author := seedUser(t, db, 1)
	u2 := seedUser(t, db, 2)
	post := seedPost(t, db, author, true, false)
	ctx := context.Background()

	other, err := svc.Create(ctx, CreateInput{PostID: post.ID, AuthorID: u2, Body: "a", IsAnonymous: true})
	require.NoError(t, err)
	own, err := svc.Create(ctx, CreateInput{PostID: post.ID, AuthorID: author, Body: "b", IsAnonymous: true})
	require.NoError(t, err)

	assert.Equal(t, 1, anonIndex(t, other))
	assert.Equal(t, models.AnonymousAuthorIndex, anonIndex(t, own))
}

// TestNonAnonymousPostAuthorGetsRegularIndex 测试非匿名帖作者匿名评论时不拿 0
func TestNonAnonymousPostAuthorGetsRegularIndex(t *testing.T) {
	svc, db := newService(t)
	author := seedUser(t, db, 1)
	post := seedPost(t, db, author, false, false)
	ctx := context.Background()

	own, err := svc.Create(ctx, CreateInput{PostID: post.ID, AuthorID: author, Body: "a", IsAnonymous: true})
	require.NoError(t, err)
	assert.Equal(t, 1, anonIndex(t, own))
}

// TestForcedAnonymousComments 测试帖子开关强制评论匿名
func TestForcedAnonymousComments(t *testing.T) {
	svc, db := newService(t)
	author := seedUser(t, db, 1)
	u2 := seedUser(t, db, 2)
	post := seedPost(t, db, author, false, true)
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateInput{PostID: post.ID, AuthorID: u2, Body: "a", IsAnonymous: false})
	require.NoError(t, err)
	assert.True(t, c.IsAnonymous)
	assert.Equal(t, 1, anonIndex(t, c))
}

// TestResolveIndexPure 测试分配函数本身
func TestResolveIndexPure(t *testing.T) {
	idx := func(i int) *int { return &i }
	post := &models.Post{AuthorID: 10, IsAnonymous: true}
	post.ID = 1

	existing := []models.Comment{
		{AuthorID: 20, AnonymousIndex: idx(1)},
		{AuthorID: 10, AnonymousIndex: idx(0)},
		{AuthorID: 30, AnonymousIndex: idx(2)},
	}

	assert.Equal(t, 0, ResolveIndex(post, 10, existing))
	assert.Equal(t, 1, ResolveIndex(post, 20, existing))
	assert.Equal(t, 2, ResolveIndex(post, 30, existing))
	assert.Equal(t, 3, ResolveIndex(post, 40, existing))
	assert.Equal(t, 1, ResolveIndex(post, 40, nil))
}

// TestDisplayName 测试化名渲染
func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Author", DisplayName(0))
	assert.Equal(t, "Anonymous #3", DisplayName(3))
}

// TestListByPostHidesAnonymousAuthors 测试匿名评论不泄露真实作者
func TestListByPostHidesAnonymousAuthors(t *testing.T) {
	svc, db := newService(t)
	author := seedUser(t, db, 1)
	u2 := seedUser(t, db, 2)
	post := seedPost(t, db, author, true, false)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{PostID: post.ID, AuthorID: u2, Body: "anon", IsAnonymous: true})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{PostID: post.ID, AuthorID: u2, Body: "open", IsAnonymous: false})
	require.NoError(t, err)

	views, err := svc.ListByPost(ctx, post.ID, func(uint) string { return "real name" })
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, "Anonymous #1", views[0].AuthorName)
	assert.Nil(t, views[0].AuthorID)
	assert.Equal(t, "real name", views[1].AuthorName)
	require.NotNil(t, views[1].AuthorID)
	assert.Equal(t, u2, *views[1].AuthorID)
}

// TestCreateBumpsCommentCount 测试评论数联动
func TestCreateBumpsCommentCount(t *testing.T) {
	svc, db := newService(t)
	author := seedUser(t, db, 1)
	post := seedPost(t, db, author, false, false)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{PostID: post.ID, AuthorID: author, Body: "a"})
	require.NoError(t, err)

	var got models.Post
	require.NoError(t, db.First(&got, post.ID).Error)
	assert.Equal(t, 1, got.CommentsCount)
}

// TestCreateOnMissingPost 测试帖子不存在
func TestCreateOnMissingPost(t *testing.T) {
	svc, db := newService(t)
	u := seedUser(t, db, 1)

	_, err := svc.Create(context.Background(), CreateInput{PostID: 999, AuthorID: u, Body: "a"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// TestCreateEmptyBody 测试空内容拒绝
func TestCreateEmptyBody(t *testing.T) {
	svc, db := newService(t)
	u := seedUser(t, db, 1)
	post := seedPost(t, db, u, false, false)

	_, err := svc.Create(context.Background(), CreateInput{PostID: post.ID, AuthorID: u})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

// TestDeleteSoft 测试软删除与渲染占位
func TestDeleteSoft(t *testing.T) {
	svc, db := newService(t)
	u := seedUser(t, db, 1)
	post := seedPost(t, db, u, false, false)
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateInput{PostID: post.ID, AuthorID: u, Body: "bye"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, c.ID, u))

	views, err := svc.ListByPost(ctx, post.ID, nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].IsDeleted)
	assert.Equal(t, "[deleted]", views[0].Body)

	// 删别人的评论
	other := seedUser(t, db, 2)
	err = svc.Delete(ctx, c.ID, other)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// TestToggleLike 测试评论点赞开关
func TestToggleLike(t *testing.T) {
	svc, db := newService(t)
	u := seedUser(t, db, 1)
	post := seedPost(t, db, u, false, false)
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateInput{PostID: post.ID, AuthorID: u, Body: "x"})
	require.NoError(t, err)

	liked, err := svc.ToggleLike(ctx, c.ID, u)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = svc.ToggleLike(ctx, c.ID, u)
	require.NoError(t, err)
	assert.False(t, liked)

	var got models.Comment
	require.NoError(t, db.First(&got, c.ID).Error)
	assert.Equal(t, 0, got.LikesCount)
}
