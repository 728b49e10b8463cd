package core

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uninet-app/uninet/config"
	"github.com/uninet-app/uninet/database/models"
	commentsrepo "github.com/uninet-app/uninet/database/repo/comments"
	datingrepo "github.com/uninet-app/uninet/database/repo/dating"
	marketrepo "github.com/uninet-app/uninet/database/repo/market"
	postsrepo "github.com/uninet-app/uninet/database/repo/posts"
	requestsrepo "github.com/uninet-app/uninet/database/repo/requests"
	usersrepo "github.com/uninet-app/uninet/database/repo/users"
	"github.com/uninet-app/uninet/internal/auth"
	"github.com/uninet-app/uninet/internal/comments"
	"github.com/uninet-app/uninet/internal/dating"
	"github.com/uninet-app/uninet/internal/market"
	"github.com/uninet-app/uninet/internal/media"
	"github.com/uninet-app/uninet/internal/posts"
	"github.com/uninet-app/uninet/internal/requests"
	"github.com/uninet-app/uninet/internal/users"
	"github.com/uninet-app/uninet/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Post{}, &models.PostLike{},
		&models.Comment{}, &models.CommentLike{},
		&models.Request{}, &models.RequestResponse{},
		&models.MarketItem{}, &models.MarketFavorite{},
		&models.Poll{}, &models.PollVote{},
		&models.DatingLike{}, &models.Match{}, &models.DatingProfile{},
	))

	provider, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{
		ServerHost:             "127.0.0.1",
		ServerPort:             8000,
		UploadMaxFileSizeMB:    10,
		UploadMaxPostImages:    3,
		UploadMaxItemImages:    5,
		UploadMaxProfilePhotos: 2,
		JwtSecret:              "0123456789abcdef0123456789abcdef",
		JwtExpiresIn:           time.Hour,
		AuthDevMode:            true,
		RateLimitApiRPS:        100,
		RateLimitApiBurst:      200,
		RateLimitAuthRPS:       100,
		RateLimitAuthBurst:     200,
		RateLimitExpireTime:    time.Minute,
	}

	store := media.NewStore(provider, cfg.BaseURL())
	uploads := media.NewUploadService(media.NewCodec(), store, nil)

	jwtService, err := auth.NewJWTService(cfg.JwtSecret, cfg.JwtExpiresIn)
	require.NoError(t, err)

	usersRepo := usersrepo.NewRepository(db)
	postsRepo := postsrepo.NewRepository(db)

	deps := &RouterDependencies{
		Config:          cfg,
		Store:           store,
		Uploads:         uploads,
		JWTService:      jwtService,
		LoginService:    auth.NewLoginService(usersRepo, jwtService, cfg.AuthDevMode),
		UsersService:    users.NewService(usersRepo, uploads, store, nil),
		PostsService:    posts.NewService(postsRepo, usersRepo, uploads, store, cfg.UploadMaxPostImages),
		CommentsService: comments.NewService(commentsrepo.NewRepository(db), postsRepo),
		DatingService:   dating.NewService(datingrepo.NewRepository(db), usersRepo, store, nil),
		MarketService:   market.NewService(marketrepo.NewRepository(db), uploads, store, cfg.UploadMaxItemImages),
		RequestsService: requests.NewService(requestsrepo.NewRepository(db)),
	}

	router, cleanup := setupRouter(deps)
	t.Cleanup(cleanup)
	return router
}

func loginToken(t *testing.T, router *gin.Engine, telegramID int64) string {
	t.Helper()
	body := fmt.Sprintf(`{"init_data":"{\"telegram_id\":%d,\"name\":\"user-%d\"}"}`, telegramID, telegramID)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/telegram", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

// TestHealthEndpoint 测试健康检查
func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// 测试环境没有接数据库工厂和存储工厂，接口仍须可达
	assert.Contains(t, []int{http.StatusOK, http.StatusServiceUnavailable}, rec.Code)
	assert.Contains(t, rec.Body.String(), "checks")
}

// TestAuthRequired 测试未认证请求被拒绝
func TestAuthRequired(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestLoginAndMe 测试登录签发的令牌可访问受保护接口
func TestLoginAndMe(t *testing.T) {
	router := newTestRouter(t)
	token := loginToken(t, router, 42)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "user-42")
}

// TestPostLifecycleOverHTTP 测试发帖到删帖的完整链路
func TestPostLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	token := loginToken(t, router, 7)

	create := httptest.NewRequest(http.MethodPost, "/api/posts",
		strings.NewReader(`{"category":"general","body":"hello campus"}`))
	create.Header.Set("Content-Type", "application/json")
	create.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, create)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			ID uint `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotZero(t, resp.Data.ID)

	get := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/posts/%d", resp.Data.ID), nil)
	get.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, get)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello campus")

	del := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/posts/%d", resp.Data.ID), nil)
	del.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, del)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, get)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestImageRouteRejectsTraversal 测试图片路由拒绝路径穿越
func TestImageRouteRejectsTraversal(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/uploads/images/..%2Fsecret", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/uploads/images/missing.jpg", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func pngBase64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 120))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// TestProfilePhotoLimitFromConfig 测试资料卡照片数量受配置约束
func TestProfilePhotoLimitFromConfig(t *testing.T) {
	router := newTestRouter(t)
	token := loginToken(t, router, 9)

	photos := []string{pngBase64(t), pngBase64(t), pngBase64(t)}
	body, err := json.Marshal(map[string]interface{}{"bio": "hi", "photos": photos})
	require.NoError(t, err)

	// 配置上限 2 张，3 张必须被拒
	req := httptest.NewRequest(http.MethodPut, "/api/dating/profile", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	body, err = json.Marshal(map[string]interface{}{"bio": "hi", "photos": photos[:2]})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPut, "/api/dating/profile", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
