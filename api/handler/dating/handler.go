package dating

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/uninet-app/uninet/api/common"
	"github.com/uninet-app/uninet/api/middleware"
	"github.com/uninet-app/uninet/internal/dating"
	"github.com/uninet-app/uninet/internal/media"
)

// Handler 交友处理器
type Handler struct {
	dating    *dating.Service
	uploads   *media.UploadService
	maxPhotos int
}

// NewHandler 创建交友处理器
func NewHandler(svc *dating.Service, uploads *media.UploadService, maxPhotos int) *Handler {
	if maxPhotos <= 0 {
		maxPhotos = 3
	}
	return &Handler{dating: svc, uploads: uploads, maxPhotos: maxPhotos}
}

type targetRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// Like 喜欢某个用户
// POST /api/dating/like
func (h *Handler) Like(c *gin.Context) {
	var req targetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "user_id is required")
		return
	}

	result, err := h.dating.Like(c.Request.Context(), middleware.CurrentUserID(c), req.UserID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, result)
}

// Dislike 跳过某个用户
// POST /api/dating/dislike
func (h *Handler) Dislike(c *gin.Context) {
	var req targetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := h.dating.Dislike(c.Request.Context(), middleware.CurrentUserID(c), req.UserID); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "disliked", nil)
}

// WhoLiked 待处理的喜欢列表
// GET /api/dating/who-liked
func (h *Handler) WhoLiked(c *gin.Context) {
	profiles, err := h.dating.WhoLiked(c.Request.Context(), middleware.CurrentUserID(c),
		intQuery(c, "limit", 20), intQuery(c, "offset", 0))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, profiles)
}

// Stats 交友统计
// GET /api/dating/stats
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.dating.GetStats(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, stats)
}

// Matches 匹配列表
// GET /api/dating/matches
func (h *Handler) Matches(c *gin.Context) {
	views, err := h.dating.Matches(c.Request.Context(), middleware.CurrentUserID(c),
		intQuery(c, "limit", 20), intQuery(c, "offset", 0))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, views)
}

// Feed 交友信息流
// GET /api/dating/feed
func (h *Handler) Feed(c *gin.Context) {
	cards, err := h.dating.Feed(c.Request.Context(), middleware.CurrentUserID(c),
		intQuery(c, "limit", 10), intQuery(c, "offset", 0))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, cards)
}

type updateProfileRequest struct {
	Bio        string   `json:"bio"`
	Gender     string   `json:"gender"`
	LookingFor string   `json:"looking_for"`
	IsActive   bool     `json:"is_active"`
	Photos     []string `json:"photos"`
}

// UpdateProfile 创建或更新资料卡
// PUT /api/dating/profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "malformed request body")
		return
	}

	// photos 为 null 保持现状，为空数组则清空
	var photos []media.ImageMeta
	if req.Photos != nil {
		metas, err := h.uploads.IngestBase64(c.Request.Context(), req.Photos, h.maxPhotos)
		if err != nil {
			common.RespondAppError(c, err)
			return
		}
		photos = metas
		if photos == nil {
			photos = []media.ImageMeta{}
		}
	}

	profile, err := h.dating.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c),
		req.Bio, req.Gender, req.LookingFor, req.IsActive, photos)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, profile)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return value
}
