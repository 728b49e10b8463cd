package users

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/uninet-app/uninet/api/common"
	"github.com/uninet-app/uninet/api/middleware"
	"github.com/uninet-app/uninet/database/models"
	"github.com/uninet-app/uninet/internal/users"
)

// Handler 用户资料处理器
type Handler struct {
	users *users.Service
}

// NewHandler 创建用户处理器
func NewHandler(svc *users.Service) *Handler {
	return &Handler{users: svc}
}

// meView 当前用户的完整资料视图
type meView struct {
	*models.User
	Interests []string `json:"interests"`
}

// Me 获取当前用户资料
// GET /api/users/me
func (h *Handler) Me(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, meView{User: user, Interests: h.users.Interests(user)})
}

// UpdateMe 更新当前用户资料
// PUT /api/users/me
func (h *Handler) UpdateMe(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var input users.UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		common.RespondError(c, http.StatusBadRequest, "malformed request body")
		return
	}

	user, err := h.users.Update(c.Request.Context(), userID, input)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, meView{User: user, Interests: h.users.Interests(user)})
}

// Get 获取用户资料
// GET /api/users/:id，id 为 "me" 时返回当前用户的完整资料，否则返回公开资料
func (h *Handler) Get(c *gin.Context) {
	if c.Param("id") == "me" {
		h.Me(c)
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	profile, err := h.users.GetPublic(c.Request.Context(), uint(id))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, profile)
}
