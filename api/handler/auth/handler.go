package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uninet-app/uninet/api/common"
	"github.com/uninet-app/uninet/internal/auth"
)

// Handler 认证处理器
type Handler struct {
	login *auth.LoginService
}

// NewHandler 创建认证处理器
func NewHandler(login *auth.LoginService) *Handler {
	return &Handler{login: login}
}

type loginRequest struct {
	InitData string `json:"init_data" binding:"required"`
}

// TelegramLogin 处理 Telegram 登录
// POST /api/auth/telegram
func (h *Handler) TelegramLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "init_data is required")
		return
	}

	result, err := h.login.Login(c.Request.Context(), req.InitData)
	if err != nil {
		common.RespondError(c, http.StatusUnauthorized, err.Error())
		return
	}

	common.RespondSuccess(c, result)
}
