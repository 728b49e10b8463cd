package requests

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uninet-app/uninet/api/common"
	"github.com/uninet-app/uninet/api/middleware"
	"github.com/uninet-app/uninet/internal/requests"
)

// Handler 限时求助处理器
type Handler struct {
	requests *requests.Service
}

// NewHandler 创建求助处理器
func NewHandler(svc *requests.Service) *Handler {
	return &Handler{requests: svc}
}

type createRequest struct {
	Category string `json:"category" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Body     string `json:"body" binding:"required"`
	TTLHours int    `json:"ttl_hours"`
}

// Create 发布限时求助
// POST /api/requests
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "malformed request body")
		return
	}

	request, err := h.requests.Create(c.Request.Context(), requests.CreateInput{
		AuthorID: middleware.CurrentUserID(c),
		Category: req.Category,
		Title:    req.Title,
		Body:     req.Body,
		TTL:      time.Duration(req.TTLHours) * time.Hour,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, request)
}

// List 活跃求助列表
// GET /api/requests
func (h *Handler) List(c *gin.Context) {
	items, err := h.requests.ListActive(c.Request.Context(), c.Query("category"),
		intQuery(c, "limit", 20), intQuery(c, "offset", 0))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, items)
}

type respondRequest struct {
	Message string `json:"message"`
	Contact string `json:"contact"`
}

// Respond 响应求助
// POST /api/requests/:id/respond
func (h *Handler) Respond(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "malformed request body")
		return
	}

	response, err := h.requests.Respond(c.Request.Context(), id, middleware.CurrentUserID(c), req.Message, req.Contact)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, response)
}

// Responses 作者查看求助的响应列表
// GET /api/requests/:id/responses
func (h *Handler) Responses(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	responses, err := h.requests.Responses(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, responses)
}

// Close 作者提前关闭求助
// POST /api/requests/:id/close
func (h *Handler) Close(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.requests.Close(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "request closed", nil)
}

// Delete 作者删除求助
// DELETE /api/requests/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.requests.Delete(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "request deleted", nil)
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		common.RespondError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return value
}
