package market

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/uninet-app/uninet/api/common"
	"github.com/uninet-app/uninet/api/middleware"
	marketrepo "github.com/uninet-app/uninet/database/repo/market"
	"github.com/uninet-app/uninet/internal/market"
)

// Handler 市集处理器
type Handler struct {
	market *market.Service
}

// NewHandler 创建市集处理器
func NewHandler(svc *market.Service) *Handler {
	return &Handler{market: svc}
}

type createItemRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	PriceCents  int64    `json:"price_cents"`
	Images      []string `json:"images"`
}

// Create 上架商品
// POST /api/market
func (h *Handler) Create(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "malformed request body")
		return
	}

	view, err := h.market.Create(c.Request.Context(), market.CreateInput{
		SellerID:     middleware.CurrentUserID(c),
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		PriceCents:   req.PriceCents,
		ImagesBase64: req.Images,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, view)
}

// List 在售商品列表
// GET /api/market
func (h *Handler) List(c *gin.Context) {
	filter := marketrepo.ListFilter{
		Category: c.Query("category"),
		Limit:    intQuery(c, "limit", 20),
		Offset:   intQuery(c, "offset", 0),
	}
	if sellerID, err := strconv.ParseUint(c.Query("seller_id"), 10, 64); err == nil {
		filter.SellerID = uint(sellerID)
	}
	if maxCents, err := strconv.ParseInt(c.Query("max_price_cents"), 10, 64); err == nil {
		filter.MaxCents = maxCents
	}

	views, err := h.market.List(c.Request.Context(), filter)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, views)
}

// Get 商品详情
// GET /api/market/:id，id 为 "favorites" 时返回当前用户的收藏列表
func (h *Handler) Get(c *gin.Context) {
	if c.Param("id") == "favorites" {
		h.Favorites(c)
		return
	}

	id, ok := idParam(c)
	if !ok {
		return
	}

	view, err := h.market.Get(c.Request.Context(), id)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, view)
}

// ToggleFavorite 商品收藏开关
// POST /api/market/:id/favorite
func (h *Handler) ToggleFavorite(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	favorited, count, err := h.market.ToggleFavorite(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, gin.H{"is_favorited": favorited, "favorites_count": count})
}

// Favorites 当前用户收藏的商品
// GET /api/market/favorites
func (h *Handler) Favorites(c *gin.Context) {
	views, err := h.market.Favorites(c.Request.Context(), middleware.CurrentUserID(c),
		intQuery(c, "limit", 20), intQuery(c, "offset", 0))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, views)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus 更新商品状态
// PATCH /api/market/:id/status
func (h *Handler) SetStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "status is required")
		return
	}

	if err := h.market.SetStatus(c.Request.Context(), id, middleware.CurrentUserID(c), req.Status); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "status updated", nil)
}

// Delete 下架并删除商品
// DELETE /api/market/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.market.Delete(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "item deleted", nil)
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
