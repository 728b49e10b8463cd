package posts

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uninet-app/uninet/api/common"
	"github.com/uninet-app/uninet/api/middleware"
	postsrepo "github.com/uninet-app/uninet/database/repo/posts"
	"github.com/uninet-app/uninet/internal/comments"
	"github.com/uninet-app/uninet/internal/posts"
	"github.com/uninet-app/uninet/internal/users"
)

// Handler 帖子和评论处理器
type Handler struct {
	posts    *posts.Service
	comments *comments.Service
	users    *users.Service
}

// NewHandler 创建帖子处理器
func NewHandler(postsSvc *posts.Service, commentsSvc *comments.Service, usersSvc *users.Service) *Handler {
	return &Handler{posts: postsSvc, comments: commentsSvc, users: usersSvc}
}

type pollRequest struct {
	Question      string     `json:"question" binding:"required"`
	Options       []string   `json:"options" binding:"required"`
	Type          string     `json:"type"`
	CorrectOption *int       `json:"correct_option"`
	AllowMultiple bool       `json:"allow_multiple"`
	IsAnonymous   bool       `json:"is_anonymous"`
	ClosesAt      *time.Time `json:"closes_at"`
}

type createPostRequest struct {
	Category                string       `json:"category" binding:"required"`
	Title                   string       `json:"title"`
	Body                    string       `json:"body" binding:"required"`
	Images                  []string     `json:"images"`
	IsAnonymous             bool         `json:"is_anonymous"`
	EnableAnonymousComments bool         `json:"enable_anonymous_comments"`
	LostOrFound             string       `json:"lost_or_found"`
	ItemDescription         string       `json:"item_description"`
	Location                string       `json:"location"`
	EventName               string       `json:"event_name"`
	EventDate               *time.Time   `json:"event_date"`
	EventLocation           string       `json:"event_location"`
	Poll                    *pollRequest `json:"poll"`
}

// Create 发帖
// POST /api/posts
func (h *Handler) Create(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "malformed request body")
		return
	}

	input := posts.CreateInput{
		AuthorID:                middleware.CurrentUserID(c),
		Category:                req.Category,
		Title:                   req.Title,
		Body:                    req.Body,
		ImagesBase64:            req.Images,
		IsAnonymous:             req.IsAnonymous,
		EnableAnonymousComments: req.EnableAnonymousComments,
		LostOrFound:             req.LostOrFound,
		ItemDescription:         req.ItemDescription,
		Location:                req.Location,
		EventName:               req.EventName,
		EventDate:               req.EventDate,
		EventLocation:           req.EventLocation,
	}
	if req.Poll != nil {
		input.Poll = &posts.PollInput{
			Question:      req.Poll.Question,
			Options:       req.Poll.Options,
			Type:          req.Poll.Type,
			CorrectOption: req.Poll.CorrectOption,
			AllowMultiple: req.Poll.AllowMultiple,
			IsAnonymous:   req.Poll.IsAnonymous,
			ClosesAt:      req.Poll.ClosesAt,
		}
	}

	view, err := h.posts.Create(c.Request.Context(), input)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, view)
}

// List 帖子列表
// GET /api/posts
func (h *Handler) List(c *gin.Context) {
	filter := postsrepo.ListFilter{
		Category: c.Query("category"),
		Limit:    intQuery(c, "limit", 20),
		Offset:   intQuery(c, "offset", 0),
	}
	if authorID, err := strconv.ParseUint(c.Query("author_id"), 10, 64); err == nil {
		filter.AuthorID = uint(authorID)
	}

	views, err := h.posts.List(c.Request.Context(), filter, middleware.CurrentUserID(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, views)
}

// Get 获取单个帖子
// GET /api/posts/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	view, err := h.posts.Get(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, view)
}

// Delete 删帖
// DELETE /api/posts/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.posts.Delete(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "post deleted", nil)
}

// ToggleLike 帖子点赞开关
// POST /api/posts/:id/like
func (h *Handler) ToggleLike(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	liked, likes, err := h.posts.ToggleLike(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, gin.H{"liked": liked, "likes_count": likes})
}

type votePollRequest struct {
	OptionIndices []int `json:"option_indices" binding:"required"`
}

// VotePoll 投票
// POST /api/polls/:id/vote
func (h *Handler) VotePoll(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req votePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "option_indices is required")
		return
	}

	result, err := h.posts.VotePoll(c.Request.Context(), id, middleware.CurrentUserID(c), req.OptionIndices)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, result)
}

type createCommentRequest struct {
	Body        string `json:"body" binding:"required"`
	ParentID    *uint  `json:"parent_id"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// CreateComment 发表评论
// POST /api/posts/:id/comments
func (h *Handler) CreateComment(c *gin.Context) {
	postID, ok := idParam(c)
	if !ok {
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "malformed request body")
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), comments.CreateInput{
		PostID:      postID,
		AuthorID:    middleware.CurrentUserID(c),
		ParentID:    req.ParentID,
		Body:        req.Body,
		IsAnonymous: req.IsAnonymous,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, comment)
}

// ListComments 帖子评论列表
// GET /api/posts/:id/comments
func (h *Handler) ListComments(c *gin.Context) {
	postID, ok := idParam(c)
	if !ok {
		return
	}

	views, err := h.comments.ListByPost(c.Request.Context(), postID, h.resolveName(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, views)
}

// DeleteComment 删除自己的评论
// DELETE /api/comments/:id
func (h *Handler) DeleteComment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.comments.Delete(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccessMessage(c, "comment deleted", nil)
}

// ToggleCommentLike 评论点赞开关
// POST /api/comments/:id/like
func (h *Handler) ToggleCommentLike(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	liked, err := h.comments.ToggleLike(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	common.RespondSuccess(c, gin.H{"liked": liked})
}

// resolveName 评论作者名解析，走带缓存的公开资料
func (h *Handler) resolveName(c *gin.Context) func(userID uint) string {
	return func(userID uint) string {
		profile, err := h.users.GetPublic(c.Request.Context(), userID)
		if err != nil {
			return ""
		}
		return profile.Name
	}
}

// idParam 解析路径里的数字 ID，失败时直接响应 400
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		common.RespondError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// intQuery 解析查询参数里的整数，缺省或非法时用默认值
func intQuery(c *gin.Context, name string, fallback int) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return value
}
