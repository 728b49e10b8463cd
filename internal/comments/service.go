package comments

import (
	"context"
	"errors"
	"fmt"

	"github.com/uninet-app/uninet/database/models"
	commentsrepo "github.com/uninet-app/uninet/database/repo/comments"
	postsrepo "github.com/uninet-app/uninet/database/repo/posts"
	"github.com/uninet-app/uninet/internal/apperr"
	"gorm.io/gorm"
)

// Service 评论服务，负责匿名化名序号分配和评论生命周期
type Service struct {
	repo  *commentsrepo.Repository
	posts *postsrepo.Repository
}

// NewService 创建评论服务
func NewService(repo *commentsrepo.Repository, posts *postsrepo.Repository) *Service {
	return &Service{repo: repo, posts: posts}
}

// ResolveIndex 计算评论者在帖内的化名序号
// 每次都从当前评论集合推导，没有持久化的计数器：
//  1. 匿名帖的作者本人拿保留序号 0
//  2. 同一作者复用既有序号（整个评论串里化名稳定）
//  3. 新作者拿 max(既有序号>0) + 1
func ResolveIndex(post *models.Post, authorID uint, existing []models.Comment) int {
	if post.IsAnonymous && authorID == post.AuthorID {
		return models.AnonymousAuthorIndex
	}

	maxIndex := 0
	for _, c := range existing {
		if c.AnonymousIndex == nil {
			continue
		}
		if c.AuthorID == authorID && *c.AnonymousIndex > 0 {
			return *c.AnonymousIndex
		}
		if *c.AnonymousIndex > maxIndex {
			maxIndex = *c.AnonymousIndex
		}
	}
	return maxIndex + 1
}

// DisplayName 把化名序号渲染成展示名
func DisplayName(index int) string {
	if index == models.AnonymousAuthorIndex {
		return "Author"
	}
	return fmt.Sprintf("Anonymous #%d", index)
}

// CreateInput 创建评论的输入
type CreateInput struct {
	PostID      uint
	AuthorID    uint
	ParentID    *uint
	Body        string
	IsAnonymous bool
}

// Create 创建评论
// 帖子开启了强制匿名评论时无条件匿名；
// 序号分配在帖子行锁内完成，同帖并发的首次匿名评论不会拿到相同序号
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Comment, error) {
	if input.Body == "" {
		return nil, apperr.NewValidation("comment body must not be empty")
	}

	var created *models.Comment
	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 计数更新先行，借帖子行的写锁串行化同帖的序号分配
		res := tx.Model(&models.Post{}).Where("id = ?", input.PostID).
			UpdateColumn("comments_count", gorm.Expr("comments_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}

		var post models.Post
		if err := tx.First(&post, input.PostID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrNotFound
			}
			return err
		}

		anonymous := input.IsAnonymous || post.EnableAnonymousComments

		comment := &models.Comment{
			PostID:      input.PostID,
			AuthorID:    input.AuthorID,
			ParentID:    input.ParentID,
			Body:        input.Body,
			IsAnonymous: anonymous,
		}

		if anonymous {
			existing, err := s.repo.ListAnonymousByPost(tx, input.PostID)
			if err != nil {
				return err
			}
			index := ResolveIndex(&post, input.AuthorID, existing)
			comment.AnonymousIndex = &index
		}

		if err := s.repo.CreateWithTx(tx, comment); err != nil {
			return err
		}

		created = comment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// CommentView 对外展示的评论
type CommentView struct {
	ID          uint   `json:"id"`
	PostID      uint   `json:"post_id"`
	ParentID    *uint  `json:"parent_id,omitempty"`
	Body        string `json:"body"`
	AuthorName  string `json:"author_name"`
	AuthorID    *uint  `json:"author_id,omitempty"`
	IsAnonymous bool   `json:"is_anonymous"`
	IsDeleted   bool   `json:"is_deleted"`
	LikesCount  int    `json:"likes_count"`
	CreatedAt   string `json:"created_at"`
}

// ListByPost 列出帖子的评论，匿名评论隐藏真实作者
func (s *Service) ListByPost(ctx context.Context, postID uint, resolveName func(userID uint) string) ([]CommentView, error) {
	comments, err := s.repo.ListByPost(postID)
	if err != nil {
		return nil, err
	}

	views := make([]CommentView, 0, len(comments))
	for i := range comments {
		views = append(views, s.render(&comments[i], resolveName))
	}
	return views, nil
}

// render 渲染单条评论，软删除的只留占位
func (s *Service) render(c *models.Comment, resolveName func(userID uint) string) CommentView {
	view := CommentView{
		ID:          c.ID,
		PostID:      c.PostID,
		ParentID:    c.ParentID,
		IsAnonymous: c.IsAnonymous,
		IsDeleted:   c.IsDeleted,
		LikesCount:  c.LikesCount,
		CreatedAt:   c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	if c.IsDeleted {
		view.Body = "[deleted]"
		return view
	}

	view.Body = c.Body
	if c.IsAnonymous {
		index := 0
		if c.AnonymousIndex != nil {
			index = *c.AnonymousIndex
		}
		view.AuthorName = DisplayName(index)
	} else {
		authorID := c.AuthorID
		view.AuthorID = &authorID
		if resolveName != nil {
			view.AuthorName = resolveName(c.AuthorID)
		}
	}
	return view
}

// Delete 作者软删除自己的评论
func (s *Service) Delete(ctx context.Context, commentID, authorID uint) error {
	err := s.repo.MarkDeleted(commentID, authorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}
	return err
}

// ToggleLike 评论点赞开关，返回点赞后的状态
func (s *Service) ToggleLike(ctx context.Context, commentID, userID uint) (liked bool, err error) {
	if _, err := s.repo.GetByID(commentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperr.ErrNotFound
		}
		return false, err
	}

	_, err = s.repo.GetLike(commentID, userID)
	switch {
	case err == nil:
		if err := s.repo.DeleteLike(commentID, userID); err != nil {
			return false, err
		}
		return false, s.repo.AddLikes(commentID, -1)
	case errors.Is(err, gorm.ErrRecordNotFound):
		createErr := s.repo.CreateLike(&models.CommentLike{CommentID: commentID, UserID: userID})
		if errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return true, nil
		}
		if createErr != nil {
			return false, createErr
		}
		return true, s.repo.AddLikes(commentID, 1)
	default:
		return false, err
	}
}
