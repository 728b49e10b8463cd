package posts

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/uninet-app/uninet/database/models"
	postsrepo "github.com/uninet-app/uninet/database/repo/posts"
	usersrepo "github.com/uninet-app/uninet/database/repo/users"
	"github.com/uninet-app/uninet/internal/apperr"
	"github.com/uninet-app/uninet/internal/media"
	"gorm.io/gorm"
)

var validCategories = map[string]bool{
	models.PostCategoryGeneral:     true,
	models.PostCategoryConfessions: true,
	models.PostCategoryLostFound:   true,
	models.PostCategoryNews:        true,
	models.PostCategoryEvents:      true,
}

// Service 帖子服务
type Service struct {
	repo      *postsrepo.Repository
	users     *usersrepo.Repository
	uploads   *media.UploadService
	store     *media.Store
	maxImages int
}

// NewService 创建帖子服务
func NewService(repo *postsrepo.Repository, users *usersrepo.Repository, uploads *media.UploadService, store *media.Store, maxImages int) *Service {
	if maxImages <= 0 {
		maxImages = 3
	}
	return &Service{repo: repo, users: users, uploads: uploads, store: store, maxImages: maxImages}
}

// CreateInput 创建帖子的输入，图片为 base64（可带 data-URI 前缀）
type CreateInput struct {
	AuthorID                uint
	Category                string
	Title                   string
	Body                    string
	ImagesBase64            []string
	IsAnonymous             bool
	EnableAnonymousComments bool

	LostOrFound     string
	ItemDescription string
	Location        string

	EventName     string
	EventDate     *time.Time
	EventLocation string

	Poll *PollInput
}

// Create 创建帖子，图片批次全部成功或全部回滚
func (s *Service) Create(ctx context.Context, input CreateInput) (*View, error) {
	if !validCategories[input.Category] {
		return nil, apperr.NewValidation("unknown post category: %s", input.Category)
	}
	if input.Body == "" {
		return nil, apperr.NewValidation("post body must not be empty")
	}
	if input.Poll != nil {
		if err := validatePoll(input.Poll); err != nil {
			return nil, err
		}
	}

	metas, err := s.uploads.IngestBase64(ctx, input.ImagesBase64, s.maxImages)
	if err != nil {
		return nil, err
	}

	encoded, err := media.EncodeBatch(metas)
	if err != nil {
		s.store.DeleteBatch(ctx, media.References(metas))
		return nil, err
	}

	post := &models.Post{
		AuthorID:                input.AuthorID,
		Category:                input.Category,
		Title:                   input.Title,
		Body:                    input.Body,
		Images:                  encoded,
		IsAnonymous:             input.IsAnonymous,
		EnableAnonymousComments: input.EnableAnonymousComments,
		LostOrFound:             input.LostOrFound,
		ItemDescription:         input.ItemDescription,
		Location:                input.Location,
		EventName:               input.EventName,
		EventDate:               input.EventDate,
		EventLocation:           input.EventLocation,
	}

	if err := s.repo.Create(post); err != nil {
		// 帖子没建成，图片不能留在存储里
		s.store.DeleteBatch(ctx, media.References(metas))
		return nil, err
	}

	if input.Poll != nil {
		poll, perr := buildPoll(post.ID, input.Poll)
		if perr == nil {
			perr = s.repo.CreatePoll(poll)
		}
		if perr != nil {
			// 帖子已经存在，投票失败不回滚帖子
			log.Printf("Failed to create poll for post %d: %v", post.ID, perr)
		}
	}

	return s.renderOne(post, input.AuthorID), nil
}

// View 对外展示的帖子
type View struct {
	*models.Post
	Images     []media.ImageMeta `json:"images"`
	AuthorName string            `json:"author_name"`
	Poll       *PollView         `json:"poll,omitempty"`
}

// renderOne 渲染帖子，匿名帖隐藏作者
func (s *Service) renderOne(post *models.Post, viewerID uint) *View {
	metas, err := media.DecodeBatch(post.Images)
	if err != nil {
		metas = nil
	}

	view := &View{Post: post, Images: s.store.ResolveURLs(metas)}
	if post.IsAnonymous {
		view.AuthorName = "Anonymous"
		view.Post.AuthorID = 0
	} else if author, err := s.users.GetByID(post.AuthorID); err == nil {
		view.AuthorName = author.Name
	}
	if poll, err := s.repo.GetPollByPostID(post.ID); err == nil {
		view.Poll = s.renderPoll(poll, viewerID)
	}
	return view
}

// Get 获取帖子并累加浏览数
func (s *Service) Get(ctx context.Context, id, viewerID uint) (*View, error) {
	post, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	if err := s.repo.AddViews(id, 1); err == nil {
		post.ViewsCount++
	}
	return s.renderOne(post, viewerID), nil
}

// List 帖子列表
func (s *Service) List(ctx context.Context, filter postsrepo.ListFilter, viewerID uint) ([]*View, error) {
	posts, err := s.repo.List(filter)
	if err != nil {
		return nil, err
	}
	views := make([]*View, 0, len(posts))
	for i := range posts {
		views = append(views, s.renderOne(&posts[i], viewerID))
	}
	return views, nil
}

// Delete 作者删除自己的帖子，随帖删除图片批次
func (s *Service) Delete(ctx context.Context, id, authorID uint) error {
	post, err := s.repo.DeleteByIDAndAuthor(id, authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}
		return err
	}

	if metas, derr := media.DecodeBatch(post.Images); derr == nil && len(metas) > 0 {
		s.store.DeleteBatch(ctx, media.References(metas))
	}
	return nil
}

// ToggleLike 帖子点赞开关，返回点赞状态和最新点赞数
func (s *Service) ToggleLike(ctx context.Context, postID, userID uint) (liked bool, likes int, err error) {
	if _, err := s.repo.GetByID(postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, 0, apperr.ErrNotFound
		}
		return false, 0, err
	}

	_, err = s.repo.GetLike(postID, userID)
	switch {
	case err == nil:
		if err := s.repo.DeleteLike(postID, userID); err != nil {
			return false, 0, err
		}
		likes, err = s.repo.AddLikes(postID, -1)
		return false, likes, err
	case errors.Is(err, gorm.ErrRecordNotFound):
		createErr := s.repo.CreateLike(&models.PostLike{PostID: postID, UserID: userID})
		if errors.Is(createErr, gorm.ErrDuplicatedKey) {
			post, gerr := s.repo.GetByID(postID)
			if gerr != nil {
				return true, 0, gerr
			}
			return true, post.LikesCount, nil
		}
		if createErr != nil {
			return false, 0, createErr
		}
		likes, err = s.repo.AddLikes(postID, 1)
		return true, likes, err
	default:
		return false, 0, err
	}
}
