package users

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/uninet-app/uninet/cache"
	"github.com/uninet-app/uninet/database/models"
	usersrepo "github.com/uninet-app/uninet/database/repo/users"
	"github.com/uninet-app/uninet/internal/apperr"
	"github.com/uninet-app/uninet/internal/media"
	"gorm.io/gorm"
)

// profileCacheTTL 公开资料缓存时长，资料更新后主动失效
const profileCacheTTL = 5 * time.Minute

// Service 用户资料服务
type Service struct {
	repo    *usersrepo.Repository
	uploads *media.UploadService
	store   *media.Store
	cache   cache.Cache
}

// NewService 创建用户服务
func NewService(repo *usersrepo.Repository, uploads *media.UploadService, store *media.Store, c cache.Cache) *Service {
	return &Service{repo: repo, uploads: uploads, store: store, cache: c}
}

// Get 获取用户
func (s *Service) Get(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetPublic 获取公开资料，带缓存
func (s *Service) GetPublic(ctx context.Context, id uint) (*models.PublicProfile, error) {
	key := cache.Profile.BuildID(id)
	if s.cache != nil {
		var cached models.PublicProfile
		if err := s.cache.Get(key, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := user.Public()
	profile.Avatar = s.resolveAvatar(profile.Avatar)
	if s.cache != nil {
		_ = s.cache.Set(key, &profile, profileCacheTTL)
	}
	return &profile, nil
}

// UpdateInput 资料更新输入，nil 字段保持不变
type UpdateInput struct {
	Name           *string  `json:"name"`
	Age            *int     `json:"age"`
	Bio            *string  `json:"bio"`
	University     *string  `json:"university"`
	Institute      *string  `json:"institute"`
	Course         *int     `json:"course"`
	StudyGroup     *string  `json:"group"`
	ShowInDating   *bool    `json:"show_in_dating"`
	HideCourseInfo *bool    `json:"hide_course_group"`
	Interests      []string `json:"interests"`
	AvatarBase64   *string  `json:"avatar_base64"`
}

// Update 更新资料，换头像时删旧存新
func (s *Service) Update(ctx context.Context, id uint, input UpdateInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperr.NewValidation("name must not be empty")
		}
		fields["name"] = *input.Name
	}
	if input.Age != nil {
		if *input.Age < 0 || *input.Age > 120 {
			return nil, apperr.NewValidation("age out of range")
		}
		fields["age"] = *input.Age
	}
	if input.Bio != nil {
		fields["bio"] = *input.Bio
	}
	if input.University != nil {
		fields["university"] = *input.University
	}
	if input.Institute != nil {
		fields["institute"] = *input.Institute
	}
	if input.Course != nil {
		fields["course"] = *input.Course
	}
	if input.StudyGroup != nil {
		fields["study_group"] = *input.StudyGroup
	}
	if input.ShowInDating != nil {
		fields["show_in_dating"] = *input.ShowInDating
	}
	if input.HideCourseInfo != nil {
		fields["hide_course_info"] = *input.HideCourseInfo
	}
	if input.Interests != nil {
		encoded, err := json.Marshal(input.Interests)
		if err != nil {
			return nil, err
		}
		fields["interests"] = string(encoded)
	}

	// 旧头像在字段更新成功后才删，更新失败时回滚新上传
	var staleAvatar, freshAvatar string
	if input.AvatarBase64 != nil {
		if *input.AvatarBase64 == "" {
			staleAvatar = user.Avatar
			fields["avatar"] = ""
		} else {
			metas, err := s.uploads.IngestBase64(ctx, []string{*input.AvatarBase64}, 1)
			if err != nil {
				return nil, err
			}
			staleAvatar = user.Avatar
			freshAvatar = metas[0].URL
			fields["avatar"] = freshAvatar
		}
	}

	if len(fields) == 0 {
		return user, nil
	}

	updated, err := s.repo.UpdateFields(id, fields)
	if err != nil {
		if freshAvatar != "" {
			s.store.Delete(ctx, freshAvatar)
		}
		return nil, err
	}
	if staleAvatar != "" {
		s.store.Delete(ctx, staleAvatar)
	}

	if s.cache != nil {
		_ = s.cache.Delete(cache.Profile.BuildID(id))
	}
	return updated, nil
}

// Interests 解析用户的兴趣标签
func (s *Service) Interests(user *models.User) []string {
	if user.Interests == "" {
		return []string{}
	}
	var interests []string
	if err := json.Unmarshal([]byte(user.Interests), &interests); err != nil {
		return []string{}
	}
	return interests
}

// resolveAvatar 把裸头像标识符解析成完整公开地址
func (s *Service) resolveAvatar(ref string) string {
	if ref == "" {
		return ""
	}
	resolved := s.store.ResolveURLs([]media.ImageMeta{{URL: ref}})
	return resolved[0].URL
}
