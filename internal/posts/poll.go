package posts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/uninet-app/uninet/database/models"
	"github.com/uninet-app/uninet/internal/apperr"
	"gorm.io/gorm"
)

// 投票选项数量限制
const (
	pollMinOptions = 2
	pollMaxOptions = 10
)

// PollInput 随帖创建投票的输入
type PollInput struct {
	Question      string
	Options       []string
	Type          string
	CorrectOption *int
	AllowMultiple bool
	IsAnonymous   bool
	ClosesAt      *time.Time
}

// pollOption 落库的选项格式
type pollOption struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// PollOptionView 对外展示的投票选项
type PollOptionView struct {
	Text       string  `json:"text"`
	Votes      int     `json:"votes"`
	Percentage float64 `json:"percentage"`
}

// PollView 对外展示的投票
type PollView struct {
	ID            uint             `json:"id"`
	PostID        uint             `json:"post_id"`
	Question      string           `json:"question"`
	Options       []PollOptionView `json:"options"`
	Type          string           `json:"type"`
	CorrectOption *int             `json:"correct_option,omitempty"`
	AllowMultiple bool             `json:"allow_multiple"`
	IsAnonymous   bool             `json:"is_anonymous"`
	ClosesAt      *time.Time       `json:"closes_at,omitempty"`
	TotalVotes    int              `json:"total_votes"`
	IsClosed      bool             `json:"is_closed"`
	UserVotes     []int            `json:"user_votes"`
}

// VoteResult 投票结果，重复投票按已标记的空操作处理
type VoteResult struct {
	AlreadyVoted bool  `json:"already_voted"`
	TotalVotes   int   `json:"total_votes"`
	IsCorrect    *bool `json:"is_correct,omitempty"`
}

// validatePoll 投票输入校验，在发帖前执行以保证零副作用
func validatePoll(input *PollInput) error {
	if input.Question == "" {
		return apperr.NewValidation("poll question must not be empty")
	}
	if len(input.Options) < pollMinOptions || len(input.Options) > pollMaxOptions {
		return apperr.NewValidation("poll must have between %d and %d options", pollMinOptions, pollMaxOptions)
	}
	for i, option := range input.Options {
		if option == "" {
			return apperr.NewValidation("poll option %d must not be empty", i)
		}
	}

	switch input.Type {
	case "", models.PollTypeRegular:
	case models.PollTypeQuiz:
		if input.CorrectOption == nil {
			return apperr.NewValidation("quiz poll requires a correct option")
		}
		if *input.CorrectOption < 0 || *input.CorrectOption >= len(input.Options) {
			return apperr.NewValidation("correct option index out of range: %d", *input.CorrectOption)
		}
	default:
		return apperr.NewValidation("unknown poll type: %s", input.Type)
	}
	return nil
}

// buildPoll 把输入转换成落库模型
func buildPoll(postID uint, input *PollInput) (*models.Poll, error) {
	options := make([]pollOption, 0, len(input.Options))
	for _, text := range input.Options {
		options = append(options, pollOption{Text: text})
	}
	encoded, err := json.Marshal(options)
	if err != nil {
		return nil, err
	}

	pollType := input.Type
	if pollType == "" {
		pollType = models.PollTypeRegular
	}
	correct := input.CorrectOption
	if pollType != models.PollTypeQuiz {
		correct = nil
	}

	return &models.Poll{
		PostID:        postID,
		Question:      input.Question,
		Options:       string(encoded),
		Type:          pollType,
		CorrectOption: correct,
		AllowMultiple: input.AllowMultiple,
		IsAnonymous:   input.IsAnonymous,
		ClosesAt:      input.ClosesAt,
	}, nil
}

// renderPoll 渲染投票视图，带观察者自己的选择
func (s *Service) renderPoll(poll *models.Poll, viewerID uint) *PollView {
	var options []pollOption
	if err := json.Unmarshal([]byte(poll.Options), &options); err != nil {
		options = nil
	}

	optionViews := make([]PollOptionView, 0, len(options))
	for _, option := range options {
		percentage := 0.0
		if poll.TotalVotes > 0 {
			percentage = math.Round(float64(option.Votes)/float64(poll.TotalVotes)*1000) / 10
		}
		optionViews = append(optionViews, PollOptionView{
			Text:       option.Text,
			Votes:      option.Votes,
			Percentage: percentage,
		})
	}

	userVotes := []int{}
	if vote, err := s.repo.GetPollVote(poll.ID, viewerID); err == nil {
		if err := json.Unmarshal([]byte(vote.OptionIndices), &userVotes); err != nil {
			userVotes = []int{}
		}
	}

	return &PollView{
		ID:            poll.ID,
		PostID:        poll.PostID,
		Question:      poll.Question,
		Options:       optionViews,
		Type:          poll.Type,
		CorrectOption: poll.CorrectOption,
		AllowMultiple: poll.AllowMultiple,
		IsAnonymous:   poll.IsAnonymous,
		ClosesAt:      poll.ClosesAt,
		TotalVotes:    poll.TotalVotes,
		IsClosed:      poll.ClosesAt != nil && poll.ClosesAt.Before(time.Now()),
		UserVotes:     userVotes,
	}
}

// VotePoll 投票，计数更新和投票记录在同一事务里完成
func (s *Service) VotePoll(ctx context.Context, pollID, userID uint, indices []int) (*VoteResult, error) {
	if len(indices) == 0 {
		return nil, apperr.NewValidation("option_indices must not be empty")
	}

	result := &VoteResult{}
	err := s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var poll models.Poll
		if err := tx.First(&poll, pollID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrNotFound
			}
			return err
		}

		if poll.ClosesAt != nil && poll.ClosesAt.Before(time.Now()) {
			return fmt.Errorf("%w: poll is closed", apperr.ErrInvalidOperation)
		}

		var existing models.PollVote
		err := tx.Where("poll_id = ? AND user_id = ?", pollID, userID).First(&existing).Error
		if err == nil {
			result.AlreadyVoted = true
			result.TotalVotes = poll.TotalVotes
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if !poll.AllowMultiple && len(indices) > 1 {
			return apperr.NewValidation("poll does not allow multiple choices")
		}

		var options []pollOption
		if err := json.Unmarshal([]byte(poll.Options), &options); err != nil {
			return err
		}
		for _, idx := range indices {
			if idx < 0 || idx >= len(options) {
				return apperr.NewValidation("option index out of range: %d", idx)
			}
		}
		for _, idx := range indices {
			options[idx].Votes++
		}

		encodedOptions, err := json.Marshal(options)
		if err != nil {
			return err
		}
		encodedIndices, err := json.Marshal(indices)
		if err != nil {
			return err
		}

		createErr := tx.Create(&models.PollVote{
			PollID:        pollID,
			UserID:        userID,
			OptionIndices: string(encodedIndices),
		}).Error
		if errors.Is(createErr, gorm.ErrDuplicatedKey) {
			result.AlreadyVoted = true
			result.TotalVotes = poll.TotalVotes
			return nil
		}
		if createErr != nil {
			return createErr
		}

		if err := tx.Model(&models.Poll{}).Where("id = ?", poll.ID).Updates(map[string]interface{}{
			"options":     string(encodedOptions),
			"total_votes": gorm.Expr("total_votes + 1"),
		}).Error; err != nil {
			return err
		}

		result.TotalVotes = poll.TotalVotes + 1
		if poll.Type == models.PollTypeQuiz && poll.CorrectOption != nil {
			correct := indices[0] == *poll.CorrectOption
			result.IsCorrect = &correct
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
