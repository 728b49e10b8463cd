package apperr

import (
	"errors"
	"fmt"
)

// 领域错误类型
// 所有错误在 HTTP handler 边界被翻译成用户可见的响应，不向上传播

// InvalidImageError 图片内容非法（格式无法识别、损坏、尺寸过小）
type InvalidImageError struct {
	Reason string
	Item   int // 批量处理时出错的条目下标，单条处理为 0
}

func (e *InvalidImageError) Error() string {
	return fmt.Sprintf("invalid image (item %d): %s", e.Item, e.Reason)
}

// NewInvalidImage 创建图片非法错误
func NewInvalidImage(reason string) *InvalidImageError {
	return &InvalidImageError{Reason: reason}
}

// ValidationError 请求参数非法（条目数量超限、单文件超大）
// 在任何处理开始前抛出，保证零副作用
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidation 创建参数校验错误
func NewValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// StorageError 存储写入失败（磁盘满、权限不足）
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %v", e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// InvalidOperation 业务规则拒绝（自己给自己点赞等），在任何状态变更前返回
var ErrInvalidOperation = errors.New("invalid operation")

// ErrNotFound 实体不存在
var ErrNotFound = errors.New("not found")

// ErrForbidden 无权操作他人的实体
var ErrForbidden = errors.New("permission denied")

// IsInvalidImage 判断是否为图片非法错误
func IsInvalidImage(err error) bool {
	var target *InvalidImageError
	return errors.As(err, &target)
}

// IsValidation 判断是否为参数校验错误
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsStorage 判断是否为存储错误
func IsStorage(err error) bool {
	var target *StorageError
	return errors.As(err, &target)
}
