package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uninet-app/uninet/internal/apperr"
)

type Response struct {
	Status string      `json:"status"`
	Msg    string      `json:"msg"`
	Data   interface{} `json:"data,omitempty"`
}

func Respond(c *gin.Context, httpStatus int, status string, message string, data interface{}) {
	c.JSON(httpStatus, Response{
		Status: status,
		Msg:    message,
		Data:   data,
	})
}

// RespondSuccess sends a success response with data.
func RespondSuccess(c *gin.Context, data interface{}) {
	Respond(c, http.StatusOK, "success", "", data)
}

// RespondSuccessMessage sends a success response with message and data.
func RespondSuccessMessage(c *gin.Context, message string, data interface{}) {
	Respond(c, http.StatusOK, "success", message, data)
}

// RespondError sends an error response with message.
func RespondError(c *gin.Context, httpStatus int, message string) {
	Respond(c, httpStatus, "error", message, nil)
}

// RespondAppError 把领域错误翻译成 HTTP 响应
// 未识别的错误按 500 处理，细节不外泄
func RespondAppError(c *gin.Context, err error) {
	switch {
	case apperr.IsValidation(err) || apperr.IsInvalidImage(err):
		RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrInvalidOperation):
		RespondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrForbidden):
		RespondError(c, http.StatusForbidden, "permission denied")
	case apperr.IsStorage(err):
		RespondError(c, http.StatusInternalServerError, "storage unavailable")
	default:
		RespondError(c, http.StatusInternalServerError, "internal server error")
	}
}
