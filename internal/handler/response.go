package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ganttboard/internal/repository"
	"ganttboard/internal/service/auth"
	"ganttboard/pkg/rbac"
)

// Envelope 所有接口统一的响应格式
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CreatedID 创建接口返回的 data
type CreatedID struct {
	ID int `json:"id"`
}

// Responder 负责写响应；生产环境下 500 不返回内部错误信息
type Responder struct {
	Production bool
}

func (Responder) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func (Responder) Message(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

func (Responder) Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message})
}

func (r Responder) ServerError(c *gin.Context, message string, err error) {
	env := Envelope{Success: false, Message: message}
	if !r.Production && err != nil {
		env.Error = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, env)
}

// StatusFor 将各层的哨兵错误映射为 HTTP 状态码
func StatusFor(err error) int {
	var denied *rbac.PermissionDeniedError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrForeignKey):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUnauthorized),
		errors.Is(err, auth.ErrWrongPassword):
		return http.StatusUnauthorized
	case errors.As(err, &denied):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrLoginThrottled):
		return http.StatusTooManyRequests
	case errors.Is(err, auth.ErrMissingPassword):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseID 解析路径参数，非数字按不存在处理
func parseID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
