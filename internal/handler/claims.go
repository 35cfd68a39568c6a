package handler

import (
	"github.com/gin-gonic/gin"

	"ganttboard/internal/util"
)

// ClaimsFrom 返回认证中间件写入的 claims；未认证的路由返回空 claims
func ClaimsFrom(c *gin.Context) *util.Claims {
	if v, ok := c.Get(ContextUserKey); ok {
		if claims, ok := v.(*util.Claims); ok {
			return claims
		}
	}
	return &util.Claims{}
}
