package httpserver

import (
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ganttboard/internal/handler"
	"ganttboard/internal/service/auth"
	"ganttboard/internal/util"
	"ganttboard/pkg/logger"
	"ganttboard/pkg/metrics"
	"ganttboard/pkg/rbac"
	"ganttboard/pkg/trace"
)

// TraceMiddleware 读取或生成 X-Trace-ID，写入 request context 和响应头
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := trace.FromHeader(c.GetHeader(trace.HeaderName()))
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.HeaderName(), traceID)
		c.Next()
	}
}

// RequestLogMiddleware 请求日志 + 延迟指标
func RequestLogMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(c.Request.Method, route, strconv.Itoa(status), latency)

		logger.WithTrace(c.Request.Context(), log).Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// RecoveryMiddleware 将 panic 转为 500 envelope
func RecoveryMiddleware(resp handler.Responder, log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.WithTrace(c.Request.Context(), log).Error("Panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
		)
		resp.ServerError(c, "Internal server error", nil)
	})
}

// CORSMiddleware 只回显配置中允许的 Origin
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && slices.Contains(allowedOrigins, origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		// Handle preflight
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// AuthMiddleware 校验 Bearer token，claims 存入 gin context
func AuthMiddleware(svc *auth.Service, resp handler.Responder, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.ExtractToken(c.Request)
		if token == "" {
			resp.Fail(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := svc.Verify(token)
		if err != nil {
			logger.WithTrace(c.Request.Context(), log).Info("Rejected token",
				zap.String("path", c.Request.URL.Path),
				zap.Bool("expired", util.IsExpired(err)),
				zap.Error(err),
			)
			resp.Fail(c, http.StatusUnauthorized, auth.ErrUnauthorized.Error())
			return
		}

		// store claims in context so handlers can use them
		c.Set(handler.ContextUserKey, claims)

		c.Next()
	}
}

// RequirePermission 中间件：要求用户具有指定权限
func RequirePermission(permission string, resp handler.Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := handler.ClaimsFrom(c)
		if claims.UserID == 0 {
			resp.Fail(c, http.StatusUnauthorized, "Authentication required")
			return
		}

		if err := rbac.CheckPermission(claims.UserID, claims.IsAdmin, permission); err != nil {
			resp.Fail(c, http.StatusForbidden, err.Error())
			return
		}

		c.Next()
	}
}
