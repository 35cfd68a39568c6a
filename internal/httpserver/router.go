package httpserver

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ganttboard/internal/handler"
	"ganttboard/internal/service/auth"
	"ganttboard/pkg/rbac"
)

// ReadinessCheck /readyz 依次执行的检查
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Options struct {
	AuthHandler    *handler.AuthHandler
	ProjectHandler *handler.ProjectHandler
	TaskHandler    *handler.TaskHandler
	AuthService    *auth.Service
	Responder      handler.Responder
	Logger         *zap.Logger

	ReadinessChecks []ReadinessCheck
	AllowedOrigins  []string
	TrustedProxies  []string
	StaticDir       string
	// 登录接口每个 IP 的限流
	AuthRequestsPerMinute int
	AuthBurst             int
}

type Router struct {
	Engine *gin.Engine
}

func NewRouter(opts Options) *Router {
	resp := opts.Responder
	r := gin.New()
	// 只信任配置的代理转发的 X-Forwarded-For
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		opts.Logger.Error("Invalid trusted proxies, trusting none", zap.Strings("trusted_proxies", opts.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(
		TraceMiddleware(),
		RequestLogMiddleware(opts.Logger),
		RecoveryMiddleware(resp, opts.Logger),
		CORSMiddleware(opts.AllowedOrigins),
	)

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		for _, check := range opts.ReadinessChecks {
			if err := check.Check(ctx); err != nil {
				c.JSON(500, gin.H{"status": check.Name + "_not_ready", "error": err.Error()})
				return
			}
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	api.GET("/test", func(c *gin.Context) {
		resp.Message(c, http.StatusOK, "API is working!", nil)
	})

	// Public
	limiter := NewRateLimiter(opts.AuthRequestsPerMinute, opts.AuthBurst)
	authGroup := api.Group("/auth")
	authGroup.POST("/login", limiter.Middleware(resp), opts.AuthHandler.Login)

	requireAuth := AuthMiddleware(opts.AuthService, resp, opts.Logger)

	// Protected
	me := authGroup.Group("")
	me.Use(requireAuth)
	{
		me.GET("/me", opts.AuthHandler.Me)
		me.POST("/change-password", opts.AuthHandler.ChangePassword)
	}

	projects := api.Group("/projects")
	projects.Use(requireAuth)
	{
		p := opts.ProjectHandler
		projects.GET("", RequirePermission(rbac.PermissionReadProject, resp), p.List)
		projects.GET("/:id", RequirePermission(rbac.PermissionReadProject, resp), p.Get)
		projects.POST("", RequirePermission(rbac.PermissionCreateProject, resp), p.Create)
		projects.PUT("/:id", RequirePermission(rbac.PermissionUpdateProject, resp), p.Update)
		projects.DELETE("/:id", RequirePermission(rbac.PermissionDeleteProject, resp), p.Delete)
	}

	tasks := api.Group("/tasks")
	tasks.Use(requireAuth)
	{
		t := opts.TaskHandler
		tasks.GET("", RequirePermission(rbac.PermissionReadTask, resp), t.List)
		tasks.GET("/project/:projectId", RequirePermission(rbac.PermissionReadTask, resp), t.ListByProject)
		tasks.GET("/:id", RequirePermission(rbac.PermissionReadTask, resp), t.Get)
		tasks.POST("", RequirePermission(rbac.PermissionCreateTask, resp), t.Create)
		tasks.PUT("/:id", RequirePermission(rbac.PermissionUpdateTask, resp), t.Update)
		tasks.DELETE("/:id", RequirePermission(rbac.PermissionDeleteTask, resp), t.Delete)
	}

	r.NoRoute(noRoute(opts.StaticDir, resp))

	return &Router{Engine: r}
}

// noRoute 未匹配的 /api 路径返回 404 envelope；配置了静态目录时其余路径回退到 index.html
func noRoute(staticDir string, resp handler.Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if staticDir == "" || strings.HasPrefix(path, "/api/") || path == "/api" {
			resp.Fail(c, http.StatusNotFound, "Not found")
			return
		}

		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			resp.Fail(c, http.StatusNotFound, "Not found")
			return
		}

		file := filepath.Join(staticDir, filepath.FromSlash(filepath.Clean("/"+path)))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		c.File(filepath.Join(staticDir, "index.html"))
	}
}
