package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ganttboard/internal/model"
	"ganttboard/internal/repository"
	"ganttboard/internal/service/auth"
	"ganttboard/pkg/logger"
)

// ContextUserKey gin context 中保存 token claims 的键
const ContextUserKey = "user"

type AuthHandler struct {
	svc    *auth.Service
	resp   Responder
	logger *zap.Logger
}

func NewAuthHandler(svc *auth.Service, resp Responder, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, resp: resp, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse POST /api/auth/login 的 data
type LoginResponse struct {
	Token string            `json:"token"`
	User  model.UserProfile `json:"user"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		log.Warn("Login: missing credentials", zap.String("client_ip", c.ClientIP()))
		h.resp.Fail(c, http.StatusBadRequest, "Username and password are required")
		return
	}

	token, profile, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		status := StatusFor(err)
		if status == http.StatusInternalServerError {
			log.Error("Login: failed", zap.String("username", req.Username), zap.Error(err))
			h.resp.ServerError(c, "Login failed", err)
			return
		}
		log.Warn("Login: rejected",
			zap.String("username", req.Username),
			zap.String("client_ip", c.ClientIP()),
			zap.Error(err),
		)
		h.resp.Fail(c, status, err.Error())
		return
	}

	log.Info("Login: success", zap.String("username", profile.Username), zap.Int("user_id", profile.ID))
	h.resp.Message(c, http.StatusOK, "Login successful", LoginResponse{Token: token, User: *profile})
}

func (h *AuthHandler) Me(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)
	claims := ClaimsFrom(c)

	profile, err := h.svc.Me(c.Request.Context(), claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		log.Info("Me: user not found", zap.Int("user_id", claims.UserID))
		h.resp.Fail(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		log.Error("Me: failed", zap.Int("user_id", claims.UserID), zap.Error(err))
		h.resp.ServerError(c, "Failed to fetch user", err)
		return
	}

	h.resp.OK(c, profile)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)
	claims := ClaimsFrom(c)

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("ChangePassword: invalid body", zap.Int("user_id", claims.UserID), zap.Error(err))
		h.resp.Fail(c, http.StatusBadRequest, auth.ErrMissingPassword.Error())
		return
	}

	err := h.svc.ChangePassword(c.Request.Context(), claims.UserID, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
		log.Info("ChangePassword: success", zap.Int("user_id", claims.UserID))
		h.resp.Message(c, http.StatusOK, "Password changed successfully", nil)
	case errors.Is(err, repository.ErrNotFound):
		h.resp.Fail(c, http.StatusNotFound, "User not found")
	case StatusFor(err) == http.StatusInternalServerError:
		log.Error("ChangePassword: failed", zap.Int("user_id", claims.UserID), zap.Error(err))
		h.resp.ServerError(c, "Failed to change password", err)
	default:
		log.Warn("ChangePassword: rejected", zap.Int("user_id", claims.UserID), zap.Error(err))
		h.resp.Fail(c, StatusFor(err), err.Error())
	}
}
