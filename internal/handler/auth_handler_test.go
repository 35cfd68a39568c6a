package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"ganttboard/internal/repository/sqlite"
	"ganttboard/internal/service/auth"
	"ganttboard/internal/util"
)

func TestChangePasswordMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	db := sqlite.NewTestDB(t)
	users := sqlite.NewUserRepository(db, zap.NewNop())
	svc := auth.NewService(users, "handler-test-secret", time.Hour, nil, zap.NewNop())
	require.NoError(t, svc.EnsureDefaultAdmin(ctx, "admin", "admin123"))
	admin, err := users.FindByUsername(ctx, "admin")
	require.NoError(t, err)

	core, logs := observer.New(zap.WarnLevel)
	h := NewAuthHandler(svc, Responder{}, zap.New(core))

	r := gin.New()
	r.POST("/change-password", func(c *gin.Context) {
		c.Set(ContextUserKey, &util.Claims{UserID: admin.ID, Username: admin.Username, IsAdmin: true})
		h.ChangePassword(c)
	})

	req := httptest.NewRequest(http.MethodPost, "/change-password", strings.NewReader(`{"currentPassword": "admin123", `))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Equal(t, auth.ErrMissingPassword.Error(), env.Message)

	entries := logs.FilterMessage("ChangePassword: invalid body").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(admin.ID), entries[0].ContextMap()["user_id"])

	_, _, err = svc.Login(ctx, "admin", "admin123")
	assert.NoError(t, err, "password must be unchanged")
}
