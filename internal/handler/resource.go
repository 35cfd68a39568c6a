package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ganttboard/internal/events"
	"ganttboard/internal/repository"
	"ganttboard/pkg/logger"
	"ganttboard/pkg/metrics"
)

// Rules 描述一种实体的差异部分：名称、提示语、请求体到实体的映射
type Rules[T, C, U any] struct {
	// Entity 小写单数，如 "project"
	Entity string
	// RequiredMessage 缺少必填字段时的提示
	RequiredMessage string
	// UpdateRequiredMessage 更新时的提示，为空时沿用 RequiredMessage
	UpdateRequiredMessage string
	// ParentMissingMessage 外键不存在时的提示
	ParentMissingMessage string

	FromCreate func(C) T
	// FromUpdate 以请求体覆盖已存在的实体（含 id）
	FromUpdate func(U, T) T
	// ProjectID 事件中携带的 project_id，可为 nil
	ProjectID func(*T) int

	// BeforeCreate 写入前的检查，返回 repository.ErrNotFound 时以 ParentMissingMessage 响应 404
	BeforeCreate func(ctx context.Context, entity *T) error
	// Detail 单个实体的响应 data，为 nil 时直接返回实体
	Detail func(ctx context.Context, entity *T) (any, error)
}

// Resource 是项目与任务共用的 CRUD handler
type Resource[T, C, U any] struct {
	repo   repository.Repository[T]
	rules  Rules[T, C, U]
	events events.Publisher
	resp   Responder
	logger *zap.Logger
}

func NewResource[T, C, U any](repo repository.Repository[T], rules Rules[T, C, U], publisher events.Publisher, resp Responder, l *zap.Logger) *Resource[T, C, U] {
	if publisher == nil {
		publisher = events.Nop()
	}
	return &Resource[T, C, U]{
		repo:   repo,
		rules:  rules,
		events: publisher,
		resp:   resp,
		logger: l,
	}
}

func (r *Resource[T, C, U]) title() string {
	return strings.ToUpper(r.rules.Entity[:1]) + r.rules.Entity[1:]
}

func (r *Resource[T, C, U]) notFound() string {
	return r.title() + " not found"
}

func (r *Resource[T, C, U]) updateRequired() string {
	if r.rules.UpdateRequiredMessage != "" {
		return r.rules.UpdateRequiredMessage
	}
	return r.rules.RequiredMessage
}

func (r *Resource[T, C, U]) log(c *gin.Context) *zap.Logger {
	return logger.WithTrace(c.Request.Context(), r.logger).With(zap.String("entity", r.rules.Entity))
}

func (r *Resource[T, C, U]) publish(ctx context.Context, op string, id int, entity *T) {
	projectID := 0
	if entity != nil && r.rules.ProjectID != nil {
		projectID = r.rules.ProjectID(entity)
	}
	metrics.IncrementEntityMutation(r.rules.Entity, op)
	r.events.Publish(ctx, r.rules.Entity+"."+op, id, projectID)
}

func (r *Resource[T, C, U]) List(c *gin.Context) {
	log := r.log(c)

	items, err := r.repo.List(c.Request.Context())
	if err != nil {
		log.Error("List: failed to fetch", zap.Error(err))
		r.resp.ServerError(c, fmt.Sprintf("Failed to fetch %ss", r.rules.Entity), err)
		return
	}

	log.Debug("List: success", zap.Int("count", len(items)))
	r.resp.OK(c, items)
}

func (r *Resource[T, C, U]) Get(c *gin.Context) {
	log := r.log(c)

	id, ok := parseID(c, "id")
	if !ok {
		log.Warn("Get: invalid id", zap.String("id", c.Param("id")))
		r.resp.Fail(c, http.StatusNotFound, r.notFound())
		return
	}

	entity, err := r.repo.Get(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		log.Info("Get: not found", zap.Int("id", id))
		r.resp.Fail(c, http.StatusNotFound, r.notFound())
		return
	}
	if err != nil {
		log.Error("Get: failed to fetch", zap.Int("id", id), zap.Error(err))
		r.resp.ServerError(c, "Failed to fetch "+r.rules.Entity, err)
		return
	}

	var data any = entity
	if r.rules.Detail != nil {
		data, err = r.rules.Detail(c.Request.Context(), entity)
		if err != nil {
			log.Error("Get: failed to load detail", zap.Int("id", id), zap.Error(err))
			r.resp.ServerError(c, "Failed to fetch "+r.rules.Entity, err)
			return
		}
	}

	r.resp.OK(c, data)
}

func (r *Resource[T, C, U]) Create(c *gin.Context) {
	log := r.log(c)

	var in C
	if err := c.ShouldBindJSON(&in); err != nil {
		log.Warn("Create: invalid body", zap.Error(err))
		r.resp.Fail(c, http.StatusBadRequest, r.rules.RequiredMessage)
		return
	}

	entity := r.rules.FromCreate(in)
	ctx := c.Request.Context()

	if r.rules.BeforeCreate != nil {
		if err := r.rules.BeforeCreate(ctx, &entity); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				log.Info("Create: referenced row missing", zap.Error(err))
				r.resp.Fail(c, http.StatusNotFound, r.rules.ParentMissingMessage)
				return
			}
			log.Error("Create: check failed", zap.Error(err))
			r.resp.ServerError(c, "Failed to create "+r.rules.Entity, err)
			return
		}
	}

	id, err := r.repo.Create(ctx, &entity)
	if errors.Is(err, repository.ErrForeignKey) {
		log.Info("Create: referenced row missing", zap.Error(err))
		r.resp.Fail(c, http.StatusNotFound, r.rules.ParentMissingMessage)
		return
	}
	if err != nil {
		log.Error("Create: failed to insert", zap.Error(err))
		r.resp.ServerError(c, "Failed to create "+r.rules.Entity, err)
		return
	}

	log.Info("Create: success", zap.Int("id", id))
	r.publish(ctx, "created", id, &entity)
	r.resp.Message(c, http.StatusCreated, r.title()+" created successfully", CreatedID{ID: id})
}

func (r *Resource[T, C, U]) Update(c *gin.Context) {
	log := r.log(c)

	id, ok := parseID(c, "id")
	if !ok {
		log.Warn("Update: invalid id", zap.String("id", c.Param("id")))
		r.resp.Fail(c, http.StatusNotFound, r.notFound())
		return
	}

	// 先读请求体，再检查存在性，最后才校验
	var in U
	bindErr := c.ShouldBindJSON(&in)

	ctx := c.Request.Context()
	existing, err := r.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		log.Info("Update: not found", zap.Int("id", id))
		r.resp.Fail(c, http.StatusNotFound, r.notFound())
		return
	}
	if err != nil {
		log.Error("Update: failed to fetch", zap.Int("id", id), zap.Error(err))
		r.resp.ServerError(c, "Failed to update "+r.rules.Entity, err)
		return
	}

	if bindErr != nil {
		log.Warn("Update: invalid body", zap.Int("id", id), zap.Error(bindErr))
		r.resp.Fail(c, http.StatusBadRequest, r.updateRequired())
		return
	}

	entity := r.rules.FromUpdate(in, *existing)
	if err := r.repo.Update(ctx, &entity); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			r.resp.Fail(c, http.StatusNotFound, r.notFound())
			return
		}
		log.Error("Update: failed to write", zap.Int("id", id), zap.Error(err))
		r.resp.ServerError(c, "Failed to update "+r.rules.Entity, err)
		return
	}

	log.Info("Update: success", zap.Int("id", id))
	r.publish(ctx, "updated", id, &entity)
	r.resp.Message(c, http.StatusOK, r.title()+" updated successfully", nil)
}

func (r *Resource[T, C, U]) Delete(c *gin.Context) {
	log := r.log(c)

	id, ok := parseID(c, "id")
	if !ok {
		log.Warn("Delete: invalid id", zap.String("id", c.Param("id")))
		r.resp.Fail(c, http.StatusNotFound, r.notFound())
		return
	}

	ctx := c.Request.Context()
	existing, err := r.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		log.Info("Delete: not found", zap.Int("id", id))
		r.resp.Fail(c, http.StatusNotFound, r.notFound())
		return
	}
	if err != nil {
		log.Error("Delete: failed to fetch", zap.Int("id", id), zap.Error(err))
		r.resp.ServerError(c, "Failed to delete "+r.rules.Entity, err)
		return
	}

	if err := r.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			r.resp.Fail(c, http.StatusNotFound, r.notFound())
			return
		}
		log.Error("Delete: failed", zap.Int("id", id), zap.Error(err))
		r.resp.ServerError(c, "Failed to delete "+r.rules.Entity, err)
		return
	}

	log.Info("Delete: success", zap.Int("id", id))
	r.publish(ctx, "deleted", id, existing)
	r.resp.Message(c, http.StatusOK, r.title()+" deleted successfully", nil)
}
