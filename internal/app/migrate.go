package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ganttboard/config"
	"ganttboard/internal/service/auth"
	pkgconfig "ganttboard/pkg/config"
)

// ProvisionAdmin 确保默认管理员存在，serve 和 migrate 共用
func ProvisionAdmin(ctx context.Context, svc *auth.Service, admin pkgconfig.AdminConfig) error {
	if err := svc.EnsureDefaultAdmin(ctx, admin.Username, admin.Password); err != nil {
		return fmt.Errorf("provision admin %q: %w", admin.Username, err)
	}
	return nil
}

// Migrate 执行迁移并写入默认管理员后关闭存储
func Migrate(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	stores, err := OpenStores(cfg.DB, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	svc := auth.NewService(stores.Users, cfg.JWT.Secret, cfg.JWT.TTL, nil, log)
	if err := ProvisionAdmin(ctx, svc, cfg.Admin); err != nil {
		return err
	}

	log.Info("Migrations applied", zap.String("driver", cfg.DB.Driver))
	return nil
}
