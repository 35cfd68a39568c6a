package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ganttboard/internal/repository"
	"ganttboard/internal/repository/postgres"
	"ganttboard/internal/repository/sqlite"
	"ganttboard/pkg/config"
	"ganttboard/pkg/db"
)

// Stores 按 db.driver 选择的存储实现
type Stores struct {
	Users    repository.UserRepository
	Projects repository.ProjectRepository
	Tasks    repository.TaskRepository

	Ping  func(ctx context.Context) error
	Close func()
}

// OpenStores 打开数据库并执行迁移
func OpenStores(cfg config.DBConfig, log *zap.Logger) (*Stores, error) {
	switch cfg.Driver {
	case "postgres":
		if err := db.Migrate(cfg, log); err != nil {
			return nil, err
		}
		pool, err := db.NewConnection(cfg, log)
		if err != nil {
			return nil, err
		}
		return &Stores{
			Users:    postgres.NewUserRepository(pool, log),
			Projects: postgres.NewProjectRepository(pool, log),
			Tasks:    postgres.NewTaskRepository(pool, log),
			Ping:     pool.Ping,
			Close:    pool.Close,
		}, nil

	case "sqlite":
		sdb, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		if err := sdb.RunMigrations(); err != nil {
			_ = sdb.Close()
			return nil, err
		}
		log.Info("SQLite database ready", zap.String("path", cfg.Path))
		return &Stores{
			Users:    sqlite.NewUserRepository(sdb, log),
			Projects: sqlite.NewProjectRepository(sdb, log),
			Tasks:    sqlite.NewTaskRepository(sdb, log),
			Ping:     sdb.PingContext,
			Close:    func() { _ = sdb.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}
}
