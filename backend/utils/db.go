package utils

import (
	"context"
	"fmt"
	stdlog "log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"learnhub/backend/config"
	"learnhub/backend/store"
)

// InitDB opens the SQL database behind the document store.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres", "":
		dialector = postgres.Open(cfg.PostgresDSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("InitDB: unsupported driver %q", cfg.DBDriver)
	}

	level := gormlogger.Warn
	if cfg.LogMode == "prod" || cfg.LogMode == "production" {
		level = gormlogger.Error
	}
	sqlLogger := gormlogger.New(stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
	db, err := gorm.Open(dialector, &gorm.Config{Logger: sqlLogger})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.DBDriver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// OpenStore picks the document store for DB_DRIVER. The returned close
// function releases the underlying connection.
func OpenStore(ctx context.Context, cfg *config.Config, log *Logger) (store.DocumentStore, func(), error) {
	switch cfg.DBDriver {
	case "memory":
		log.Warn("using in-memory document store; data is lost on restart")
		return store.NewMemoryStore(), func() {}, nil

	case "mongo":
		ms, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.DBName)
		if err != nil {
			return nil, nil, err
		}
		log.Info("document store ready", "driver", "mongo", "database", cfg.DBName)
		return ms, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := ms.Close(closeCtx); err != nil {
				log.Warn("mongo disconnect failed", "error", err)
			}
		}, nil

	default:
		db, err := InitDB(cfg)
		if err != nil {
			return nil, nil, err
		}
		gs, err := store.NewGormStore(db)
		if err != nil {
			return nil, nil, err
		}
		log.Info("document store ready", "driver", cfg.DBDriver)
		return gs, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}, nil
	}
}
