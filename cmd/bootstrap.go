package main

import (
	"context"

	"gorm.io/gorm"

	"github.com/weiawesome/wes-io-chat/internal/config"
	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/internal/repository"
	"github.com/weiawesome/wes-io-chat/pkg/database"
	pkglog "github.com/weiawesome/wes-io-chat/pkg/log"
)

type configKey struct{}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFrom(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(configKey{}).(*config.Config)
	return cfg
}

// openDatabase connects and migrates the chat tables together with the
// users table the authenticator reads.
func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, pkglog.L())
	if err != nil {
		return nil, err
	}

	models := append(repository.Models(), &domain.UserModel{})
	if err := database.AutoMigrate(db, models...); err != nil {
		return nil, err
	}
	return db, nil
}
