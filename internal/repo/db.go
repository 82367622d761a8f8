package repo

import (
	"Marketplace/internal/model"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// InitDB открывает БД по DSN и выполняет миграции.
// postgres:// и key=value DSN уходят в Postgres, всё остальное открывается как файл SQLite (modernc).
func InitDB(dsn string) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	}

	var dial gorm.Dialector
	if isPostgresDSN(dsn) {
		dial = postgres.Open(dsn)
	} else {
		dial = gormsqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	}

	db, err := gorm.Open(dial, gcfg)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if !isPostgresDSN(dsn) {
		// SQLite допускает одного писателя: сериализуем доступ через одно соединение
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate создаёт/обновляет схему для всех серверных моделей.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.Profile{}, &model.Item{}, &model.Image{}, &model.Blob{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}
