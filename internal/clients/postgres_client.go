package clients

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	postgresInstance *gorm.DB
	postgresErr      error
	postgresOnce     sync.Once
)

// GetPostgresDB opens the shared gorm connection with a bounded pool. Every
// ingestion run borrows one connection for its transactional segment.
func GetPostgresDB() (*gorm.DB, error) {
	postgresOnce.Do(func() {
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			os.Getenv("DB_HOST"),
			os.Getenv("DB_PORT"),
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_NAME"),
		)

		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			postgresErr = fmt.Errorf("[PostgresClient] failed to connect: %w", err)
			return
		}

		sqlDB, err := db.DB()
		if err != nil {
			postgresErr = fmt.Errorf("[PostgresClient] failed to access pool: %w", err)
			return
		}
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(time.Hour)

		slog.Info("[PostgresClient] Connected to PostgreSQL successfully")
		postgresInstance = db
	})

	return postgresInstance, postgresErr
}
