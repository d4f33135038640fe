package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vidpersona/payments/app/models"
	"github.com/vidpersona/payments/internal/pkg/env"
	"github.com/vidpersona/payments/internal/pkg/logger"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

var DB *gorm.DB

// SetupDatabase opens the Postgres connection and migrates the tables the
// reconciler writes to. The auth users table is owned by the auth subsystem;
// it is only migrated here so local development works out of the box.
func SetupDatabase() {
	var err error
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_NAME", ""),
		env.GetEnv("DB_PORT", "5432"),
		env.GetEnv("DB_SSLMODE", "disable"),
	)

	log := logger.Get()
	for i := 0; i < maxRetries; i++ {
		DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			DB.AutoMigrate(
				&models.User{},
				&models.PurchaseEvent{},
				&models.ProductMapping{},
				&models.UserEntitlement{},
				&models.PendingEntitlement{},
			)

			return
		}

		log.Warn("failed to connect to database",
			zap.Int("attempt", i+1), zap.Int("max_attempts", maxRetries), zap.Error(err))
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}

// GetDB returns the shared GORM handle.
func GetDB() *gorm.DB {
	return DB
}
