package db

import (
	"fmt"
	"strings"

	"github.com/limaskap/limaskap/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Dialect picks the GORM driver for DATABASE_TYPE. DATABASE_URL wins over the
// discrete host settings for postgres.
func Dialect(cfg config.Config) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.DBType) {
	case "postgres", "postgresql", "":
		if dsn := strings.TrimSpace(cfg.DBURL); dsn != "" {
			return postgres.Open(dsn), nil
		}
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.DBHost,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
			cfg.DBPort,
			cfg.DBSSLMode,
		)), nil
	case "sqlite":
		dsn := strings.TrimSpace(cfg.DBURL)
		if dsn == "" {
			dsn = "limaskap.db"
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported %s type", cfg.DBType)
	}
}

// IsSQLite reports whether conn talks to SQLite.
func IsSQLite(conn *gorm.DB) bool {
	return conn != nil && conn.Dialector.Name() == "sqlite"
}
