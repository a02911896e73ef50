package migration

import (
	"github.com/limaskap/limaskap/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(applySchema),
)

func applySchema(conn *gorm.DB, log *zap.Logger) error {
	log = log.Named("migration")
	if db.IsSQLite(conn) {
		log.Warn("sqlite database detected, applying development schema")
		return ApplySQLite(conn)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return Up(sqlDB, log)
}
