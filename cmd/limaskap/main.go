package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/limaskap/limaskap/internal/clock"
	"github.com/limaskap/limaskap/internal/config"
	"github.com/limaskap/limaskap/internal/migration"
	"github.com/limaskap/limaskap/internal/observability"
	"github.com/limaskap/limaskap/internal/server"
	"github.com/limaskap/limaskap/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(int64(cfg.NodeID))
}
