package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/messismo/bar/internal/clock"
	"github.com/messismo/bar/internal/config"
	"github.com/messismo/bar/internal/migration"
	"github.com/messismo/bar/internal/observability"
	"github.com/messismo/bar/internal/seed"
	"github.com/messismo/bar/internal/server"
	"github.com/messismo/bar/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Schema must exist before services seed defaults.
		migration.Module,
		server.Module,
		seed.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
