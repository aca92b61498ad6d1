package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"

	"github.com/opsdesk/opsdesk/internal/activity"
	"github.com/opsdesk/opsdesk/internal/audit"
	"github.com/opsdesk/opsdesk/internal/directory"
	"github.com/opsdesk/opsdesk/internal/eventbus"
	"github.com/opsdesk/opsdesk/internal/seed"
	"github.com/opsdesk/opsdesk/internal/server"
	"github.com/opsdesk/opsdesk/internal/types"
	"github.com/opsdesk/opsdesk/migrations"
)

func main() {
	cmd := &cli.Command{
		Name:  "opsdesk",
		Usage: "Back-office activity/audit feed service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":8080",
				Sources: cli.EnvVars("OPSDESK_ADDR"),
				Usage:   "HTTP listen address",
			},
			&cli.StringFlag{
				Name:    "db-path",
				Value:   "./opsdesk.sqlite",
				Sources: cli.EnvVars("OPSDESK_DB_PATH"),
				Usage:   "SQLite file path",
			},
			&cli.BoolFlag{
				Name:  "seed",
				Usage: "Insert demo users and audit history at startup",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Sources: cli.EnvVars("OPSDESK_DEBUG"),
				Usage:   "Enable debug logging",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, c *cli.Command) error {
	logger, err := newLogger(c.Bool("debug"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPath := c.String("db-path")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent appends.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := migrations.Up(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("database migrated", zap.String("path", dbPath))

	gdb, err := gorm.Open(gormsqlite.Dialector{DriverName: "sqlite", Conn: db}, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("open gorm: %w", err)
	}

	store := activity.NewSQLiteStore(db, logger)
	users := directory.NewGormStore(gdb)

	facets, err := activity.NewFacetCache(activity.DefaultFacetCacheSize)
	if err != nil {
		return fmt.Errorf("init facet cache: %w", err)
	}

	bus := eventbus.New(256, logger)
	bus.Subscribe("log", eventbus.NewLogConsumer(logger))
	bus.Subscribe("facet-invalidate", eventbus.HandlerFunc(func(context.Context, types.AuditEvent) error {
		facets.Invalidate()
		return nil
	}))
	bus.Start(ctx)
	defer bus.Stop()

	if c.Bool("seed") {
		if err := seed.Run(ctx, store, users, logger); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	feed := activity.NewFeed(store, users, logger, activity.WithFacetCache(facets))

	recorder := audit.NewRecorder(store, logger)
	recorder.SetPublisher(bus)

	return server.Run(ctx, server.Config{
		Addr:     c.String("addr"),
		Feed:     feed,
		Recorder: recorder,
		Logger:   logger,
	})
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
