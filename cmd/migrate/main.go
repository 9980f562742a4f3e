package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/perfdash-backend/internal/rates"
	"github.com/angelmondragon/perfdash-backend/pkg/config"
	"github.com/angelmondragon/perfdash-backend/pkg/db"
	"github.com/angelmondragon/perfdash-backend/pkg/logger"
	"github.com/angelmondragon/perfdash-backend/pkg/migrate"
)

type flags struct {
	dir      string
	name     string
	version  string
	snapshot string
}

// offline commands never open a database connection.
var offline = map[string]func(flags) error{
	"create": func(f flags) error {
		if f.name == "" {
			return fmt.Errorf("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(f.dir, f.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	},
	"validate": func(f flags) error {
		if err := migrate.ValidateDir(f.dir); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	},
}

type env struct {
	logg  *logger.Logger
	db    *db.Client
	sqlDB *sql.DB
}

var online = map[string]func(context.Context, env, flags) error{
	"up":     gooseCommand("up"),
	"down":   gooseCommand("down"),
	"status": gooseCommand("status"),
	"version": func(ctx context.Context, e env, f flags) error {
		if f.version == "" {
			return fmt.Errorf("missing -version for version command")
		}
		return migrate.MigrateToVersion(ctx, e.sqlDB, f.dir, f.version)
	},
	"seed-rates": func(ctx context.Context, e env, f flags) error {
		return seedRates(ctx, e.logg, e.db, f.snapshot)
	},
}

func gooseCommand(name string) func(context.Context, env, flags) error {
	return func(ctx context.Context, e env, f flags) error {
		return migrate.Run(ctx, e.sqlDB, f.dir, name)
	}
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	var f flags
	cmd := flag.String("cmd", "up", "migration command: "+commandList())
	flag.StringVar(&f.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&f.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&f.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.StringVar(&f.snapshot, "snapshot", "", "rate snapshot JSON for -cmd=seed-rates; embedded snapshot when empty")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"cmd": *cmd, "dir": f.dir})

	if run, ok := offline[*cmd]; ok {
		exitOn(ctx, logg, *cmd, run(f))
		return
	}
	run, ok := online[*cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown -cmd %q (want %s)\n", *cmd, commandList())
		os.Exit(2)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	exitOn(ctx, logg, "database", err)
	sqlDB, err := dbClient.DB().DB()
	exitOn(ctx, logg, "sql database", err)

	logg.Info(ctx, "migrate ready")
	err = run(ctx, env{logg: logg, db: dbClient, sqlDB: sqlDB}, f)
	if closeErr := dbClient.Close(); closeErr != nil {
		logg.Warn(ctx, "database close failed")
	}
	exitOn(ctx, logg, *cmd, err)
}

func exitOn(ctx context.Context, logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "migrate."+strings.ReplaceAll(step, " ", "_")+" failed", err)
	fmt.Fprintf(os.Stderr, "%s: %v\n", step, err)
	os.Exit(1)
}

func commandList() string {
	names := make([]string, 0, len(offline)+len(online))
	for name := range offline {
		names = append(names, name)
	}
	for name := range online {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

func seedRates(ctx context.Context, logg *logger.Logger, dbClient *db.Client, path string) error {
	snap, err := rates.LoadSnapshot(path)
	if err != nil {
		return err
	}
	svc, err := rates.NewService(rates.NewRepository(dbClient.DB()), 0, logg)
	if err != nil {
		return err
	}
	result, err := svc.Import(ctx, snap)
	logg.Info(logg.WithFields(ctx, map[string]any{
		"as_of":    result.AsOf,
		"imported": result.Imported,
		"skipped":  result.Skipped,
	}), "currency rates seeded")
	return err
}
