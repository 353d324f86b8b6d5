package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/angelmondragon/fenceops-backend/pkg/config"
	"github.com/angelmondragon/fenceops-backend/pkg/db"
	"github.com/angelmondragon/fenceops-backend/pkg/logger"
	"github.com/angelmondragon/fenceops-backend/pkg/migrate"
)

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|current|version|create|validate")
	flag.StringVar(&opts.dir, "dir", "", "migrations directory (default: the set embedded in this binary)")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	// create and validate only touch the filesystem
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			exit("missing -name for create")
		}
		dir := opts.dir
		if dir == "" {
			dir = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(dir, opts.name)
		if err != nil {
			exit("create migration: %v", err)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		err := migrate.ValidateFS(migrate.Embedded())
		if opts.dir != "" {
			err = migrate.ValidateDir(opts.dir)
		}
		if err != nil {
			exit("migration validation failed:\n%v", err)
		}
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Environment: cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"cmd":    opts.cmd,
		"source": migrate.Source{Dir: opts.dir}.String(),
	})

	if err := runWithDB(ctx, cfg, logg, opts); err != nil {
		logg.Error(ctx, "migration failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migration finished")
}

func runWithDB(ctx context.Context, cfg *config.Config, logg *logger.Logger, opts options) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	return dispatch(ctx, sqlDB, opts)
}

func dispatch(ctx context.Context, sqlDB *sql.DB, opts options) error {
	src := migrate.Source{Dir: opts.dir}
	switch opts.cmd {
	case "up", "down", "status":
		return migrate.Run(ctx, sqlDB, src, opts.cmd)
	case "current":
		version, err := migrate.Current(ctx, sqlDB)
		if err != nil {
			return err
		}
		fmt.Println("current version:", version)
		return nil
	case "version":
		if opts.version == "" {
			return errors.New("missing -version for version command")
		}
		target, err := strconv.ParseInt(opts.version, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid -version %q (expected YYYYMMDDHHMMSS): %w", opts.version, err)
		}
		return migrate.Goto(ctx, sqlDB, src, target)
	default:
		return fmt.Errorf("unknown -cmd value %q", opts.cmd)
	}
}

func exit(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
