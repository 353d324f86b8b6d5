package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

// DefaultDir is where new migrations are written relative to the repository root.
const DefaultDir = "pkg/migrate/migrations"

const (
	embeddedDir   = "migrations"
	versionLayout = "20060102150405"
	// the schema uses enums, partial indexes and plpgsql
	dialect = "postgres"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Embedded returns the migrations compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, embeddedDir)
	if err != nil {
		panic(fmt.Sprintf("embedded migrations: %v", err))
	}
	return sub
}

// Source selects where goose reads migrations from. The zero value uses the
// embedded set; Dir points at a directory on disk instead.
type Source struct {
	Dir string
}

func (s Source) String() string {
	if s.Dir == "" {
		return "embedded"
	}
	return s.Dir
}

func (s Source) prepare() (string, error) {
	if s.Dir == "" {
		goose.SetBaseFS(embedded)
	} else {
		goose.SetBaseFS(nil)
	}
	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("set goose dialect: %w", err)
	}
	if s.Dir == "" {
		return embeddedDir, nil
	}
	return s.Dir, nil
}

// Run executes a goose command (up, down, status, redo, ...) against db.
func Run(ctx context.Context, db *sql.DB, src Source, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	dir, err := src.prepare()
	if err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("goose %s (%s): %w", command, src, err)
	}
	return nil
}

// Current returns the version the database is migrated to.
func Current(ctx context.Context, db *sql.DB) (int64, error) {
	if db == nil {
		return 0, fmt.Errorf("db is required")
	}
	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("set goose dialect: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("get db version: %w", err)
	}
	return version, nil
}

// Goto moves the schema up or down until it sits at target.
func Goto(ctx context.Context, db *sql.DB, src Source, target int64) error {
	current, err := Current(ctx, db)
	if err != nil {
		return err
	}
	if current == target {
		return nil
	}
	dir, err := src.prepare()
	if err != nil {
		return err
	}
	if current < target {
		if err := goose.UpToContext(ctx, db, dir, target); err != nil {
			return fmt.Errorf("goose up-to %d: %w", target, err)
		}
		return nil
	}
	if err := goose.DownToContext(ctx, db, dir, target); err != nil {
		return fmt.Errorf("goose down-to %d: %w", target, err)
	}
	return nil
}
