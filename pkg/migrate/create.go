package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"go.uber.org/multierr"
)

const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- revert %[1]s
-- +goose StatementEnd
`

// CreateSQLMigration writes an empty goose migration <version>_<slug>.sql into dir
// and returns its path. The version is the current UTC time.
func CreateSQLMigration(dir, name string) (string, error) {
	return createAt(dir, name, time.Now().UTC())
}

func createAt(dir, name string, at time.Time) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := slugify(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	target := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", at.Format(versionLayout), slug))
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("migration already exists: %s", target)
		}
		return "", fmt.Errorf("create %s: %w", target, err)
	}
	_, writeErr := fmt.Fprintf(f, migrationTemplate, slug)
	if err := multierr.Combine(writeErr, f.Close()); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return target, nil
}

// slugify transliterates name to lowercase ASCII with underscores between words.
func slugify(name string) string {
	return strings.ReplaceAll(slug.Make(name), "-", "_")
}
