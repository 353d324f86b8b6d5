package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"go.uber.org/multierr"
)

const (
	annotationUp    = "-- +goose Up"
	annotationDown  = "-- +goose Down"
	annotationBegin = "-- +goose StatementBegin"
	annotationEnd   = "-- +goose StatementEnd"
)

// ValidateDir runs ValidateFS over a directory on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return ValidateFS(os.DirFS(dir))
}

// ValidateFS checks every .sql file at the root of fsys for a versioned name, a
// unique version and well-formed goose annotations. Every problem found is returned.
func ValidateFS(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	var errs error
	versions := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || path.Ext(name) != ".sql" {
			continue
		}
		version, ok := versionOf(name)
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("%s: expected YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		if prev, dup := versions[version]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%s: version %s already used by %s", name, version, prev))
			continue
		}
		versions[version] = name

		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		errs = multierr.Append(errs, checkAnnotations(name, string(body)))
	}
	return errs
}

func versionOf(name string) (string, bool) {
	stem := strings.TrimSuffix(name, ".sql")
	version, slug, found := strings.Cut(stem, "_")
	if !found || len(version) != len(versionLayout) || slug == "" {
		return "", false
	}
	for _, r := range version {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	for _, r := range slug {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return "", false
		}
	}
	return version, true
}

// checkAnnotations requires exactly one Up followed by one Down, with
// StatementBegin/StatementEnd pairs that do not nest or span sections.
func checkAnnotations(name, body string) error {
	var up, down, open bool
	for i, raw := range strings.Split(body, "\n") {
		line := i + 1
		switch strings.TrimSpace(raw) {
		case annotationUp:
			if up {
				return fmt.Errorf("%s:%d: duplicate Up annotation", name, line)
			}
			up = true
		case annotationDown:
			switch {
			case !up:
				return fmt.Errorf("%s:%d: Down appears before Up", name, line)
			case down:
				return fmt.Errorf("%s:%d: duplicate Down annotation", name, line)
			case open:
				return fmt.Errorf("%s:%d: StatementBegin not closed before Down", name, line)
			}
			down = true
		case annotationBegin:
			if open {
				return fmt.Errorf("%s:%d: nested StatementBegin", name, line)
			}
			open = true
		case annotationEnd:
			if !open {
				return fmt.Errorf("%s:%d: StatementEnd without StatementBegin", name, line)
			}
			open = false
		}
	}
	switch {
	case !up:
		return fmt.Errorf("%s: missing %q", name, annotationUp)
	case !down:
		return fmt.Errorf("%s: missing %q", name, annotationDown)
	case open:
		return fmt.Errorf("%s: StatementBegin never closed", name)
	}
	return nil
}
