package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

type migrationFile struct {
	name string
	data []byte
}

// Bootstrap creates the schema and, when seed is set and no assessment
// types exist yet, loads the reference data from migrationsDir, falling back
// to the embedded files.
func (s *Store) Bootstrap(ctx context.Context, migrationsDir string, seed bool) error {
	if err := s.AutoMigrate(); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if !seed {
		return nil
	}
	n, err := s.CountAssessmentTypes(ctx)
	if err != nil {
		return fmt.Errorf("count assessment types: %w", err)
	}
	if n > 0 {
		s.log.Debug("reference data present, skipping seed", "types", n)
		return nil
	}
	files, err := loadMigrations(migrationsDir)
	if err != nil {
		return err
	}
	return s.Transaction(ctx, func(tx *Store) error {
		for _, mf := range files {
			if len(mf.data) == 0 {
				continue
			}
			if err := tx.db.Exec(string(mf.data)).Error; err != nil {
				return fmt.Errorf("exec migration %s: %w", mf.name, err)
			}
			s.log.Info("applied migration", "name", mf.name)
		}
		return nil
	})
}

func loadMigrations(dir string) ([]migrationFile, error) {
	var files []migrationFile
	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err == nil {
			for _, entry := range entries {
				if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
					continue
				}
				content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
				if err != nil {
					return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
				}
				files = append(files, migrationFile{name: entry.Name(), data: content})
			}
			sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
			return files, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read migrations: %w", err)
		}
	}

	entries, err := embeddedMigrations.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		content, err := embeddedMigrations.ReadFile(path.Join("migrations", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read embedded migration %s: %w", entry.Name(), err)
		}
		files = append(files, migrationFile{name: entry.Name(), data: content})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	return files, nil
}
