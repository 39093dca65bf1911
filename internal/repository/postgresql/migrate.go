package postgresql

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"

	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies every embedded migration in file-name order. The scripts are
// idempotent, so running it on each start is safe.
func Migrate(ctx context.Context, db *database.DB) error {
	files, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	return WithTransaction(ctx, db, func(tx pgx.Tx) error {
		for _, name := range files {
			script, err := migrationFS.ReadFile(name)
			if err != nil {
				return fmt.Errorf("read migration %s: %w", name, err)
			}
			if _, err := tx.Exec(ctx, string(script)); err != nil {
				return fmt.Errorf("apply migration %s: %w", name, err)
			}
			slog.Debug("Migration applied", "file", name)
		}
		return nil
	})
}
