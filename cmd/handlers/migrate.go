package handlers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ceres/internal/logger"
	"ceres/internal/repository"
)

// NewMigrateCmd creates the migrate command for applying the dataset store's
// embedded schema migrations.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the dataset store",
		Long: `Apply every embedded migration that has not yet run, in order, tracking
progress in a schema_migrations table.

Example:
  ceres migrate`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context())
		},
	}
}

func runMigrate(ctx context.Context) error {
	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	migrator := repository.NewMigrationManager(repo.DB(), logger.Get())
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Println("✅ All migrations applied successfully")
	return nil
}
