package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

type index struct {
	table   string
	name    string
	columns string
}

// Task lookups always filter on one of the two user references.
var taskIndexes = []index{
	{"tasks", "idx_tasks_assigned_to_status", "assigned_to, status"},
	{"tasks", "idx_tasks_created_by_status", "created_by, status"},
	{"tasks", "idx_tasks_priority", "priority"},
	{"tasks", "idx_tasks_due_date", "due_date"},
	{"tasks", "idx_tasks_created_at", "created_at"},
}

// AddIndexes creates the query indexes that are not declared on the models.
func AddIndexes(db *gorm.DB, log *slog.Logger) error {
	migrator := db.Migrator()

	for _, idx := range taskIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug("index already exists, skipping", slog.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index",
			slog.String("index", idx.name),
			slog.String("table", idx.table),
			slog.String("columns", idx.columns),
		)
	}

	return nil
}
