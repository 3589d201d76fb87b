package database

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"
)

// EnsureSearchIndexes creates full-text search GIN indexes over the
// transcripts table's title/short_summary/long_summary columns — the same
// custom-SQL-not-expressible-in-ent-schema pattern as the teacher's
// CreateGINIndexes for alert_data/final_analysis. pkg/transcript's
// SearchProjection builds its document in memory and does not read them.
func EnsureSearchIndexes(ctx context.Context, driver *sql.Driver) error {
	db := driver.DB()

	indexes := []struct{ name, column string }{
		{"idx_transcripts_title_gin", "title"},
		{"idx_transcripts_short_summary_gin", "short_summary"},
		{"idx_transcripts_long_summary_gin", "long_summary"},
	}

	for _, idx := range indexes {
		_, err := db.ExecContext(ctx, fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS %s
			ON transcripts USING gin(to_tsvector('english', COALESCE(%s, '')))`,
			idx.name, idx.column))
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", idx.name, err)
		}
	}

	return nil
}
