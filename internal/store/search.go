package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/clips-workspace/clipd/pkg/clip"
)

// initFTS sets up the FTS5 virtual table and the triggers that keep it
// in sync with the entries table. FTS is optional: when unavailable,
// Search falls back to a LIKE scan.
func (s *Store) initFTS() error {
	slog.Debug("Initializing FTS5")

	if err := s.db.Exec(`
    CREATE VIRTUAL TABLE IF NOT EXISTS entry_index USING FTS5(
			text,
			mime,
			content='entries',
			content_rowid='id'
    );
    `).Error; err != nil {
		return fmt.Errorf("failed to create FTS5 table: %w", err)
	}
	slog.Debug("FTS5 table created")

	triggers := []string{
		// Insert
		`CREATE TRIGGER IF NOT EXISTS entry_ai AFTER INSERT ON entries BEGIN
            INSERT INTO entry_index(rowid, text, mime)
            VALUES (new.id, new.text, new.mime);
        END;`,
		// Update
		`CREATE TRIGGER IF NOT EXISTS entry_au AFTER UPDATE ON entries BEGIN
            UPDATE entry_index SET text=new.text, mime=new.mime
            WHERE rowid=new.id;
        END;`,
		// Delete
		`CREATE TRIGGER IF NOT EXISTS entry_ad AFTER DELETE ON entries BEGIN
            DELETE FROM entry_index WHERE rowid=old.id;
        END;`,
	}

	for i, t := range triggers {
		if err := s.db.Exec(t).Error; err != nil {
			slog.Error("failed to create trigger", "trigger", i, "error", err)
			return fmt.Errorf("failed to create trigger: %w", err)
		}
	}
	slog.Debug("FTS5 triggers created", "count", len(triggers))

	s.fts = true
	return nil
}

// rebuildIndex rebuilds the FTS index for all existing rows.
func (s *Store) rebuildIndex() error {
	if !s.fts {
		return nil
	}
	slog.Debug("rebuilding FTS index")

	err := s.db.Exec("INSERT INTO entry_index(entry_index) VALUES('rebuild')").Error
	if err != nil {
		slog.Error("failed to rebuild FTS index", "error", err)
		return err
	}

	slog.Debug("FTS index rebuilt successfully")
	return nil
}

// Search runs a full-text search over entry text and MIME type,
// falling back to a LIKE scan when FTS is unavailable or matches
// nothing.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]clip.Entry, error) {
	slog.Debug("searching entries", "query", query)

	if s.fts {
		ftsQuery := fmt.Sprintf("%s* OR mime:%s*", query, query)

		var entries []clip.Entry
		err := s.db.WithContext(ctx).Raw(`SELECT entries.* FROM entries
    JOIN entry_index ON entry_index.rowid = entries.id
    WHERE entry_index MATCH ?
    ORDER BY rank
    LIMIT ?
    `, ftsQuery, limit).
			Scan(&entries).Error

		if err == nil && len(entries) > 0 {
			slog.Debug(
				"FTS5 search succeeded",
				"query", query,
				"results", len(entries),
			)
			return entries, nil
		}

		if err != nil {
			slog.Debug(
				"FTS5 search failed, falling back to LIKE",
				"query", query,
				"error", err,
			)
		} else {
			slog.Debug(
				"FTS5 search returned no results, falling back to LIKE",
				"query", query,
			)
		}
	}

	likeQuery := "%" + query + "%"
	var entries []clip.Entry
	if err := s.db.WithContext(ctx).
		Where("text LIKE ?", likeQuery).
		Or("mime LIKE ?", likeQuery).
		Order("recency desc").
		Limit(limit).
		Find(&entries).Error; err != nil {
		slog.Error("fallback LIKE search failed", "query", query, "error", err)
		return nil, err
	}

	slog.Debug(
		"fallback LIKE search succeeded",
		"query", query,
		"results", len(entries),
	)
	return entries, nil
}
