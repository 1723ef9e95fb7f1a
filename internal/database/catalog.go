package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"asset-ingest/internal/ingest"
	"asset-ingest/internal/mediatypes"
	"asset-ingest/internal/metrics"
)

var _ ingest.Catalog = (*Database)(nil)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

const upsertFileQuery = `
INSERT INTO files (id, category, mime_type, folder_id, filename, base_name, size, width, height, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))
ON CONFLICT(id) DO UPDATE SET
	category = excluded.category,
	mime_type = excluded.mime_type,
	folder_id = excluded.folder_id,
	filename = excluded.filename,
	base_name = excluded.base_name,
	size = excluded.size,
	width = excluded.width,
	height = excluded.height,
	updated_at = excluded.updated_at
`

// ReplaceFolders swaps the whole folder collection in one transaction.
func (d *Database) ReplaceFolders(ctx context.Context, folders []ingest.Folder) error {
	return d.withTx(ctx, "replace_folders", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM folders"); err != nil {
			return fmt.Errorf("delete folders: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, "INSERT INTO folders (id, name) VALUES (?, ?)")
		if err != nil {
			return fmt.Errorf("prepare folder insert: %w", err)
		}
		defer stmt.Close()

		for _, f := range folders {
			if _, err := stmt.ExecContext(ctx, f.ID, f.Name); err != nil {
				return fmt.Errorf("insert folder %q: %w", f.ID, err)
			}
		}
		return nil
	})
}

// ReplaceFiles swaps the whole file collection in one transaction.
func (d *Database) ReplaceFiles(ctx context.Context, files []ingest.FileRecord) error {
	return d.withTx(ctx, "replace_files", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM files"); err != nil {
			return fmt.Errorf("delete files: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, upsertFileQuery)
		if err != nil {
			return fmt.Errorf("prepare file insert: %w", err)
		}
		defer stmt.Close()

		for i := range files {
			if _, err := stmt.ExecContext(ctx, fileArgs(&files[i])...); err != nil {
				return fmt.Errorf("insert file %s: %w", files[i].ID, err)
			}
		}
		return nil
	})
}

// UpsertFile inserts file or overwrites the record with the same ID.
func (d *Database) UpsertFile(ctx context.Context, file ingest.FileRecord) error {
	return d.withTx(ctx, "upsert_file", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, upsertFileQuery, fileArgs(&file)...); err != nil {
			return fmt.Errorf("upsert file %s: %w", file.ID, err)
		}
		return nil
	})
}

func fileArgs(f *ingest.FileRecord) []any {
	var width, height sql.NullInt64
	if f.Extra != nil {
		width = sql.NullInt64{Int64: int64(f.Extra.Width), Valid: true}
		height = sql.NullInt64{Int64: int64(f.Extra.Height), Valid: true}
	}
	return []any{f.ID, string(f.Category), f.MimeType, f.FolderID, f.Filename, f.BaseName, f.Size, width, height}
}

// GetFile returns the record with id, or ErrNotFound.
func (d *Database) GetFile(ctx context.Context, id string) (*ingest.FileRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var (
		f             ingest.FileRecord
		category      string
		width, height sql.NullInt64
	)
	err := d.db.QueryRowContext(ctx, `
		SELECT id, category, mime_type, folder_id, filename, base_name, size, width, height
		FROM files WHERE id = ?`, id).Scan(
		&f.ID, &category, &f.MimeType, &f.FolderID, &f.Filename, &f.BaseName, &f.Size, &width, &height,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	f.Category = mediatypes.Category(category)
	if width.Valid && height.Valid {
		f.Extra = &ingest.ImageExtra{Width: int(width.Int64), Height: int(height.Int64)}
	}
	return &f, nil
}

// ListFolders returns every folder ordered by name.
func (d *Database) ListFolders(ctx context.Context) ([]ingest.Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, "SELECT id, name FROM folders ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []ingest.Folder
	for rows.Next() {
		var f ingest.Folder
		if err := rows.Scan(&f.ID, &f.Name); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// FileIDs returns the set of every cataloged file ID.
func (d *Database) FileIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT id FROM files")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// CountFolders returns the number of folder records.
func (d *Database) CountFolders(ctx context.Context) (int, error) {
	return d.count(ctx, "SELECT COUNT(*) FROM folders")
}

// CountFiles returns the number of file records.
func (d *Database) CountFiles(ctx context.Context) (int, error) {
	return d.count(ctx, "SELECT COUNT(*) FROM files")
}

func (d *Database) count(ctx context.Context, query string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var n int
	if err := d.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CatalogStats implements metrics.StatsProvider.
func (d *Database) CatalogStats(ctx context.Context) (metrics.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var stats metrics.Stats
	err := d.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM folders),
			(SELECT COUNT(*) FROM files WHERE category = ?),
			(SELECT COUNT(*) FROM files WHERE category = ?)`,
		string(mediatypes.CategoryImage), string(mediatypes.CategoryBinary),
	).Scan(&stats.TotalFolders, &stats.TotalImages, &stats.TotalBinary)
	if err != nil {
		return metrics.Stats{}, err
	}
	return stats, nil
}
