package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const fileColumns = `id, name, original_name, size, mime_type, object_path, uploaded_at, status, folder_id, uploaded_by, metadata`

func scanFile(row pgx.Row) (*File, error) {
	var f File
	err := row.Scan(&f.ID, &f.Name, &f.OriginalName, &f.Size, &f.MimeType, &f.ObjectPath,
		&f.UploadedAt, &f.Status, &f.FolderID, &f.UploadedBy, &f.Metadata)
	if err != nil {
		return nil, mapError(err)
	}
	return &f, nil
}

func collectFiles(rows pgx.Rows, err error) ([]File, error) {
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	files := []File{}
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// CreateFile inserts a file record. ID, UploadedAt and Status are assigned
// when empty.
func (q *Queries) CreateFile(ctx context.Context, file *File) error {
	if file.ID == uuid.Nil {
		file.ID = q.newID()
	}
	if file.UploadedAt.IsZero() {
		file.UploadedAt = q.now()
	}
	if file.Status == "" {
		file.Status = FileStatusProcessing
	}
	if file.Metadata == nil {
		file.Metadata = map[string]any{}
	}

	query := `
		INSERT INTO files (` + fileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := q.db.Exec(ctx, query,
		file.ID, file.Name, file.OriginalName, file.Size, file.MimeType, file.ObjectPath,
		file.UploadedAt, file.Status, file.FolderID, file.UploadedBy, file.Metadata)
	if err != nil {
		return fmt.Errorf("create file: %w", mapError(err))
	}
	return nil
}

// GetFile returns the file with id.
func (q *Queries) GetFile(ctx context.Context, id uuid.UUID) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	return scanFile(q.db.QueryRow(ctx, query, id))
}

// GetFileByObjectPath returns the newest file stored at objectPath.
func (q *Queries) GetFileByObjectPath(ctx context.Context, objectPath string) (*File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE object_path = $1 ORDER BY uploaded_at DESC LIMIT 1`
	return scanFile(q.db.QueryRow(ctx, query, objectPath))
}

// ListFiles returns every file, newest first.
func (q *Queries) ListFiles(ctx context.Context) ([]File, error) {
	query := `SELECT ` + fileColumns + ` FROM files ORDER BY uploaded_at DESC, id`
	return collectFiles(q.db.Query(ctx, query))
}

// ListFilesByFolder returns the files of a folder, newest first.
// A nil folderID lists the root.
func (q *Queries) ListFilesByFolder(ctx context.Context, folderID *uuid.UUID) ([]File, error) {
	if folderID == nil {
		query := `SELECT ` + fileColumns + ` FROM files WHERE folder_id IS NULL ORDER BY uploaded_at DESC, id`
		return collectFiles(q.db.Query(ctx, query))
	}
	query := `SELECT ` + fileColumns + ` FROM files WHERE folder_id = $1 ORDER BY uploaded_at DESC, id`
	return collectFiles(q.db.Query(ctx, query, *folderID))
}

// FileSearch filters SearchFiles. An empty Query matches every name and an
// empty MimeTypes matches every type.
type FileSearch struct {
	Query     string
	MimeTypes []string
}

// SearchFiles returns files whose original name contains the query
// (case-insensitive) and whose type is in MimeTypes, newest first.
func (q *Queries) SearchFiles(ctx context.Context, s FileSearch) ([]File, error) {
	mimeTypes := s.MimeTypes
	if mimeTypes == nil {
		mimeTypes = []string{}
	}

	query := `
		SELECT ` + fileColumns + `
		FROM files
		WHERE ($1 = '' OR original_name ILIKE '%' || $1 || '%' ESCAPE '\')
		  AND (cardinality($2::text[]) = 0 OR mime_type = ANY($2::text[]))
		ORDER BY uploaded_at DESC, id
	`
	return collectFiles(q.db.Query(ctx, query, escapeLike(s.Query), mimeTypes))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// UpdateFile applies upd and returns the updated record.
func (q *Queries) UpdateFile(ctx context.Context, id uuid.UUID, upd FileUpdate) (*File, error) {
	query := `
		UPDATE files SET
			name = COALESCE($2, name),
			folder_id = CASE WHEN $3 THEN NULL ELSE COALESCE($4, folder_id) END,
			status = COALESCE($5, status)
		WHERE id = $1
		RETURNING ` + fileColumns
	f, err := scanFile(q.db.QueryRow(ctx, query, id, upd.Name, upd.ClearFolder, upd.FolderID, upd.Status))
	if err != nil {
		return nil, fmt.Errorf("update file: %w", err)
	}
	return f, nil
}

// SetFileStatus updates the status of a file.
func (q *Queries) SetFileStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := q.db.Exec(ctx, `UPDATE files SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("set file status: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFile removes a file record and returns it.
func (q *Queries) DeleteFile(ctx context.Context, id uuid.UUID) (*File, error) {
	query := `DELETE FROM files WHERE id = $1 RETURNING ` + fileColumns
	f, err := scanFile(q.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("delete file: %w", err)
	}
	return f, nil
}

// DeleteFiles removes the records with the given ids and returns the deleted
// records. Unknown ids are ignored.
func (q *Queries) DeleteFiles(ctx context.Context, ids []uuid.UUID) ([]File, error) {
	if len(ids) == 0 {
		return []File{}, nil
	}
	query := `DELETE FROM files WHERE id = ANY($1::uuid[]) RETURNING ` + fileColumns
	files, err := collectFiles(q.db.Query(ctx, query, uuidStrings(ids)))
	if err != nil {
		return nil, fmt.Errorf("delete files: %w", err)
	}
	return files, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
