package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const folderColumns = `id, name, parent_id, color, created_at`

func scanFolder(row pgx.Row) (*Folder, error) {
	var f Folder
	if err := row.Scan(&f.ID, &f.Name, &f.ParentID, &f.Color, &f.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	return &f, nil
}

func collectFolders(rows pgx.Rows, err error) ([]Folder, error) {
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	folders := []Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, *f)
	}
	return folders, rows.Err()
}

// CreateFolder inserts a folder. ID, Color and CreatedAt are assigned when empty.
func (q *Queries) CreateFolder(ctx context.Context, folder *Folder) error {
	if folder.ID == uuid.Nil {
		folder.ID = q.newID()
	}
	if folder.Color == "" {
		folder.Color = DefaultFolderColor
	}
	if folder.CreatedAt.IsZero() {
		folder.CreatedAt = q.now()
	}

	query := `
		INSERT INTO folders (` + folderColumns + `)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := q.db.Exec(ctx, query, folder.ID, folder.Name, folder.ParentID, folder.Color, folder.CreatedAt)
	if err != nil {
		return fmt.Errorf("create folder: %w", mapError(err))
	}
	return nil
}

// GetFolder returns the folder with id.
func (q *Queries) GetFolder(ctx context.Context, id uuid.UUID) (*Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE id = $1`
	return scanFolder(q.db.QueryRow(ctx, query, id))
}

// ListFolders returns every folder ordered by name.
func (q *Queries) ListFolders(ctx context.Context) ([]Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders ORDER BY name, id`
	return collectFolders(q.db.Query(ctx, query))
}

// ListChildFolders returns the direct children of a folder ordered by name.
// A nil parentID lists the top-level folders.
func (q *Queries) ListChildFolders(ctx context.Context, parentID *uuid.UUID) ([]Folder, error) {
	if parentID == nil {
		query := `SELECT ` + folderColumns + ` FROM folders WHERE parent_id IS NULL ORDER BY name, id`
		return collectFolders(q.db.Query(ctx, query))
	}
	query := `SELECT ` + folderColumns + ` FROM folders WHERE parent_id = $1 ORDER BY name, id`
	return collectFolders(q.db.Query(ctx, query, *parentID))
}

// UpdateFolder applies upd and returns the updated folder.
func (q *Queries) UpdateFolder(ctx context.Context, id uuid.UUID, upd FolderUpdate) (*Folder, error) {
	query := `
		UPDATE folders SET
			name = COALESCE($2, name),
			color = COALESCE($3, color),
			parent_id = CASE WHEN $4 THEN NULL ELSE COALESCE($5, parent_id) END
		WHERE id = $1
		RETURNING ` + folderColumns
	f, err := scanFolder(q.db.QueryRow(ctx, query, id, upd.Name, upd.Color, upd.ClearParent, upd.ParentID))
	if err != nil {
		return nil, fmt.Errorf("update folder: %w", err)
	}
	return f, nil
}

// DeleteFolder removes a folder. Its files and subfolders move to the root.
func (q *Queries) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM folders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete folder: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IsFolderAncestor reports whether ancestorID is id itself or one of its
// ancestors. Making a folder a child of any of its descendants would close a
// cycle, so callers check IsFolderAncestor(ctx, newParent, folder) first.
func (q *Queries) IsFolderAncestor(ctx context.Context, id, ancestorID uuid.UUID) (bool, error) {
	query := `
		WITH RECURSIVE chain AS (
			SELECT id, parent_id FROM folders WHERE id = $1
			UNION
			SELECT f.id, f.parent_id FROM folders f JOIN chain c ON f.id = c.parent_id
		)
		SELECT EXISTS (SELECT 1 FROM chain WHERE id = $2)
	`
	var ok bool
	if err := q.db.QueryRow(ctx, query, id, ancestorID).Scan(&ok); err != nil {
		return false, fmt.Errorf("folder ancestors: %w", mapError(err))
	}
	return ok, nil
}
