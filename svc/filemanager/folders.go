package filemanager

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"

	"github.com/dmitrymomot/filedeck/internal/db"
	"github.com/dmitrymomot/filedeck/pkg/logger"
)

// RootFolder addresses the top level in FolderContents.
const RootFolder = "root"

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// NewFolder describes a folder to create.
type NewFolder struct {
	Name     string
	ParentID *uuid.UUID
	Color    string
}

// FolderChanges lists folder fields to update. Nil fields are left unchanged.
// MoveToRoot detaches the folder from its parent.
type FolderChanges struct {
	Name       *string
	Color      *string
	ParentID   *uuid.UUID
	MoveToRoot bool
}

// FolderContents is a folder with its direct children. Folder is nil for the root.
type FolderContents struct {
	Folder  *db.Folder  `json:"folder"`
	Folders []db.Folder `json:"folders"`
	Files   []db.File   `json:"files"`
}

// ListFolders returns every folder ordered by name.
func (s *Service) ListFolders(ctx context.Context) ([]db.Folder, error) {
	return s.repo.ListFolders(ctx)
}

// FolderContents returns the folders and files directly inside ref, which is
// a folder ID or RootFolder.
func (s *Service) FolderContents(ctx context.Context, ref string) (*FolderContents, error) {
	out := &FolderContents{}

	var parent *uuid.UUID
	if ref != "" && ref != RootFolder {
		id, err := uuid.Parse(ref)
		if err != nil {
			return nil, ErrFolderNotFound
		}
		folder, err := s.repo.GetFolder(ctx, id)
		if err != nil {
			return nil, s.folderErr(err)
		}
		out.Folder = folder
		parent = &folder.ID
	}

	folders, err := s.repo.ListChildFolders(ctx, parent)
	if err != nil {
		return nil, err
	}
	files, err := s.repo.ListFilesByFolder(ctx, parent)
	if err != nil {
		return nil, err
	}
	out.Folders = folders
	out.Files = files
	return out, nil
}

// CreateFolder validates and creates a folder. An empty color gets the default.
func (s *Service) CreateFolder(ctx context.Context, in NewFolder) (*db.Folder, error) {
	res := s.validator.ValidateFolderName(in.Name)
	if err := res.Err(); err != nil {
		return nil, err
	}

	color := in.Color
	if color == "" {
		color = db.DefaultFolderColor
	}
	if !colorPattern.MatchString(color) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}
	if err := s.ensureFolder(ctx, in.ParentID); err != nil {
		return nil, err
	}

	folder := &db.Folder{
		Name:      res.Sanitized,
		ParentID:  in.ParentID,
		Color:     color,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateFolder(ctx, folder); err != nil {
		if errors.Is(err, db.ErrInvalidReference) {
			return nil, ErrUnknownFolder
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "folder created",
		logger.FolderID(folder.ID),
		logger.Component("filemanager"),
	)
	return folder, nil
}

// UpdateFolder renames, recolors or moves a folder. A folder cannot be moved
// under itself or any of its descendants.
func (s *Service) UpdateFolder(ctx context.Context, id uuid.UUID, ch FolderChanges) (*db.Folder, error) {
	if _, err := s.repo.GetFolder(ctx, id); err != nil {
		return nil, s.folderErr(err)
	}

	upd := db.FolderUpdate{ClearParent: ch.MoveToRoot && ch.ParentID == nil}
	if ch.Name != nil {
		res := s.validator.ValidateFolderName(*ch.Name)
		if err := res.Err(); err != nil {
			return nil, err
		}
		upd.Name = &res.Sanitized
	}
	if ch.Color != nil {
		if !colorPattern.MatchString(*ch.Color) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidColor, *ch.Color)
		}
		upd.Color = ch.Color
	}
	if ch.ParentID != nil {
		if err := s.checkParent(ctx, id, *ch.ParentID); err != nil {
			return nil, err
		}
		upd.ParentID = ch.ParentID
	}

	folder, err := s.repo.UpdateFolder(ctx, id, upd)
	if err != nil {
		if errors.Is(err, db.ErrInvalidReference) {
			return nil, ErrUnknownFolder
		}
		return nil, s.folderErr(err)
	}
	return folder, nil
}

// DeleteFolder removes a folder. Its subfolders and files move to the root.
func (s *Service) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteFolder(ctx, id); err != nil {
		return s.folderErr(err)
	}
	s.logger.InfoContext(ctx, "folder deleted",
		logger.FolderID(id),
		logger.Component("filemanager"),
	)
	return nil
}

func (s *Service) checkParent(ctx context.Context, id, parentID uuid.UUID) error {
	if parentID == id {
		return ErrFolderCycle
	}
	if err := s.ensureFolder(ctx, &parentID); err != nil {
		return err
	}
	cycle, err := s.repo.IsFolderAncestor(ctx, parentID, id)
	if err != nil {
		return err
	}
	if cycle {
		return ErrFolderCycle
	}
	return nil
}

func (s *Service) folderErr(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return ErrFolderNotFound
	}
	return err
}
