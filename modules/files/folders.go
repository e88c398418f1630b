package files

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/filedeck/handler"
	"github.com/dmitrymomot/filedeck/svc/filemanager"
)

// NullableID tells an absent JSON id apart from an explicit null.
type NullableID struct {
	Set bool
	ID  *uuid.UUID
}

func (n *NullableID) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(data, []byte("null")) {
		n.ID = nil
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	n.ID = &id
	return nil
}

type CreateFolderRequest struct {
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parentId"`
	Color    string     `json:"color"`
}

// UpdateFolderRequest changes only the fields present in the body.
// "parentId": null moves the folder to the root.
type UpdateFolderRequest struct {
	ID       uuid.UUID  `path:"id" json:"-"`
	Name     *string    `json:"name"`
	Color    *string    `json:"color"`
	ParentID NullableID `json:"parentId"`
}

type FolderContentsRequest struct {
	Ref string `path:"id"`
}

type FolderRequest struct {
	ID uuid.UUID `path:"id"`
}

func (s *Service) listFolders(ctx handler.Context, _ struct{}) handler.Response {
	folders, err := s.files.ListFolders(ctx)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(folders)
}

func (s *Service) folderContents(ctx handler.Context, req FolderContentsRequest) handler.Response {
	contents, err := s.files.FolderContents(ctx, req.Ref)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(contents)
}

func (s *Service) createFolder(ctx handler.Context, req CreateFolderRequest) handler.Response {
	folder, err := s.files.CreateFolder(ctx, filemanager.NewFolder{
		Name:     req.Name,
		ParentID: req.ParentID,
		Color:    req.Color,
	})
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(folder, handler.WithJSONStatus(http.StatusCreated))
}

func (s *Service) updateFolder(ctx handler.Context, req UpdateFolderRequest) handler.Response {
	changes := filemanager.FolderChanges{
		Name:       req.Name,
		Color:      req.Color,
		ParentID:   req.ParentID.ID,
		MoveToRoot: req.ParentID.Set && req.ParentID.ID == nil,
	}
	folder, err := s.files.UpdateFolder(ctx, req.ID, changes)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.JSON(folder)
}

func (s *Service) deleteFolder(ctx handler.Context, req FolderRequest) handler.Response {
	if err := s.files.DeleteFolder(ctx, req.ID); err != nil {
		return handler.Fail(err)
	}
	return handler.Empty()
}
