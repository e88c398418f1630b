package db

import (
	"time"

	"github.com/google/uuid"
)

// File statuses.
const (
	FileStatusProcessing = "processing"
	FileStatusSynced     = "synced"
	FileStatusFailed     = "failed"
)

// DefaultFolderColor is assigned to folders created without a color.
const DefaultFolderColor = "#3B82F6"

// User represents an account.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// File is the logical record of an uploaded object.
type File struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	OriginalName string         `json:"original_name"`
	Size         int64          `json:"size"`
	MimeType     string         `json:"mime_type"`
	ObjectPath   string         `json:"object_path"`
	UploadedAt   time.Time      `json:"uploaded_at"`
	Status       string         `json:"status"`
	FolderID     *uuid.UUID     `json:"folder_id"`
	UploadedBy   *uuid.UUID     `json:"uploaded_by,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// FileUpdate lists the mutable file fields. Nil fields are left unchanged.
// ClearFolder moves the file to the root folder.
type FileUpdate struct {
	Name        *string
	FolderID    *uuid.UUID
	ClearFolder bool
	Status      *string
}

// Folder groups files and other folders.
type Folder struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	ParentID  *uuid.UUID `json:"parent_id"`
	Color     string     `json:"color"`
	CreatedAt time.Time  `json:"created_at"`
}

// FolderUpdate lists the mutable folder fields. Nil fields are left unchanged.
// ClearParent moves the folder to the root.
type FolderUpdate struct {
	Name        *string
	Color       *string
	ParentID    *uuid.UUID
	ClearParent bool
}

// Session is the persisted form of an HTTP session.
type Session struct {
	ID             uuid.UUID
	Token          string
	UserID         *uuid.UUID
	Fingerprint    string
	Data           map[string]any
	ExpiresAt      time.Time
	LastActivityAt time.Time
	CreatedAt      time.Time
}
