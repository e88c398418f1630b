package filemanager

import "errors"

var (
	ErrFileNotFound   = errors.New("file not found")
	ErrFolderNotFound = errors.New("folder not found")
	ErrObjectMissing  = errors.New("object not found in storage")
	ErrFolderCycle    = errors.New("folder cannot be moved into itself or its descendants")
	ErrInvalidColor   = errors.New("invalid folder color")
	ErrEmptySelection = errors.New("no files selected")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnknownFolder  = errors.New("parent folder does not exist")
)
