package db

import (
	"errors"

	"github.com/dmitrymomot/filedeck/pkg/pg"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicate        = errors.New("record already exists")
	ErrInvalidReference = errors.New("referenced record does not exist")
	ErrConstraint       = errors.New("record violates a constraint")
)

// mapError translates driver errors into package errors.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case pg.IsNotFoundError(err):
		return errors.Join(ErrNotFound, err)
	case pg.IsDuplicateKeyError(err):
		return errors.Join(ErrDuplicate, err)
	case pg.IsForeignKeyViolationError(err):
		return errors.Join(ErrInvalidReference, err)
	case pg.IsCheckViolationError(err):
		return errors.Join(ErrConstraint, err)
	default:
		return err
	}
}
