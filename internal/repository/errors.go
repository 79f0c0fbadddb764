package repository

import (
	"errors"
	"fmt"
)

// Storage failure kinds. Both are always wrapped in a *StorageError.
var (
	// ErrUniqueViolation means a commit collided with a unique index.
	ErrUniqueViolation = errors.New("unique constraint violation")
	// ErrStaleEntity means an update or delete matched no stored row.
	ErrStaleEntity = errors.New("entity no longer exists")
	// ErrUnknownColumn means a filter referenced a column the schema does not define.
	ErrUnknownColumn = errors.New("unknown column")
)

// StorageError reports a failure of the underlying entity store:
// connectivity, constraint violations or a rejected query.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
