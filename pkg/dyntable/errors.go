package dyntable

import "errors"

var (
	ErrNotFound                  = errors.New("not found")
	ErrAlreadyExists             = errors.New("already exists")
	ErrValidation                = errors.New("validation failed")
	ErrInvalidColumnType         = errors.New("invalid column type")
	ErrPermissionDenied          = errors.New("permission denied")
	ErrMaterializationIncomplete = errors.New("materialization incomplete")
)
