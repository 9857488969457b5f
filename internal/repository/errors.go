package repository

import "errors"

// Common repository errors
var (
	ErrEmptyTableName   = errors.New("table name is required")
	ErrEmptyKeyColumn   = errors.New("key column is required")
	ErrNoFilterColumns  = errors.New("change filter needs at least one timestamp column")
	ErrStoreUnavailable = errors.New("row store is not reachable")
)
