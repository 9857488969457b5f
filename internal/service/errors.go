package service

import "errors"

var (
	ErrTableNotFound  = errors.New("table not found in sync catalog")
	ErrSinceRequired  = errors.New("since timestamp is required")
	ErrSyncInProgress = errors.New("another sync run is in progress")
)
