package repository

import "errors"

var (
	ErrNotFound         = errors.New("entity not found")
	ErrCorruptSnapshot  = errors.New("stored cart snapshot is not valid")
	ErrConnectionFailed = errors.New("storage connection failed")
)
