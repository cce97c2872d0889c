package db

import "errors"

var (
	ErrNotFound     = errors.New("db: not found")
	ErrTokenReplay  = errors.New("db: token hash already seen")
)
