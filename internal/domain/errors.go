package domain

import "errors"

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrSessionNotFound  = errors.New("session mapping not found")
	ErrSessionExpired   = errors.New("session expired")
	ErrUnknownProvider  = errors.New("unknown provider")
)
