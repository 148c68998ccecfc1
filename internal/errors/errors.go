package errors

import "errors"

var (
	ErrBackendNotConfigured = errors.New("backend is not configured")
	ErrBackendUnavailable   = errors.New("backend unavailable")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrSessionExpired       = errors.New("session expired")
	ErrUnauthorized         = errors.New("unauthorized access")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrUnknownService       = errors.New("unknown service")
	ErrUploadNotFound       = errors.New("upload not found")
	ErrInvalidFileType      = errors.New("invalid file type")
	ErrFileTooLarge         = errors.New("file too large")
	ErrEmptyFile            = errors.New("empty file")
	ErrClientIDEmpty        = errors.New("client id is empty")
	ErrStorageKeyEmpty      = errors.New("storage key is empty")
	ErrStorageClosed        = errors.New("storage is closed")
)
