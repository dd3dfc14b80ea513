package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUserNotFound       = fmt.Errorf("user %w", ErrNotFound)
	ErrPostNotFound       = fmt.Errorf("post %w", ErrNotFound)
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidUsername    = errors.New("username must be 3-20 characters of letters, digits or underscore")
	ErrInvalidPassword    = errors.New("password must be between 6 and 72 characters")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmptyContent       = errors.New("post content cannot be empty")
	ErrContentTooLong     = errors.New("post content is too long")
	ErrForbidden          = errors.New("forbidden")
	ErrSelfFollow         = errors.New("cannot follow yourself")
	ErrAvatarTooLarge     = errors.New("avatar is too large")
	ErrInvalidAvatar      = errors.New("invalid avatar data")
	ErrInvalidToken       = errors.New("invalid session token")
)

// StorageError marks a failure of the storage layer (constraint, I/O).
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
