package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type Storage interface {
	SaveAvatar(ctx context.Context, name string, data []byte, contentType string) error
	DeleteAvatar(ctx context.Context, name string) error
}

var ErrInvalidName = errors.New("недопустимое имя файла")

// validName rejects anything that is not a plain file name.
func validName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return ErrInvalidName
	}
	return nil
}

// LocalStorage keeps avatars as files in one directory.
type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать каталог аватаров: %w", err)
	}
	return &LocalStorage{dir: dir}, nil
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) SaveAvatar(ctx context.Context, name string, data []byte, _ string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("ошибка записи аватара: %w", err)
	}
	return nil
}

func (s *LocalStorage) DeleteAvatar(_ context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка удаления аватара: %w", err)
	}
	return nil
}
