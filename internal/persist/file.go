package persist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"calassist/internal/config"
	"calassist/internal/model"
)

// FileStore keeps the user record as one JSON document on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string {
	return f.path
}

// Load returns ErrNotFound when the file does not exist yet.
func (f *FileStore) Load(_ context.Context) (model.User, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("read %s: %w", f.path, err)
	}
	return decodeUser(data)
}

// Save overwrites the whole document atomically.
func (f *FileStore) Save(ctx context.Context, u model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeUser(u)
	if err != nil {
		return err
	}
	if err := config.WriteFileAtomic(f.path, data, ".userInfo-*.tmp"); err != nil {
		return fmt.Errorf("write %s: %w", f.path, err)
	}
	return nil
}
