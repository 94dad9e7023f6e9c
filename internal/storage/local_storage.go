package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalStorage{basePath: basePath}, nil
}

// resolve maps a slash-separated blob path onto the base directory and
// refuses anything that would escape it.
func (ls *LocalStorage) resolve(path string) (string, error) {
	if path == "" || strings.HasPrefix(path, "/") {
		return "", ErrInvalidPath
	}
	full := filepath.Join(ls.basePath, filepath.FromSlash(path))
	rel, err := filepath.Rel(ls.basePath, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return full, nil
}

func (ls *LocalStorage) Save(path string, data io.Reader) (int64, error) {
	filePath, err := ls.resolve(path)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), os.ModePerm); err != nil {
		return 0, err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(file, data)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// A failed upload leaves nothing behind at the path.
		os.Remove(filePath)
		return 0, err
	}
	return written, nil
}

func (ls *LocalStorage) Get(path string) (io.ReadCloser, error) {
	filePath, err := ls.resolve(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %s not found: %w", path, err)
		}
		return nil, err
	}

	return file, nil
}

func (ls *LocalStorage) Delete(path string) error {
	filePath, err := ls.resolve(path)
	if err != nil {
		return err
	}

	err = os.Remove(filePath)
	if os.IsNotExist(err) {
		return nil
	}

	return err
}
