package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage stores files on the local filesystem and serves them under publicPath.
type LocalStorage struct {
	basePath   string
	publicPath string
}

func NewLocalStorage(basePath, publicPath string) *LocalStorage {
	return &LocalStorage{basePath: basePath, publicPath: strings.TrimRight(publicPath, "/")}
}

func (s *LocalStorage) Save(_ context.Context, folder, filename string, reader io.Reader) (string, error) {
	folder = sanitizeFolder(folder)
	key := path.Join(folder, uuid.New().String()+strings.ToLower(filepath.Ext(filename)))

	full, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, reader); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return key, nil
}

func (s *LocalStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *LocalStorage) URL(key string) string {
	return s.publicPath + "/" + key
}

func (s *LocalStorage) KeyFromURL(url string) (string, error) {
	// Accept absolute URLs by locating the public prefix.
	idx := strings.Index(url, s.publicPath+"/")
	if idx < 0 {
		return "", fmt.Errorf("%w: %s", ErrInvalidKey, url)
	}
	key := url[idx+len(s.publicPath)+1:]
	if _, err := s.resolve(key); err != nil {
		return "", err
	}
	return key, nil
}

// resolve maps a key to a path inside basePath, rejecting traversal.
func (s *LocalStorage) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)[1:]
	if clean == "" || clean != key || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}
	return filepath.Join(s.basePath, filepath.FromSlash(clean)), nil
}

func sanitizeFolder(folder string) string {
	folder = strings.Trim(path.Clean("/"+folder), "/")
	if folder == "" || folder == "." {
		return "general"
	}
	return folder
}
