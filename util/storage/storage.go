package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store saves multipart uploads under a public directory and builds URLs the
// way the storefronts expect them (<base>/storage/<subdir>/<file>).
type Store struct {
	Root    string // local directory, e.g. ./storage
	BaseURL string // public prefix, e.g. https://api.example.com
}

func New(root, baseURL string) *Store {
	return &Store{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}
}

var allowedExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true,
}

// Save writes one uploaded file into subdir and returns its public URL.
// The stored name is a UUID so client filenames never hit the filesystem.
func (s *Store) Save(fh *multipart.FileHeader, subdir string) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExt[ext] {
		return "", fmt.Errorf("unsupported file type %q", ext)
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dir := filepath.Join(s.Root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return s.BaseURL + "/" + path.Join("storage", subdir, name), nil
}
