// Package storage keeps uploaded files on disk under one directory per project.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// ErrFileTooLarge is returned by Save when the upload exceeds its size limit.
var ErrFileTooLarge = errors.New("file too large")

// LocalFileStorage stores files relative to a root directory.
type LocalFileStorage struct {
	fs afero.Fs
}

// NewLocal returns storage rooted at dir on the OS filesystem, creating dir if needed.
func NewLocal(dir string) (*LocalFileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalFileStorage{fs: afero.NewBasePathFs(afero.NewOsFs(), dir)}, nil
}

// NewWithFs returns storage over an arbitrary filesystem.
func NewWithFs(fsys afero.Fs) *LocalFileStorage {
	return &LocalFileStorage{fs: fsys}
}

// Save copies r into <projectID>/<filename>, appending _1, _2, ... to the stem
// when the name is taken. It returns the relative path and the byte count.
func (s *LocalFileStorage) Save(projectID, filename string, r io.Reader, maxBytes int64) (string, int64, error) {
	dir := cleanSegment(projectID)
	if dir == "" {
		return "", 0, fmt.Errorf("invalid project id %q", projectID)
	}
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create project dir: %w", err)
	}

	rel, f, err := s.createUnique(dir, cleanSegment(filename))
	if err != nil {
		return "", 0, err
	}

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && maxBytes > 0 && n > maxBytes {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = s.fs.Remove(rel)
		if errors.Is(err, ErrFileTooLarge) {
			return "", 0, err
		}
		return "", 0, fmt.Errorf("write %s: %w", rel, err)
	}
	return rel, n, nil
}

func (s *LocalFileStorage) createUnique(dir, name string) (string, afero.File, error) {
	if name == "" {
		name = "unnamed"
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 1; ; i++ {
		rel := path.Join(dir, candidate)
		f, err := s.fs.OpenFile(rel, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return rel, f, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", nil, fmt.Errorf("create %s: %w", rel, err)
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
}

// cleanSegment reduces a user-supplied name to a single path element.
func cleanSegment(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(path.Clean("/" + name))
	if name == "/" || name == "." || name == ".." {
		return ""
	}
	return name
}

// ReadFile returns the contents of a stored file.
func (s *LocalFileStorage) ReadFile(rel string) ([]byte, error) {
	return afero.ReadFile(s.fs, rel)
}

// Delete removes a stored file. A missing file is not an error.
func (s *LocalFileStorage) Delete(rel string) error {
	err := s.fs.Remove(rel)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// DeleteProjectDir removes everything stored for a project.
func (s *LocalFileStorage) DeleteProjectDir(projectID string) error {
	dir := cleanSegment(projectID)
	if dir == "" {
		return nil
	}
	return s.fs.RemoveAll(dir)
}
