package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalDisk is the local-filesystem driver.
type LocalDisk struct {
	root    string // absolute root directory
	baseURL string // public URL prefix for URL()
}

// NewLocalDisk roots the disk at root (relative to the working directory
// when not absolute) and serves URLs under baseURL.
func NewLocalDisk(root, baseURL string) (*LocalDisk, error) {
	if root == "" {
		root = "uploads"
	}
	if !filepath.IsAbs(root) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("storage/local: getwd: %w", err)
		}
		root = filepath.Join(cwd, root)
	}
	return &LocalDisk{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the absolute directory files are written to.
func (d *LocalDisk) Root() string { return d.root }

func (d *LocalDisk) abs(path string) (string, error) {
	full := filepath.Join(d.root, filepath.FromSlash(path))
	rel, err := filepath.Rel(d.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("storage/local: path %q escapes root", path)
	}
	return full, nil
}

func (d *LocalDisk) PutStream(_ context.Context, path string, r io.Reader, _ string) error {
	full, err := d.abs(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("storage/local: mkdir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("storage/local: create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("storage/local: write %s: %w", path, err)
	}
	return nil
}

func (d *LocalDisk) Exists(_ context.Context, path string) bool {
	full, err := d.abs(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

func (d *LocalDisk) URL(path string) string {
	return d.baseURL + "/" + strings.TrimLeft(filepath.ToSlash(path), "/")
}

func (d *LocalDisk) Path(url string) (string, bool) {
	prefix := d.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func (d *LocalDisk) Delete(_ context.Context, path string) error {
	full, err := d.abs(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage/local: delete %s: %w", path, err)
	}
	return nil
}
