// Package storage keeps uploaded files on local disk or in an S3-compatible
// bucket. Both backends hand back the public URL of the stored object.
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

// Disk writes objects under Dir. URLPrefix is where the app serves Dir,
// usually through app.Static("/uploads", Dir).
type Disk struct {
	Dir       string
	URLPrefix string
}

func NewDisk(dir, urlPrefix string) *Disk {
	return &Disk{Dir: dir, URLPrefix: strings.TrimRight(urlPrefix, "/")}
}

func (d *Disk) Put(_ context.Context, key, _ string, body io.Reader) (string, error) {
	full, err := d.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", key, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("close %s: %w", key, err)
	}
	return d.URLPrefix + "/" + key, nil
}

func (d *Disk) Delete(_ context.Context, key string) error {
	full, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// path maps a slash-separated key into Dir, refusing keys that escape it.
func (d *Disk) path(key string) (string, error) {
	local := filepath.FromSlash(key)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(d.Dir, local), nil
}
