// Package storage keeps uploaded files retrievable by name.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// Uploads stores file bytes under a base URL on any afs-supported scheme.
type Uploads struct {
	fs      afs.Service
	baseURL string
}

// NewUploads creates a store rooted at baseURL, e.g. file://localhost/var/data or mem://localhost/uploads.
func NewUploads(baseURL string) *Uploads {
	return &Uploads{fs: afs.New(), baseURL: strings.TrimRight(baseURL, "/")}
}

// BaseURL returns the root location.
func (u *Uploads) BaseURL() string { return u.baseURL }

// Save writes data under name, replacing any previous content.
func (u *Uploads) Save(ctx context.Context, name string, data []byte) error {
	URL, err := u.location(name)
	if err != nil {
		return err
	}
	if err := u.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

// Load returns the bytes saved under name.
func (u *Uploads) Load(ctx context.Context, name string) ([]byte, error) {
	URL, err := u.location(name)
	if err != nil {
		return nil, err
	}
	return u.fs.DownloadWithURL(ctx, URL)
}

// Exists reports whether name has been saved.
func (u *Uploads) Exists(ctx context.Context, name string) (bool, error) {
	URL, err := u.location(name)
	if err != nil {
		return false, err
	}
	return u.fs.Exists(ctx, URL)
}

func (u *Uploads) location(name string) (string, error) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == ".." || base == "" {
		return "", errors.New("invalid file name")
	}
	return url.Join(u.baseURL, base), nil
}

// Sub returns a store rooted at a child location of u.
func (u *Uploads) Sub(name string) *Uploads {
	return &Uploads{fs: u.fs, baseURL: url.Join(u.baseURL, name)}
}
