// Package fs guarda las fotos en un directorio local (UPLOAD_DIR).
package fs

import (
	"context"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"animal-shelter/internal/ports/blob"

	"github.com/juju/errors"
)

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Annotatef(err, "create upload dir %q", dir)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", errors.NotValidf("blob key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

// Put escribe a un temporal y renombra, así nunca se sirve un archivo a medias.
func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	dst, err := s.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return errors.Annotate(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return errors.Annotatef(err, "write %q", key)
	}
	if err := tmp.Close(); err != nil {
		return errors.Annotatef(err, "close %q", key)
	}
	return errors.Annotatef(os.Rename(tmp.Name(), dst), "rename %q", key)
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, "", err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", blob.ErrNotFound
	}
	if err != nil {
		return nil, "", errors.Annotatef(err, "open %q", key)
	}

	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(key)))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return f, ct, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Annotatef(err, "delete %q", key)
	}
	return nil
}
