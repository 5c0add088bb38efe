// Package uploads guarda en el blob store las fotos que llegan en un form multipart.
package uploads

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"animal-shelter/internal/ports/blob"

	"github.com/google/uuid"
	"github.com/juju/errors"
)

const (
	FormField   = "fotos"
	MaxFiles    = 5
	MaxFileSize = 5 << 20
)

// IsMultipart indica si el request trae multipart/form-data.
func IsMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}

// ParseForm lee el form con el límite total de fotos más un margen para los campos de texto.
func ParseForm(r *http.Request) error {
	r.Body = http.MaxBytesReader(nil, r.Body, MaxFiles*MaxFileSize+(1<<20))
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		return errors.NotValidf("multipart form (%v)", err)
	}
	return nil
}

// SaveFormFiles guarda los archivos del campo fotos y devuelve sus URLs (/uploads/<key>).
// Debe llamarse después de ParseForm.
func SaveFormFiles(ctx context.Context, store blob.Store, r *http.Request, now time.Time) ([]string, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	files := r.MultipartForm.File[FormField]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > MaxFiles {
		return nil, errors.NotValidf("more than %d photos", MaxFiles)
	}
	for _, fh := range files {
		if fh.Size > MaxFileSize {
			return nil, errors.NotValidf("photo %q larger than 5MB", fh.Filename)
		}
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		key := Key(now, shortID(), fh.Filename)
		if err := put(ctx, store, key, fh); err != nil {
			_ = Discard(ctx, store, urls)
			return nil, err
		}
		urls = append(urls, blob.URL(key))
	}
	return urls, nil
}

// Discard borra las fotos ya guardadas cuando el alta que las referenciaba falló.
// Ignora referencias que no son de /uploads y sigue ante errores; devuelve el primero.
func Discard(ctx context.Context, store blob.Store, urls []string) error {
	var first error
	for _, u := range urls {
		key, ok := blob.KeyFromURL(u)
		if !ok {
			continue
		}
		if err := store.Delete(ctx, key); err != nil && first == nil {
			first = errors.Annotatef(err, "discard upload %q", key)
		}
	}
	return first
}

func put(ctx context.Context, store blob.Store, key string, fh *multipart.FileHeader) error {
	f, err := fh.Open()
	if err != nil {
		return errors.Annotatef(err, "open upload %q", fh.Filename)
	}
	defer f.Close()

	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	if err := store.Put(ctx, key, ct, f); err != nil {
		return errors.Annotatef(err, "store upload %q", key)
	}
	return nil
}

// Key arma la clave "<unix-millis>-<id>-<nombre>". El id evita que dos requests con
// el mismo archivo en el mismo milisegundo se pisen. El nombre se reduce a su base y
// sin separadores para que nunca escape del directorio/bucket.
func Key(now time.Time, id, filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r < 0x20:
			return -1
		case r == ' ':
			return '_'
		default:
			return r
		}
	}, name)
	if name == "" || name == "." || name == ".." {
		name = "foto"
	}
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), id, name)
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
