package blob

import (
	"context"
	"io"
	"strings"

	"github.com/juju/errors"
)

// Store guarda las fotos subidas (animales, reportes). Las claves son planas
// ("1712345678901-3f9c2a1b-firulais.jpg") y se sirven bajo /uploads/<key>.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	// Delete no falla si la clave no existe.
	Delete(ctx context.Context, key string) error
}

const URLPrefix = "/uploads/"

// URL devuelve la referencia que se persiste en la columna fotos.
func URL(key string) string { return URLPrefix + key }

// KeyFromURL es la inversa de URL; ok=false si la referencia no es de este store.
func KeyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, URLPrefix)
	return key, ok && key != ""
}

// ErrNotFound lo devuelven los drivers cuando la clave no existe.
var ErrNotFound = errors.NotFoundf("blob")
