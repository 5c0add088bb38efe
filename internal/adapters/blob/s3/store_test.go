package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"animal-shelter/internal/platform/apperr"

	"github.com/juju/errors"
)

// fakeBucket atiende PUT/GET/DELETE path-style sobre /<bucket>/<key>.
type fakeBucket struct {
	mu      sync.Mutex
	bucket  string
	objects map[string]fakeObject
}

type fakeObject struct {
	body        []byte
	contentType string
}

func (f *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key, ok := strings.CutPrefix(r.URL.Path, "/"+f.bucket+"/")
	if !ok || key == "" {
		http.Error(w, "bad path "+r.URL.Path, http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.Method {
	case http.MethodPut:
		b, _ := io.ReadAll(r.Body)
		f.objects[key] = fakeObject{body: b, contentType: r.Header.Get("Content-Type")}
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		obj, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><Key>`+key+`</Key></Error>`)
			return
		}
		w.Header().Set("Content-Type", obj.contentType)
		_, _ = w.Write(obj.body)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeBucket) body(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.objects[key].body)
}

func newTestStore(t *testing.T) (*Store, *fakeBucket) {
	t.Helper()
	fake := &fakeBucket{bucket: "fotos", objects: map[string]fakeObject{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	st, err := New(context.Background(), Config{
		Region:          "us-east-1",
		Bucket:          "fotos",
		Endpoint:        srv.URL,
		PathStyle:       true,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return st, fake
}

func TestPutOpenDelete(t *testing.T) {
	st, fake := newTestStore(t)
	ctx := context.Background()
	key := "1710000000000-ab12cd34-toby.png"

	if err := st.Put(ctx, key, "image/png", strings.NewReader("png-bytes")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if got := fake.body(key); got != "png-bytes" {
		t.Fatalf("unexpected stored body %q", got)
	}

	rc, ct, err := st.Open(ctx, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	b, _ := io.ReadAll(rc)
	rc.Close()
	if string(b) != "png-bytes" || ct != "image/png" {
		t.Fatalf("unexpected blob %q %q", b, ct)
	}

	if err := st.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := st.Open(ctx, key); !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestOpenMissingKey(t *testing.T) {
	st, _ := newTestStore(t)

	_, _, err := st.Open(context.Background(), "missing.jpg")
	if !errors.Is(err, apperr.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); !errors.Is(err, apperr.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
