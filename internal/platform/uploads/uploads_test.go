package uploads

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/juju/errors"
)

type memStore map[string][]byte

func (m memStore) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m[key] = b
	return nil
}

func (m memStore) Delete(ctx context.Context, key string) error {
	delete(m, key)
	return nil
}

func (m memStore) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	b, ok := m[key]
	if !ok {
		return nil, "", errors.NotFoundf("blob %q", key)
	}
	return io.NopCloser(bytes.NewReader(b)), "", nil
}

func multipartRequest(t *testing.T, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("nombre", "Luna")
	for name, content := range files {
		fw, err := mw.CreateFormFile(FormField, name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write([]byte(content))
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/animales", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestKey(t *testing.T) {
	now := time.UnixMilli(1712345678901)
	cases := map[string]string{
		"luna.jpg":             "1712345678901-ab12cd34-luna.jpg",
		"../../etc/passwd":     "1712345678901-ab12cd34-passwd",
		`C:\fotos\mi gato.png`: "1712345678901-ab12cd34-mi_gato.png",
		"":                     "1712345678901-ab12cd34-foto",
	}
	for in, want := range cases {
		if got := Key(now, "ab12cd34", in); got != want {
			t.Fatalf("Key(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSaveFormFiles(t *testing.T) {
	req := multipartRequest(t, map[string]string{"a.jpg": "AAA", "b.jpg": "BBB"})
	if !IsMultipart(req) {
		t.Fatalf("expected multipart request")
	}
	if err := ParseForm(req); err != nil {
		t.Fatalf("parse: %v", err)
	}

	store := memStore{}
	urls, err := SaveFormFiles(context.Background(), store, req, time.UnixMilli(1000))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if len(urls) != 2 || len(store) != 2 {
		t.Fatalf("expected 2 stored photos, got urls=%v store=%d", urls, len(store))
	}
	for _, u := range urls {
		if !strings.HasPrefix(u, "/uploads/1000-") {
			t.Fatalf("unexpected url %q", u)
		}
	}
	if req.FormValue("nombre") != "Luna" {
		t.Fatalf("text fields must stay readable")
	}
}

func TestSaveFormFiles_TooMany(t *testing.T) {
	files := map[string]string{}
	for _, n := range []string{"1", "2", "3", "4", "5", "6"} {
		files[n+".jpg"] = n
	}
	req := multipartRequest(t, files)
	if err := ParseForm(req); err != nil {
		t.Fatalf("parse: %v", err)
	}

	_, err := SaveFormFiles(context.Background(), memStore{}, req, time.Now())
	if !errors.Is(err, errors.NotValid) {
		t.Fatalf("expected not valid, got %v", err)
	}
}

func TestSaveFormFiles_SameNameSameMillisecond(t *testing.T) {
	store := memStore{}
	now := time.UnixMilli(1000)
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		req := multipartRequest(t, map[string]string{"luna.jpg": "v" + string(rune('0'+i))})
		if err := ParseForm(req); err != nil {
			t.Fatalf("parse: %v", err)
		}
		urls, err := SaveFormFiles(context.Background(), store, req, now)
		if err != nil || len(urls) != 1 {
			t.Fatalf("save: urls=%v err=%v", urls, err)
		}
		if seen[urls[0]] {
			t.Fatalf("key reused across requests: %q", urls[0])
		}
		seen[urls[0]] = true
	}
	if len(store) != 2 {
		t.Fatalf("expected both uploads kept, got %d", len(store))
	}
}

// failingStore acepta n escrituras y luego falla.
type failingStore struct {
	memStore
	left int
}

func (f *failingStore) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	if f.left == 0 {
		return errors.New("disk full")
	}
	f.left--
	return f.memStore.Put(ctx, key, contentType, r)
}

func TestSaveFormFiles_CleansUpOnPartialFailure(t *testing.T) {
	req := multipartRequest(t, map[string]string{"a.jpg": "A", "b.jpg": "B", "c.jpg": "C"})
	if err := ParseForm(req); err != nil {
		t.Fatalf("parse: %v", err)
	}

	store := &failingStore{memStore: memStore{}, left: 2}
	if _, err := SaveFormFiles(context.Background(), store, req, time.Now()); err == nil {
		t.Fatalf("expected error")
	}
	if len(store.memStore) != 0 {
		t.Fatalf("expected partial uploads removed, %d left", len(store.memStore))
	}
}

func TestDiscard(t *testing.T) {
	store := memStore{"1-x-a.jpg": []byte("a"), "keep.jpg": []byte("k")}
	err := Discard(context.Background(), store, []string{"/uploads/1-x-a.jpg", "https://cdn.example.com/keep.jpg", "/uploads/missing.jpg"})
	if err != nil {
		t.Fatalf("discard: %v", err)
	}
	if _, ok := store["1-x-a.jpg"]; ok {
		t.Fatalf("expected upload removed")
	}
	if _, ok := store["keep.jpg"]; !ok {
		t.Fatalf("foreign references must be left alone")
	}
}
