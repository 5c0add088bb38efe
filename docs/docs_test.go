package docs

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var routerLine = regexp.MustCompile(`^// @Router\s+(\S+)\s+\[(\w+)\]`)

type operation struct {
	Summary string `json:"summary"`
}

// annotations devuelve "método ruta" -> @Summary de cada handler.
func annotations(t *testing.T) map[string]string {
	t.Helper()
	files, err := filepath.Glob("../internal/domain/*/handler.go")
	if err != nil || len(files) == 0 {
		t.Fatalf("handlers: %v (%d)", err, len(files))
	}
	out := map[string]string{}
	for _, f := range files {
		fh, err := os.Open(f)
		if err != nil {
			t.Fatal(err)
		}
		summary := ""
		sc := bufio.NewScanner(fh)
		for sc.Scan() {
			line := sc.Text()
			if s, ok := strings.CutPrefix(line, "// @Summary "); ok {
				summary = strings.TrimSpace(s)
				continue
			}
			if m := routerLine.FindStringSubmatch(line); m != nil {
				out[m[2]+" "+m[1]] = summary
				summary = ""
			}
		}
		fh.Close()
	}
	return out
}

func TestDocMatchesHandlerAnnotations(t *testing.T) {
	var doc struct {
		BasePath string                          `json:"basePath"`
		Paths    map[string]map[string]operation `json:"paths"`
	}
	if err := json.Unmarshal([]byte(SwaggerInfo.ReadDoc()), &doc); err != nil {
		t.Fatalf("doc inválido: %v", err)
	}
	if doc.BasePath != "/api" {
		t.Fatalf("basePath = %q", doc.BasePath)
	}

	want := annotations(t)
	got := map[string]string{}
	for path, ops := range doc.Paths {
		for method, op := range ops {
			got[method+" "+path] = op.Summary
		}
	}
	for k, summary := range want {
		s, ok := got[k]
		if !ok {
			t.Errorf("falta %s en el doc", k)
			continue
		}
		if s != summary {
			t.Errorf("%s: summary %q, handler dice %q", k, s, summary)
		}
	}
	for k := range got {
		if _, ok := want[k]; !ok {
			t.Errorf("%s documentada sin handler", k)
		}
	}
}
