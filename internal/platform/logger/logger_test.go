package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func fixedClock() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

func TestLogger_TextIsSortedAndFiltered(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Out: &buf, Level: Info, App: "shelter", Clock: fixedClock})

	log.Debug("hidden", nil)
	log.With(map[string]any{"animal_id": 7}).Info("estado cambiado", map[string]any{"to": "disponible"})

	got := strings.TrimSpace(buf.String())
	want := `animal_id=7 app=shelter level=info msg="estado cambiado" to=disponible ts=2025-03-01T12:00:00Z`
	if got != want {
		t.Fatalf("unexpected line:\n got: %s\nwant: %s", got, want)
	}
}

func TestLogger_JSONRendersErrors(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Out: &buf, Format: FormatJSON, Clock: fixedClock})

	log.Error("insert failed", map[string]any{"err": errors.New("deadlock")})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json line: %v", err)
	}
	if entry["err"] != "deadlock" || entry["level"] != "error" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("WARNING") != Warn || ParseLevel("") != Info || ParseLevel("debug") != Debug {
		t.Fatalf("ParseLevel mapping broken")
	}
}
