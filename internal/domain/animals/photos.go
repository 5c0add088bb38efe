package animals

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Photos es la columna fotos normalizada. En la base hay valores legados en varios
// formatos (array JSON, objeto JSON, URL suelta, NULL); todos se leen como lista.
// Siempre se escribe como array JSON.
type Photos []string

// ParsePhotos aplica la normalización:
//   - vacío => []
//   - empieza con '[' o '{' => JSON; si no es lista se envuelve en una
//   - cualquier otra cosa => [valor]
//   - JSON inválido => [valor original]
func ParsePhotos(raw string) Photos {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Photos{}
	}
	if trimmed[0] != '[' && trimmed[0] != '{' {
		return Photos{trimmed}
	}

	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return Photos{raw}
	}

	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}

	out := make(Photos, 0, len(items))
	for _, it := range items {
		out = append(out, photoString(it))
	}
	return out
}

// Los elementos no-string (objetos de formatos viejos) se conservan como su JSON.
func photoString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// Scan implementa sql.Scanner. NULL => [].
func (p *Photos) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = Photos{}
	case string:
		*p = ParsePhotos(v)
	case []byte:
		*p = ParsePhotos(string(v))
	default:
		return fmt.Errorf("photos: unsupported column type %T", src)
	}
	return nil
}

// Value implementa driver.Valuer.
func (p Photos) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(p))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// MarshalJSON nunca emite null.
func (p Photos) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(p))
}
