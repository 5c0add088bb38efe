package reports

import (
	"strings"
	"time"

	"animal-shelter/internal/domain/animals"
)

type Status string

const (
	StatusPendiente  Status = "pendiente"
	StatusEnRevision Status = "en_revision"
	StatusResuelto   Status = "resuelto"
	StatusDescartado Status = "descartado"
)

func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusPendiente, StatusEnRevision, StatusResuelto, StatusDescartado:
		return st, true
	default:
		return "", false
	}
}

// Report es un reporte de un animal en situación de calle, maltrato, etc.
type Report struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	Type        string // tipo_reporte
	Location    string
	Photos      animals.Photos

	Status     Status
	AdminNotes string
	ReviewedBy *int64

	ReportedAt time.Time
	ReviewedAt *time.Time
}

type View struct {
	Report
	UserName string
}
