package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"animal-shelter/internal/domain/animals"

	"github.com/juju/errors"
)

type AnimalsRepo struct{ s *Store }

func (s *Store) Animals() *AnimalsRepo { return &AnimalsRepo{s: s} }

const animalColumns = `id, nombre, especie, raza, edad, sexo, tamano, descripcion, salud, ubicacion,
	fotos, estado, veterinario_id, creado_por, creado_en, actualizado_en`

func scanAnimal(sc interface{ Scan(...any) error }) (animals.Animal, error) {
	var (
		a                  animals.Animal
		status             string
		created, updatedAt dbTime
	)
	err := sc.Scan(
		&a.ID, &a.Name, &a.Species, &a.Breed, &a.Age, &a.Sex, &a.Size, &a.Description, &a.Health, &a.Location,
		&a.Photos, &status, &a.VeterinarianID, &a.CreatedBy, &created, &updatedAt,
	)
	if err != nil {
		return animals.Animal{}, err
	}
	a.Status = animals.Status(status)
	a.CreatedAt = created.Time
	a.UpdatedAt = updatedAt.Time
	return a, nil
}

func (r *AnimalsRepo) Create(ctx context.Context, a animals.Animal) (int64, error) {
	id, err := r.s.insert(ctx, `
		INSERT INTO animales (nombre, especie, raza, edad, sexo, tamano, descripcion, salud, ubicacion,
			fotos, estado, veterinario_id, creado_por, creado_en, actualizado_en)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Name, a.Species, a.Breed, a.Age, a.Sex, a.Size, a.Description, a.Health, a.Location,
		a.Photos, string(a.Status), a.VeterinarianID, a.CreatedBy, a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	if err != nil {
		return 0, errors.Annotate(err, "insert animal")
	}
	return id, nil
}

func (r *AnimalsRepo) get(ctx context.Context, id int64, lock bool) (animals.Animal, error) {
	q := `SELECT ` + animalColumns + ` FROM animales WHERE id = ?`
	if lock {
		q += r.s.forUpdate()
	}
	a, err := scanAnimal(r.s.queryRow(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return animals.Animal{}, errors.NotFoundf("animal %d", id)
	}
	return a, err
}

func (r *AnimalsRepo) GetByID(ctx context.Context, id int64) (animals.Animal, error) {
	return r.get(ctx, id, false)
}

func (r *AnimalsRepo) GetForUpdate(ctx context.Context, id int64) (animals.Animal, error) {
	return r.get(ctx, id, true)
}

func (r *AnimalsRepo) UpdateStatus(ctx context.Context, id int64, status animals.Status, vetID *int64, at time.Time) error {
	res, err := r.s.exec(ctx, `UPDATE animales SET estado = ?, veterinario_id = ?, actualizado_en = ? WHERE id = ?`,
		string(status), vetID, at.UTC(), id)
	return updated(res, err, "animal %d", id)
}

func (r *AnimalsRepo) List(ctx context.Context, f animals.ListFilter) ([]animals.Animal, error) {
	var (
		where []string
		args  []any
	)
	add := func(col, v string) {
		if v != "" {
			where = append(where, col+" = ?")
			args = append(args, v)
		}
	}
	add("especie", f.Species)
	add("estado", string(f.Status))
	add("tamano", f.Size)
	add("sexo", f.Sex)

	q := `SELECT ` + animalColumns + ` FROM animales`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	switch f.Order {
	case animals.OrderCarePriority:
		q += ` ORDER BY CASE estado
			WHEN 'tratamiento' THEN 1
			WHEN 'disponible' THEN 2
			WHEN 'reservado' THEN 3
			ELSE 4 END, creado_en DESC, id DESC`
	default:
		q += ` ORDER BY creado_en DESC, id DESC`
	}
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.s.query(ctx, q, args...)
	if err != nil {
		return nil, errors.Annotate(err, "list animals")
	}
	defer rows.Close()

	out := make([]animals.Animal, 0)
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AnimalsRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.s.exec(ctx, `DELETE FROM animales WHERE id = ?`, id)
	return updated(res, err, "animal %d", id)
}
