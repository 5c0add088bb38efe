// Package memory es el store en memoria: útil en dev y en tests de integración.
// Todas las escrituras se serializan. WithinTx trabaja sobre una copia privada
// del estado y la publica al confirmar, así nadie fuera de la transacción ve
// escrituras sin confirmar.
package memory

import (
	"context"
	"sync"

	"animal-shelter/internal/domain/adoptions"
	"animal-shelter/internal/domain/animals"
	"animal-shelter/internal/domain/history"
	"animal-shelter/internal/domain/reports"
	"animal-shelter/internal/domain/stats"
	"animal-shelter/internal/domain/users"
	"animal-shelter/internal/domain/vetrequests"
)

type txKey struct{}

type data struct {
	seq map[string]int64

	animals     map[int64]animals.Animal
	transitions []history.Transition
	encounters  []history.Encounter
	adoptions   map[int64]adoptions.Request
	users       map[int64]users.User
	sessions    map[string]users.Session
	vetRequests map[int64]vetrequests.Request
	reports     map[int64]reports.Report
}

func newData() *data {
	return &data{
		seq:         map[string]int64{},
		animals:     map[int64]animals.Animal{},
		adoptions:   map[int64]adoptions.Request{},
		users:       map[int64]users.User{},
		sessions:    map[string]users.Session{},
		vetRequests: map[int64]vetrequests.Request{},
		reports:     map[int64]reports.Report{},
	}
}

func (d *data) next(table string) int64 {
	d.seq[table]++
	return d.seq[table]
}

// clone copia los mapas. Los valores se reemplazan enteros al escribir, así que
// alcanza con copiar cada entrada.
func (d *data) clone() *data {
	c := newData()
	for k, v := range d.seq {
		c.seq[k] = v
	}
	for k, v := range d.animals {
		c.animals[k] = v
	}
	c.transitions = append([]history.Transition(nil), d.transitions...)
	c.encounters = append([]history.Encounter(nil), d.encounters...)
	for k, v := range d.adoptions {
		c.adoptions[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.sessions {
		c.sessions[k] = v
	}
	for k, v := range d.vetRequests {
		c.vetRequests[k] = v
	}
	for k, v := range d.reports {
		c.reports[k] = v
	}
	return c
}

type Store struct {
	// txMu serializa transacciones y escrituras sueltas.
	txMu sync.Mutex
	// mu protege el puntero d (estado confirmado).
	mu sync.RWMutex
	d  *data
}

// txState es la copia de trabajo de una transacción abierta.
type txState struct {
	owner *Store
	d     *data
}

func New() *Store {
	return &Store{d: newData()}
}

func (s *Store) tx(ctx context.Context) *txState {
	tx, _ := ctx.Value(txKey{}).(*txState)
	if tx == nil || tx.owner != s {
		return nil
	}
	return tx
}

// WithinTx implementa storage.Transactor. Las llamadas anidadas se unen a la
// transacción abierta; si fn falla la copia de trabajo se descarta.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx(ctx) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	tx := &txState{owner: s, d: s.d.clone()}
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	s.mu.Lock()
	s.d = tx.d
	s.mu.Unlock()
	return nil
}

func (s *Store) write(ctx context.Context, fn func(d *data) error) error {
	if tx := s.tx(ctx); tx != nil {
		return fn(tx.d)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.d)
}

func (s *Store) read(ctx context.Context, fn func(d *data)) {
	if tx := s.tx(ctx); tx != nil {
		fn(tx.d)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.d)
}

func (s *Store) Animals() animals.Repository { return animalRepo{s} }
func (s *Store) History() history.Repository { return historyRepo{s} }
func (s *Store) Adoptions() adoptions.Repository { return adoptionRepo{s} }
func (s *Store) Users() users.Repository { return userRepo{s} }
func (s *Store) Sessions() users.SessionRepository { return userRepo{s} }
func (s *Store) VetRequests() vetrequests.Repository { return vetRequestRepo{s} }
func (s *Store) Reports() reports.Repository { return reportRepo{s} }
func (s *Store) Stats() stats.Repository { return statsRepo{s} }

func int64Ptr(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
