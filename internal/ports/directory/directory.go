package directory

import "context"

// Contact son los datos de contacto de un usuario que ven los administradores.
type Contact struct {
	ID    int64
	Name  string
	Email string
	Phone string
}

// Directory resuelve usuarios por id. Lo implementa users.Service.
type Directory interface {
	Contact(ctx context.Context, userID int64) (Contact, error)
}
