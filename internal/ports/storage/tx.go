package storage

import "context"

// Transactor ejecuta fn como una unidad atómica. Las llamadas anidadas (ctx que ya
// trae una transacción) se unen a la transacción externa.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// TxFunc adapta una función a Transactor.
type TxFunc func(ctx context.Context, fn func(ctx context.Context) error) error

func (f TxFunc) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return f(ctx, fn)
}

// NoTx ejecuta fn directamente. Solo para tests de servicios con repos falsos.
var NoTx Transactor = TxFunc(func(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
})
