// Package transaction carries the unit of work through context so repositories
// can join a transaction started by a use case.
package transaction

import "context"

type Manager interface {
	// RunInTx runs fn inside one transaction. Nested calls join the outer one.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

func Inject(ctx context.Context, tx interface{}) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func Extract(ctx context.Context) interface{} {
	return ctx.Value(txKey{})
}

func InTx(ctx context.Context) bool {
	return Extract(ctx) != nil
}
