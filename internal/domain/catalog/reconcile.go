// internal/domain/catalog/reconcile.go
package catalog

import (
	"context"
	"errors"
)

// Reconciler is told about every authoritative product read
type Reconciler interface {
	Reconcile(ctx context.Context, id uint, fresh *Snapshot)
}

type reconcilingLookup struct {
	next  Lookup
	cache Reconciler
}

// ReconcileWith wraps an authoritative Lookup so the reads it serves keep
// cache in step with the database
func ReconcileWith(next Lookup, cache Reconciler) Lookup {
	return &reconcilingLookup{next: next, cache: cache}
}

func (l *reconcilingLookup) GetProduct(ctx context.Context, id uint) (*Snapshot, error) {
	snap, err := l.next.GetProduct(ctx, id)
	switch {
	case err == nil:
		l.cache.Reconcile(ctx, id, snap)
	case errors.Is(err, ErrProductNotFound):
		l.cache.Reconcile(ctx, id, nil)
	}
	return snap, err
}
