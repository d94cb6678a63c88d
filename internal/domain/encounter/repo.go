package encounter

import "context"

type Repository interface {
	// Complete writes the encounter record and releases the active patient
	// in one transaction. No partial commit: either both happen or neither.
	Complete(ctx context.Context, enc *Completed) error
	List(ctx context.Context, limit, offset int) ([]Completed, int, error)
}
