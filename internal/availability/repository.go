package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Finder is the read side the resolver needs.
type Finder interface {
	// ListApplicable returns clinic blocks plus the doctor's blocks whose
	// range contains day, clinic blocks first.
	ListApplicable(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]Block, error)
}

type Repository interface {
	Finder

	Create(ctx context.Context, b *Block) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Block, error)
	ListAll(ctx context.Context) ([]Block, error)
	// Delete reports false when no block had the id.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}
