package availability

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memRepo struct {
	mu      sync.Mutex
	blocks  []Block
	err     error
	created int
}

func (m *memRepo) Create(_ context.Context, b *Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	m.created++
	b.CreatedAt = time.Date(2025, 1, 1, 0, 0, m.created, 0, time.UTC)
	m.blocks = append(m.blocks, *b)
	return nil
}

func (m *memRepo) ListApplicable(_ context.Context, doctorID uuid.UUID, day time.Time) ([]Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []Block
	// Returned in insertion order on purpose: the resolver must not rely
	// on the store's ordering.
	for _, b := range m.blocks {
		if (b.Scope == ScopeClinic || (b.DoctorID != nil && *b.DoctorID == doctorID)) && b.Covers(day) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Block
	for _, b := range m.blocks {
		if b.DoctorID != nil && *b.DoctorID == doctorID {
			out = append(out, b)
		}
	}
	return out, m.err
}

func (m *memRepo) ListAll(_ context.Context) ([]Block, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Block, len(m.blocks))
	copy(out, m.blocks)
	return out, m.err
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	for i, b := range m.blocks {
		if b.ID == id {
			m.blocks = append(m.blocks[:i], m.blocks[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type doctorSet map[uuid.UUID]bool

func (d doctorSet) DoctorExists(_ context.Context, id uuid.UUID) (bool, error) {
	return d[id], nil
}

var errStore = errors.New("store unavailable")
