package pomoclock

import (
	"context"
	"time"
)

type ExistingRecord[T ~string] struct {
	ID        T
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewExistingRecord[T ~string](id string) ExistingRecord[T] {
	now := time.Now()
	return ExistingRecord[T]{
		ID:        T(id),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

type PhaseID string

// PhaseRecord is one completed phase.
type PhaseRecord struct {
	Phase         Phase
	LengthMinutes int
	CompletedAt   time.Time
}

type ExistingPhaseRecord struct {
	ExistingRecord[PhaseID]
	PhaseRecord
}

type PhaseLogRepo interface {
	InsertPhase(context.Context, PhaseRecord) (ExistingPhaseRecord, error)
	GetPhase(ctx context.Context, id PhaseID) (ExistingPhaseRecord, error)
	ListPhasesSince(ctx context.Context, since time.Time) ([]ExistingPhaseRecord, error)
	CountPhasesSince(ctx context.Context, since time.Time) (map[Phase]int, error)
	DeletePhasesBefore(ctx context.Context, before time.Time) (int64, error)
}
