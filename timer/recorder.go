package timer

import (
	"context"
	"time"

	"github.com/Thiht/transactor"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomoclock"
)

const recordTimeout = 5 * time.Second

// PhaseRecorder appends every completed phase to the phase log.
type PhaseRecorder struct {
	repo pomoclock.PhaseLogRepo
	tx   transactor.Transactor
	l    *log.Logger
}

func NewPhaseRecorder(repo pomoclock.PhaseLogRepo, tx transactor.Transactor, logger *log.Logger) *PhaseRecorder {
	if logger == nil {
		logger = log.Default()
	}
	return &PhaseRecorder{
		repo: repo,
		tx:   tx,
		l:    logger,
	}
}

// Handle is an OnUpdate handler.
func (r *PhaseRecorder) Handle(u Update) {
	if u.Transition == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	record := u.Transition.Record()
	err := r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := r.repo.InsertPhase(ctx, record)
		return err
	})
	if err != nil {
		r.l.Error("failed to record completed phase", "phase", record.Phase, "err", err)
		return
	}
	r.l.Debug("recorded completed phase", "phase", record.Phase, "minutes", record.LengthMinutes)
}

// CompletedSince counts completed phases since the given time.
func (r *PhaseRecorder) CompletedSince(ctx context.Context, since time.Time) (map[pomoclock.Phase]int, error) {
	return r.repo.CountPhasesSince(ctx, since)
}

// StartOfDay returns local midnight of t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
