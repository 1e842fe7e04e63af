package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/benjamonnguyen/pomoclock"
)

const (
	SelectAllPhases = "SELECT id, phase, length_minutes, completed_at, created_at, updated_at FROM phase_log"
)

type phaseEntity struct {
	ID            string
	Phase         uint8
	LengthMinutes int
	CompletedAtMS int64
	CreatedAt     int64
	UpdatedAt     int64
}

type phaseLogRepo struct {
	dbGetter txStdLib.DBGetter
	l        *log.Logger
}

var _ pomoclock.PhaseLogRepo = (*phaseLogRepo)(nil)

func NewPhaseLogRepo(dbGetter txStdLib.DBGetter, logger *log.Logger) *phaseLogRepo {
	if logger == nil {
		logger = log.Default()
	}
	return &phaseLogRepo{
		dbGetter: dbGetter,
		l:        logger,
	}
}

func (r *phaseLogRepo) InsertPhase(ctx context.Context, phase pomoclock.PhaseRecord) (pomoclock.ExistingPhaseRecord, error) {
	if !phase.Phase.Valid() {
		return pomoclock.ExistingPhaseRecord{}, fmt.Errorf("provide valid 'Phase'")
	}
	if phase.CompletedAt.IsZero() {
		return pomoclock.ExistingPhaseRecord{}, fmt.Errorf("provide required field 'CompletedAt'")
	}

	db := r.dbGetter(ctx)
	existingRecord := pomoclock.ExistingPhaseRecord{
		PhaseRecord:    phase,
		ExistingRecord: pomoclock.NewExistingRecord[pomoclock.PhaseID](uuid.NewString()),
	}
	e := mapToPhaseEntity(existingRecord)

	args := []any{
		e.ID,
		e.Phase,
		e.LengthMinutes,
		e.CompletedAtMS,
		e.CreatedAt,
		e.UpdatedAt,
	}
	query := "INSERT INTO phase_log (id, phase, length_minutes, completed_at, created_at, updated_at) VALUES " + generateParameters(len(args))
	r.l.Debug("creating phase log entry", "query", query, "args", args)
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return pomoclock.ExistingPhaseRecord{}, err
	}

	return existingRecord, nil
}

func (r *phaseLogRepo) GetPhase(ctx context.Context, id pomoclock.PhaseID) (pomoclock.ExistingPhaseRecord, error) {
	if id == "" {
		return pomoclock.ExistingPhaseRecord{}, fmt.Errorf("provide id")
	}

	db := r.dbGetter(ctx)
	row := db.QueryRowContext(
		ctx,
		fmt.Sprintf("%s WHERE id=?", SelectAllPhases), id,
	)

	return extractPhase(row)
}

func (r *phaseLogRepo) ListPhasesSince(ctx context.Context, since time.Time) ([]pomoclock.ExistingPhaseRecord, error) {
	db := r.dbGetter(ctx)
	query := fmt.Sprintf("%s WHERE completed_at >= ? ORDER BY completed_at", SelectAllPhases)
	r.l.Debug("listing phases", "query", query, "since", since)
	rows, err := db.QueryContext(ctx, query, since.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint

	var phases []pomoclock.ExistingPhaseRecord
	for rows.Next() {
		phase, err := extractPhase(rows)
		if err != nil {
			return nil, err
		}
		phases = append(phases, phase)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return phases, nil
}

func (r *phaseLogRepo) CountPhasesSince(ctx context.Context, since time.Time) (map[pomoclock.Phase]int, error) {
	db := r.dbGetter(ctx)
	query := "SELECT phase, COUNT(*) FROM phase_log WHERE completed_at >= ? GROUP BY phase"
	rows, err := db.QueryContext(ctx, query, since.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint

	counts := map[pomoclock.Phase]int{
		pomoclock.SessionPhase: 0,
		pomoclock.BreakPhase:   0,
	}
	for rows.Next() {
		var phase uint8
		var n int
		if err := rows.Scan(&phase, &n); err != nil {
			return nil, err
		}
		counts[pomoclock.Phase(phase)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *phaseLogRepo) DeletePhasesBefore(ctx context.Context, before time.Time) (int64, error) {
	db := r.dbGetter(ctx)
	query := "DELETE FROM phase_log WHERE completed_at < ?"
	r.l.Debug("deleting phases", "query", query, "before", before)
	res, err := db.ExecContext(ctx, query, before.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func extractPhase(s scannable) (pomoclock.ExistingPhaseRecord, error) {
	var e phaseEntity
	if err := s.Scan(&e.ID, &e.Phase, &e.LengthMinutes, &e.CompletedAtMS, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pomoclock.ExistingPhaseRecord{}, ErrNotFound
		}
		return pomoclock.ExistingPhaseRecord{}, err
	}

	return mapToExistingPhaseRecord(e), nil
}

func mapToPhaseEntity(phase pomoclock.ExistingPhaseRecord) phaseEntity {
	return phaseEntity{
		ID:            string(phase.ID),
		Phase:         uint8(phase.Phase),
		LengthMinutes: phase.LengthMinutes,
		CompletedAtMS: phase.CompletedAt.UnixMilli(),
		CreatedAt:     phase.CreatedAt.Unix(),
		UpdatedAt:     phase.UpdatedAt.Unix(),
	}
}

func mapToExistingPhaseRecord(e phaseEntity) pomoclock.ExistingPhaseRecord {
	return pomoclock.ExistingPhaseRecord{
		ExistingRecord: pomoclock.ExistingRecord[pomoclock.PhaseID]{
			ID:        pomoclock.PhaseID(e.ID),
			CreatedAt: time.Unix(e.CreatedAt, 0),
			UpdatedAt: time.Unix(e.UpdatedAt, 0),
		},
		PhaseRecord: pomoclock.PhaseRecord{
			Phase:         pomoclock.Phase(e.Phase),
			LengthMinutes: e.LengthMinutes,
			CompletedAt:   time.UnixMilli(e.CompletedAtMS),
		},
	}
}
