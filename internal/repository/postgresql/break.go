package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type breakRepositoryImpl struct {
	db *database.DB
}

// GetLatestByPunch implements attendance.BreakRepository.
func (b *breakRepositoryImpl) GetLatestByPunch(ctx context.Context, punchID string) (*attendance.Break, error) {
	q := GetQuerier(ctx, b.db)

	query := `
		SELECT id, punch_id, employee_id, date,
			   to_char(break_start, 'HH24:MI:SS'), to_char(break_end, 'HH24:MI:SS'),
			   start_latitude, start_longitude, start_location,
			   created_at, updated_at
		FROM attendance_breaks
		WHERE punch_id = $1
		ORDER BY break_start DESC
		LIMIT 1
	`

	var brk attendance.Break
	err := q.QueryRow(ctx, query, punchID).Scan(
		&brk.ID, &brk.PunchID, &brk.EmployeeID, &brk.Date,
		&brk.BreakStart, &brk.BreakEnd,
		&brk.StartLat, &brk.StartLon, &brk.StartLocation,
		&brk.CreatedAt, &brk.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest break: %w", err)
	}

	return &brk, nil
}

// Create implements attendance.BreakRepository.
func (b *breakRepositoryImpl) Create(ctx context.Context, brk attendance.Break) (attendance.Break, error) {
	q := GetQuerier(ctx, b.db)

	query := `
		INSERT INTO attendance_breaks (
			id, punch_id, employee_id, date, break_start,
			start_latitude, start_longitude, start_location
		) VALUES (
			$1, $2, $3, $4, $5::time, $6, $7, $8
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		brk.ID,
		brk.PunchID,
		brk.EmployeeID,
		brk.Date,
		brk.BreakStart,
		brk.StartLat,
		brk.StartLon,
		brk.StartLocation,
	).Scan(&brk.CreatedAt, &brk.UpdatedAt)
	if err != nil {
		return attendance.Break{}, fmt.Errorf("failed to create break: %w", err)
	}

	return brk, nil
}

// End implements attendance.BreakRepository.
func (b *breakRepositoryImpl) End(ctx context.Context, brk attendance.Break) error {
	q := GetQuerier(ctx, b.db)

	query := `
		UPDATE attendance_breaks
		SET break_end = $1::time, updated_at = NOW()
		WHERE id = $2 AND break_end IS NULL
	`

	tag, err := q.Exec(ctx, query, brk.BreakEnd, brk.ID)
	if err != nil {
		return fmt.Errorf("failed to end break: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("break %s is not open", brk.ID)
	}

	return nil
}

func NewBreakRepository(db *database.DB) attendance.BreakRepository {
	return &breakRepositoryImpl{
		db: db,
	}
}
