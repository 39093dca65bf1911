package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-portal-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-portal-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type punchRepositoryImpl struct {
	db *database.DB
}

// GetByEmployeeAndDate implements attendance.PunchRepository.
func (p *punchRepositoryImpl) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (*attendance.Punch, error) {
	q := GetQuerier(ctx, p.db)

	query := `
		SELECT id, employee_id, company_id, date,
			   to_char(time_in, 'HH24:MI:SS'), to_char(time_out, 'HH24:MI:SS'),
			   in_latitude, in_longitude, in_location,
			   out_latitude, out_longitude, out_location,
			   created_at, updated_at
		FROM attendance_punches
		WHERE employee_id = $1 AND date = $2 AND company_id = $3
	`

	var punch attendance.Punch
	err := q.QueryRow(ctx, query, employeeID, date, companyID).Scan(
		&punch.ID, &punch.EmployeeID, &punch.CompanyID, &punch.Date,
		&punch.TimeIn, &punch.TimeOut,
		&punch.InLat, &punch.InLon, &punch.InLocation,
		&punch.OutLat, &punch.OutLon, &punch.OutLocation,
		&punch.CreatedAt, &punch.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get punch by employee and date: %w", err)
	}

	return &punch, nil
}

// Create implements attendance.PunchRepository.
func (p *punchRepositoryImpl) Create(ctx context.Context, punch attendance.Punch) (attendance.Punch, error) {
	q := GetQuerier(ctx, p.db)

	query := `
		INSERT INTO attendance_punches (
			id, employee_id, company_id, date, time_in,
			in_latitude, in_longitude, in_location
		) VALUES (
			$1, $2, $3, $4, $5::time, $6, $7, $8
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		punch.ID,
		punch.EmployeeID,
		punch.CompanyID,
		punch.Date,
		punch.TimeIn,
		punch.InLat,
		punch.InLon,
		punch.InLocation,
	).Scan(&punch.CreatedAt, &punch.UpdatedAt)
	if err != nil {
		return attendance.Punch{}, fmt.Errorf("failed to create punch: %w", err)
	}

	return punch, nil
}

// CloseSession implements attendance.PunchRepository.
func (p *punchRepositoryImpl) CloseSession(ctx context.Context, punch attendance.Punch) error {
	q := GetQuerier(ctx, p.db)

	query := `
		UPDATE attendance_punches
		SET time_out = $1::time,
			out_latitude = $2,
			out_longitude = $3,
			out_location = $4,
			updated_at = NOW()
		WHERE id = $5 AND company_id = $6 AND time_out IS NULL
	`

	tag, err := q.Exec(ctx, query,
		punch.TimeOut,
		punch.OutLat,
		punch.OutLon,
		punch.OutLocation,
		punch.ID,
		punch.CompanyID,
	)
	if err != nil {
		return fmt.Errorf("failed to close punch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("punch %s is not open", punch.ID)
	}

	return nil
}

func NewPunchRepository(db *database.DB) attendance.PunchRepository {
	return &punchRepositoryImpl{
		db: db,
	}
}
