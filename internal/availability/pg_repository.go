package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/clinic-appointment-scheduling/internal/calendar"
	"github.com/hackgods/clinic-appointment-scheduling/internal/db"
)

type PgRepository struct {
	db db.DBTX
}

// NewPgRepository works against a pool or an open transaction.
func NewPgRepository(q db.DBTX) *PgRepository {
	return &PgRepository{db: q}
}

const blockColumns = `id, doctor_id, start_date, end_date, reason, scope, shift, weekdays, created_at`

func scanBlock(row pgx.Row) (*Block, error) {
	var (
		b        Block
		reason   *string
		shift    *string
		weekdays *string
	)
	err := row.Scan(
		&b.ID,
		&b.DoctorID,
		&b.StartDate,
		&b.EndDate,
		&reason,
		&b.Scope,
		&shift,
		&weekdays,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if reason != nil {
		b.Reason = *reason
	}
	if shift != nil {
		b.Shift = calendar.Shift(*shift)
	}
	if weekdays != nil {
		days, err := ParseWeekdays(*weekdays)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", b.ID, err)
		}
		b.Weekdays = days
	}
	return &b, nil
}

func collectBlocks(rows pgx.Rows) ([]Block, error) {
	defer rows.Close()

	var result []Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *PgRepository) Create(ctx context.Context, b *Block) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO availability_blocks (id, doctor_id, start_date, end_date, reason, scope, shift, weekdays, created_at)
		VALUES ($1, $2, $3::date, $4::date, $5, $6, $7, $8, now())
		RETURNING created_at
	`, b.ID, b.DoctorID,
		calendar.FormatDate(b.StartDate), calendar.FormatDate(b.EndDate),
		nullable(b.Reason), b.Scope, nullable(string(b.Shift)), nullable(FormatWeekdays(b.Weekdays)))

	if err := row.Scan(&b.CreatedAt); err != nil {
		return fmt.Errorf("insert availability block: %w", err)
	}
	return nil
}

func (r *PgRepository) ListApplicable(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]Block, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+blockColumns+`
		FROM availability_blocks
		WHERE (scope = 'CLINIC' OR doctor_id = $1)
		  AND $2::date BETWEEN start_date AND end_date
		ORDER BY CASE scope WHEN 'CLINIC' THEN 0 ELSE 1 END, start_date, created_at, id
	`, doctorID, calendar.FormatDate(day))
	if err != nil {
		return nil, fmt.Errorf("query applicable blocks: %w", err)
	}
	return collectBlocks(rows)
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Block, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+blockColumns+`
		FROM availability_blocks
		WHERE doctor_id = $1
		ORDER BY start_date DESC, created_at DESC
	`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("query doctor blocks: %w", err)
	}
	return collectBlocks(rows)
}

func (r *PgRepository) ListAll(ctx context.Context) ([]Block, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+blockColumns+`
		FROM availability_blocks
		ORDER BY start_date DESC, created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	return collectBlocks(rows)
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM availability_blocks WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete availability block: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
