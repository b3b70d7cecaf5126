package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/demoworks/rota/internal/domain/model"
	"github.com/demoworks/rota/internal/domain/types"
)

// Employees returns all employee rows, terminated ones included; the
// snapshot filters by reference day.
func (s *Store) Employees(ctx context.Context) ([]model.Employee, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, active, terminated_at FROM employees ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Employee
	for rows.Next() {
		var (
			e          model.Employee
			role       string
			terminated sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Name, &role, &e.Active, &terminated); err != nil {
			return nil, err
		}
		e.Role = types.Role(role)
		if terminated.Valid {
			day, err := time.Parse(dayLayout, terminated.String)
			if err != nil {
				return nil, err
			}
			e.TerminatedAt = &day
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Events(ctx context.Context) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ref, name, category, category_override, start_day, due_day, duration_minutes, excluded
		FROM events ORDER BY ref
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var (
			ev       model.Event
			cat, ovr string
			from, to string
		)
		if err := rows.Scan(&ev.Ref, &ev.Name, &cat, &ovr, &from, &to,
			&ev.DurationMinutes, &ev.Excluded); err != nil {
			return nil, err
		}
		ev.Category = types.Category(cat)
		ev.CategoryOverride = types.Category(ovr)
		if ev.Start, err = time.Parse(dayLayout, from); err != nil {
			return nil, err
		}
		if ev.Due, err = time.Parse(dayLayout, to); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) Commitments(ctx context.Context) ([]model.Commitment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_ref, employee_id, day, shift_block FROM commitments
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Commitment
	for rows.Next() {
		var (
			c   model.Commitment
			day string
		)
		if err := rows.Scan(&c.EventRef, &c.EmployeeID, &day, &c.ShiftBlock); err != nil {
			return nil, err
		}
		if c.Day, err = time.Parse(dayLayout, day); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) WeeklyPatterns(ctx context.Context) ([]model.WeeklyPattern, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, sun, mon, tue, wed, thu, fri, sat FROM weekly_patterns
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.WeeklyPattern
	for rows.Next() {
		var p model.WeeklyPattern
		if err := rows.Scan(&p.EmployeeID, &p.Days[0], &p.Days[1], &p.Days[2],
			&p.Days[3], &p.Days[4], &p.Days[5], &p.Days[6]); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DateOverrides(ctx context.Context) ([]model.DateOverride, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, from_day, to_day, weekday, available FROM date_overrides
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DateOverride
	for rows.Next() {
		var (
			o        model.DateOverride
			from, to string
			weekday  int
		)
		if err := rows.Scan(&o.EmployeeID, &from, &to, &weekday, &o.Available); err != nil {
			return nil, err
		}
		o.Weekday = time.Weekday(weekday)
		if o.From, err = time.Parse(dayLayout, from); err != nil {
			return nil, err
		}
		if o.To, err = time.Parse(dayLayout, to); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) TimeOff(ctx context.Context) ([]model.TimeOff, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, from_day, to_day FROM time_off
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TimeOff
	for rows.Next() {
		var (
			t        model.TimeOff
			from, to string
		)
		if err := rows.Scan(&t.EmployeeID, &from, &to); err != nil {
			return nil, err
		}
		if t.From, err = time.Parse(dayLayout, from); err != nil {
			return nil, err
		}
		if t.To, err = time.Parse(dayLayout, to); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) Holidays(ctx context.Context) ([]time.Time, error) {
	return s.dayColumn(ctx, "holidays")
}

func (s *Store) LockedDays(ctx context.Context) ([]time.Time, error) {
	return s.dayColumn(ctx, "locked_days")
}

func (s *Store) dayColumn(ctx context.Context, table string) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT day FROM `+table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		d, err := time.Parse(dayLayout, day)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) Rotations(ctx context.Context) ([]model.Rotation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT weekday, category, employee_id, backup_id FROM rotations
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Rotation
	for rows.Next() {
		var (
			r       model.Rotation
			weekday int
			cat     string
		)
		if err := rows.Scan(&weekday, &cat, &r.EmployeeID, &r.BackupID); err != nil {
			return nil, err
		}
		r.Weekday = time.Weekday(weekday)
		r.Category = types.RotationCategory(cat)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) RotationExceptions(ctx context.Context) ([]model.RotationException, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT day, category, employee_id FROM rotation_exceptions
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RotationException
	for rows.Next() {
		var (
			e   model.RotationException
			day string
			cat string
		)
		if err := rows.Scan(&day, &cat, &e.EmployeeID); err != nil {
			return nil, err
		}
		e.Category = types.RotationCategory(cat)
		if e.Day, err = time.Parse(dayLayout, day); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
