package repository

import (
	"context"

	"github.com/demoworks/rota/internal/domain/model"
)

// Writers for the scheduling inputs. Upstream sync jobs and tests use
// these; the engine itself only reads.

func (s *Store) UpsertEmployee(ctx context.Context, e model.Employee) error {
	var terminated any
	if e.TerminatedAt != nil {
		terminated = e.TerminatedAt.Format(dayLayout)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, role, active, terminated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			active = excluded.active,
			terminated_at = excluded.terminated_at
	`, e.ID, e.Name, string(e.Role), e.Active, terminated)
	return err
}

func (s *Store) UpsertEvent(ctx context.Context, ev model.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (ref, name, category, category_override, start_day, due_day, duration_minutes, excluded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ref) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			category_override = excluded.category_override,
			start_day = excluded.start_day,
			due_day = excluded.due_day,
			duration_minutes = excluded.duration_minutes,
			excluded = excluded.excluded
	`, ev.Ref, ev.Name, string(ev.Category), string(ev.CategoryOverride),
		ev.Start.Format(dayLayout), ev.Due.Format(dayLayout), ev.DurationMinutes, ev.Excluded)
	return err
}

func (s *Store) UpsertCommitment(ctx context.Context, c model.Commitment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commitments (event_ref, employee_id, day, shift_block)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(event_ref) DO UPDATE SET
			employee_id = excluded.employee_id,
			day = excluded.day,
			shift_block = excluded.shift_block
	`, c.EventRef, c.EmployeeID, c.Day.Format(dayLayout), c.ShiftBlock)
	return err
}

func (s *Store) DeleteCommitment(ctx context.Context, eventRef string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM commitments WHERE event_ref = ?`, eventRef)
	return err
}

func (s *Store) SetWeeklyPattern(ctx context.Context, p model.WeeklyPattern) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO weekly_patterns (employee_id, sun, mon, tue, wed, thu, fri, sat)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(employee_id) DO UPDATE SET
			sun = excluded.sun, mon = excluded.mon, tue = excluded.tue,
			wed = excluded.wed, thu = excluded.thu, fri = excluded.fri,
			sat = excluded.sat
	`, p.EmployeeID, p.Days[0], p.Days[1], p.Days[2], p.Days[3], p.Days[4], p.Days[5], p.Days[6])
	return err
}

func (s *Store) AddDateOverride(ctx context.Context, o model.DateOverride) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO date_overrides (employee_id, from_day, to_day, weekday, available)
		VALUES (?, ?, ?, ?, ?)
	`, o.EmployeeID, o.From.Format(dayLayout), o.To.Format(dayLayout), int(o.Weekday), o.Available)
	return err
}

func (s *Store) AddTimeOff(ctx context.Context, t model.TimeOff) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO time_off (employee_id, from_day, to_day)
		VALUES (?, ?, ?)
	`, t.EmployeeID, t.From.Format(dayLayout), t.To.Format(dayLayout))
	return err
}

func (s *Store) AddHoliday(ctx context.Context, day string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO holidays (day) VALUES (?)`, day)
	return err
}

func (s *Store) AddLockedDay(ctx context.Context, day string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO locked_days (day) VALUES (?)`, day)
	return err
}

func (s *Store) UpsertRotation(ctx context.Context, r model.Rotation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rotations (weekday, category, employee_id, backup_id)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(weekday, category) DO UPDATE SET
			employee_id = excluded.employee_id,
			backup_id = excluded.backup_id
	`, int(r.Weekday), string(r.Category), r.EmployeeID, r.BackupID)
	return err
}

func (s *Store) UpsertRotationException(ctx context.Context, e model.RotationException) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rotation_exceptions (day, category, employee_id)
		VALUES (?, ?, ?)
		ON CONFLICT(day, category) DO UPDATE SET
			employee_id = excluded.employee_id
	`, e.Day.Format(dayLayout), string(e.Category), e.EmployeeID)
	return err
}
