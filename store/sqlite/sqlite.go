/*
Package sqlite provides the SQLite persistence behind the hours service.

PURPOSE:

	Stores the productive-hours calendar, labour rates, employees, plans and
	the per-day planned hours of every plan row. The api package serves these
	tables over HTTP; the planner engine only ever sees them through that API.

KEY TABLES:

	calendar_hours: One row per calendar day: fiscal period and capacity
	compensation:   Labour grades and hourly rates
	employees:      Planned entities, linked to a labour grade
	plans:          Plan header: name, period of performance, targets
	plan_days:      Planned hours per (day, employee, plan)

DECIMALS:

	Hours and rates are stored as TEXT written by planner.Decimal and read
	back through its Scan. Sums are folded in Go rather than with SQL SUM,
	which would go through REAL and lose cents.

CONCURRENCY:

	Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:

	SQLite is opened with WAL (Write-Ahead Logging) so readers do not block
	the single writer.

USAGE:

	store, err := sqlite.New("./data/planner.db")
	if err != nil {
	    log.Fatal(err)
	}
	defer store.Close()

MIGRATION:

	Schema is auto-migrated on New(). Default labour grades are seeded once.

SEE ALSO:
  - api/handlers.go: HTTP endpoints over this store
  - planner/period.go: fiscal period keys and labels
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/fiscal-planner/planner"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrRowExists is returned when a plan row is initialized twice.
	ErrRowExists = errors.New("plan row already exists")

	// ErrNoCalendar is returned when a date range has no calendar days.
	ErrNoCalendar = errors.New("no calendar days in range")
)

// Store implements the hours service persistence using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS calendar_hours (
		cal_date TEXT PRIMARY KEY,
		fiscal_period TEXT NOT NULL,
		productive_hours TEXT NOT NULL DEFAULT '0'
	);

	CREATE INDEX IF NOT EXISTS idx_calendar_hours_fiscal_period
		ON calendar_hours(fiscal_period);

	CREATE TABLE IF NOT EXISTS compensation (
		id INTEGER PRIMARY KEY,
		resource_code TEXT UNIQUE NOT NULL,
		grade TEXT NOT NULL,
		labor_category TEXT NOT NULL DEFAULT '',
		hourly_rate TEXT NOT NULL DEFAULT '0'
	);

	CREATE TABLE IF NOT EXISTS employees (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		compensation_id INTEGER REFERENCES compensation(id) ON DELETE SET NULL,
		schedule TEXT NOT NULL DEFAULT '5/40',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS plans (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		pop_start TEXT NOT NULL,
		pop_end TEXT NOT NULL,
		target_hours TEXT NOT NULL DEFAULT '0',
		target_cost TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS plan_days (
		id INTEGER PRIMARY KEY,
		planned_hours TEXT NOT NULL DEFAULT '0',
		cal_date TEXT NOT NULL,
		emp INTEGER NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		plan INTEGER NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		updated_at TEXT NOT NULL,
		UNIQUE (cal_date, emp, plan)
	);

	CREATE INDEX IF NOT EXISTS idx_plan_days_row
		ON plan_days(emp, plan, cal_date);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.seedCompensation()
}

func (s *Store) seedCompensation() error {
	_, err := s.db.Exec(`
	INSERT OR IGNORE INTO compensation (id, resource_code, grade, labor_category, hourly_rate)
	VALUES
		(1, 'L_VS1A_X_H', 'MGR01', 'Manager 1', '171'),
		(2, 'L_VS2A_X_H', 'MGR02', 'Manager 2', '211'),
		(3, 'L_VS3A_X_H', 'MGR03', 'Manager 3', '245'),
		(4, 'L_VT1A_X_H', 'ENG01', 'Associate Engineer', '108'),
		(5, 'L_VT2A_X_H', 'ENG02', 'Engineer', '131'),
		(6, 'L_VT3A_X_H', 'ENG03', 'Principal Engineer', '155'),
		(7, 'L_VT4A_X_H', 'ENG04', 'Sr. Principal Engineer', '198'),
		(8, 'L_VT5A_X_H', 'ENG05', 'Staff Engineer', '242'),
		(9, 'L_VA1A_X_H', 'ADM01', 'Associate Administrator', '88'),
		(10, 'L_VA2A_X_H', 'ADM02', 'Administrator', '105'),
		(11, 'L_VSHA_X_H', 'TEC01', 'College Intern Technical', '89');
	`)
	return err
}

// =============================================================================
// CALENDAR - Productive hours per day and fiscal periods
// =============================================================================

// CalendarDay is one row of calendar_hours.
type CalendarDay struct {
	Date            string
	FiscalPeriod    string
	ProductiveHours planner.Decimal
}

// SeedCalendar writes one calendar day per date in [start, end] using the
// schedule's productive hours. Existing days are overwritten. Returns the
// number of days written.
func (s *Store) SeedCalendar(ctx context.Context, start, end string, schedule planner.Schedule) (int, error) {
	period, err := planner.NewPeriod(start, end)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO calendar_hours (cal_date, fiscal_period, productive_hours)
		VALUES (?, ?, ?)
		ON CONFLICT(cal_date) DO UPDATE SET
			fiscal_period = excluded.fiscal_period,
			productive_hours = excluded.productive_hours
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	days := period.Days()
	for _, d := range days {
		key := planner.FiscalPeriodKey(d.Year(), d.Month())
		if _, err := stmt.ExecContext(ctx, d.String(), key, schedule.HoursOn(d)); err != nil {
			return 0, fmt.Errorf("writing %s: %w", d, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(days), nil
}

// CalendarDays returns the calendar days in [start, end], in date order.
func (s *Store) CalendarDays(ctx context.Context, start, end string) ([]CalendarDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT cal_date, fiscal_period, productive_hours
		FROM calendar_hours
		WHERE cal_date BETWEEN ? AND ?
		ORDER BY cal_date
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []CalendarDay
	for rows.Next() {
		var d CalendarDay
		if err := rows.Scan(&d.Date, &d.FiscalPeriod, &d.ProductiveHours); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// ProdHours returns productive hours per calendar day in [start, end].
func (s *Store) ProdHours(ctx context.Context, start, end string) ([]planner.Decimal, error) {
	days, err := s.CalendarDays(ctx, start, end)
	if err != nil {
		return nil, err
	}
	hours := make([]planner.Decimal, len(days))
	for i, d := range days {
		hours[i] = d.ProductiveHours
	}
	return hours, nil
}

// ProdHoursIndex returns the date -> position mapping for the calendar days
// in [start, end]. Positions line up with ProdHours.
func (s *Store) ProdHoursIndex(ctx context.Context, start, end string) (map[string]int, error) {
	days, err := s.CalendarDays(ctx, start, end)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(days))
	for i, d := range days {
		index[d.Date] = i
	}
	return index, nil
}

// FiscalPeriods returns every fiscal period that has at least one day in
// [start, end]. Each period spans all of its calendar days, including those
// outside the range, and carries their summed productive hours.
func (s *Store) FiscalPeriods(ctx context.Context, start, end string) ([]planner.FiscalPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT cal_date, fiscal_period, productive_hours
		FROM calendar_hours
		WHERE fiscal_period IN (
			SELECT DISTINCT fiscal_period FROM calendar_hours WHERE cal_date BETWEEN ? AND ?
		)
		ORDER BY cal_date
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []planner.FiscalPeriod
	for rows.Next() {
		var d CalendarDay
		if err := rows.Scan(&d.Date, &d.FiscalPeriod, &d.ProductiveHours); err != nil {
			return nil, err
		}

		n := len(periods)
		if n == 0 || periods[n-1].Key != d.FiscalPeriod {
			periods = append(periods, planner.FiscalPeriod{
				Key:       d.FiscalPeriod,
				Label:     periodLabel(d.Date),
				StartDate: d.Date,
			})
			n++
		}
		p := &periods[n-1]
		p.EndDate = d.Date
		p.CapacityHours = p.CapacityHours.Add(d.ProductiveHours)
	}
	return periods, rows.Err()
}

func periodLabel(date string) string {
	d, err := planner.ParseDate(date)
	if err != nil {
		return date
	}
	return planner.FiscalPeriodLabel(d.Year(), d.Month())
}

// =============================================================================
// PLAN ROWS - Planned hours per (day, employee, plan)
// =============================================================================

// InitPlanRow creates a zero-hour day for every calendar date in
// [start, end]. Returns the number of days created.
func (s *Store) InitPlanRow(ctx context.Context, empID, planID int64, start, end string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM plan_days WHERE emp = ? AND plan = ?", empID, planID,
	).Scan(&exists); err != nil {
		return 0, err
	}
	if exists > 0 {
		return 0, fmt.Errorf("%w: employee %d in plan %d", ErrRowExists, empID, planID)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO plan_days (planned_hours, cal_date, emp, plan, updated_at)
		SELECT '0', cal_date, ?, ?, ?
		FROM calendar_hours
		WHERE cal_date BETWEEN ? AND ?
	`, empID, planID, now(), start, end)
	if err != nil {
		if isForeignKeyError(err) {
			return 0, fmt.Errorf("%w: employee %d or plan %d", ErrNotFound, empID, planID)
		}
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: %s..%s", ErrNoCalendar, start, end)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// PlanHours returns the planned hours of a row for every calendar day in
// [start, end]. Days with no stored hours read as zero.
func (s *Store) PlanHours(ctx context.Context, empID, planID int64, start, end string) ([]planner.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT IFNULL(p.planned_hours, '0')
		FROM calendar_hours c
		LEFT JOIN plan_days p
			ON p.cal_date = c.cal_date AND p.emp = ? AND p.plan = ?
		WHERE c.cal_date BETWEEN ? AND ?
		ORDER BY c.cal_date
	`, empID, planID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hours []planner.Decimal
	for rows.Next() {
		var h planner.Decimal
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

// UpdatePlanRow writes the given date -> hours values for a row. Dates not
// yet stored are inserted.
func (s *Store) UpdatePlanRow(ctx context.Context, empID, planID int64, hours map[string]planner.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO plan_days (planned_hours, cal_date, emp, plan, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cal_date, emp, plan) DO UPDATE SET
			planned_hours = excluded.planned_hours,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	ts := now()
	for date, h := range hours {
		if !planner.ValidDate(date) {
			return fmt.Errorf("%w: %q", planner.ErrInvalidDate, date)
		}
		if _, err := stmt.ExecContext(ctx, h, date, empID, planID, ts); err != nil {
			if isForeignKeyError(err) {
				return fmt.Errorf("%w: employee %d or plan %d", ErrNotFound, empID, planID)
			}
			return fmt.Errorf("writing %s: %w", date, err)
		}
	}
	return tx.Commit()
}

// DeletePlanRow removes every day of a row.
func (s *Store) DeletePlanRow(ctx context.Context, empID, planID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, "DELETE FROM plan_days WHERE emp = ? AND plan = ?", empID, planID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: employee %d in plan %d", ErrNotFound, empID, planID)
	}
	return nil
}

// RowDetail returns the name and hourly rate of an employee planned in a
// plan. An employee without a labour grade has a zero rate.
func (s *Store) RowDetail(ctx context.Context, empID, planID int64) (planner.RowDetail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var detail planner.RowDetail
	err := s.db.QueryRowContext(ctx, `
		SELECT e.name, IFNULL(c.hourly_rate, '0')
		FROM employees e
		LEFT JOIN compensation c ON c.id = e.compensation_id
		WHERE e.id = ?
			AND EXISTS (SELECT 1 FROM plan_days p WHERE p.emp = e.id AND p.plan = ?)
	`, empID, planID).Scan(&detail.Name, &detail.HourlyRate)
	if errors.Is(err, sql.ErrNoRows) {
		return planner.RowDetail{}, fmt.Errorf("%w: employee %d in plan %d", ErrNotFound, empID, planID)
	}
	return detail, err
}

// PlanEntities returns the ids of the employees planned in a plan.
func (s *Store) PlanEntities(ctx context.Context, planID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT emp FROM plan_days WHERE plan = ? ORDER BY emp", planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// =============================================================================
// PLANS
// =============================================================================

// Plan is a stored plan header.
type Plan struct {
	ID          int64
	Name        string
	PopStart    string
	PopEnd      string
	TargetHours planner.Decimal
	TargetCost  planner.Decimal
	CreatedAt   time.Time
}

// SavePlan inserts a plan, or updates it when ID is set. Returns the id.
func (s *Store) SavePlan(ctx context.Context, p Plan) (int64, error) {
	if _, err := planner.NewPeriod(p.PopStart, p.PopEnd); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO plans (id, name, pop_start, pop_end, target_hours, target_cost, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			pop_start = excluded.pop_start,
			pop_end = excluded.pop_end,
			target_hours = excluded.target_hours,
			target_cost = excluded.target_cost
	`, nullInt64(p.ID), p.Name, p.PopStart, p.PopEnd, p.TargetHours, p.TargetCost, now())
	if err != nil {
		return 0, err
	}
	if p.ID != 0 {
		return p.ID, nil
	}
	return result.LastInsertId()
}

// GetPlan retrieves a plan by ID.
func (s *Store) GetPlan(ctx context.Context, id int64) (*Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, pop_start, pop_end, target_hours, target_cost, created_at
		FROM plans WHERE id = ?
	`, id)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: plan %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPlans returns all plans.
func (s *Store) ListPlans(ctx context.Context) ([]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, pop_start, pop_end, target_hours, target_cost, created_at
		FROM plans ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (Plan, error) {
	var p Plan
	var createdAt string
	err := row.Scan(&p.ID, &p.Name, &p.PopStart, &p.PopEnd, &p.TargetHours, &p.TargetCost, &createdAt)
	if err != nil {
		return Plan{}, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return p, nil
}

// =============================================================================
// EMPLOYEES & COMPENSATION
// =============================================================================

// Employee represents an employee record.
type Employee struct {
	ID             int64
	Name           string
	Email          string
	CompensationID int64 // 0 when no labour grade is assigned
	Schedule       planner.Schedule
	CreatedAt      time.Time
}

// SaveEmployee inserts an employee, or updates it when ID is set.
// Returns the id.
func (s *Store) SaveEmployee(ctx context.Context, emp Employee) (int64, error) {
	if emp.Schedule == "" {
		emp.Schedule = planner.Schedule540
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, email, compensation_id, schedule, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			compensation_id = excluded.compensation_id,
			schedule = excluded.schedule
	`, nullInt64(emp.ID), emp.Name, emp.Email, nullInt64(emp.CompensationID), string(emp.Schedule), now())
	if err != nil {
		if isForeignKeyError(err) {
			return 0, fmt.Errorf("%w: compensation %d", ErrNotFound, emp.CompensationID)
		}
		return 0, err
	}
	if emp.ID != 0 {
		return emp.ID, nil
	}
	return result.LastInsertId()
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id int64) (*Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, compensation_id, schedule, created_at
		FROM employees WHERE id = ?
	`, id)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: employee %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// ListEmployees returns all employees.
func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, compensation_id, schedule, created_at
		FROM employees ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func scanEmployee(row scanner) (Employee, error) {
	var emp Employee
	var comp sql.NullInt64
	var schedule, createdAt string
	if err := row.Scan(&emp.ID, &emp.Name, &emp.Email, &comp, &schedule, &createdAt); err != nil {
		return Employee{}, err
	}
	emp.CompensationID = comp.Int64
	emp.Schedule = planner.Schedule(schedule)
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return emp, nil
}

// Compensation is a labour grade and its hourly rate.
type Compensation struct {
	ID            int64
	ResourceCode  string
	Grade         string
	LaborCategory string
	HourlyRate    planner.Decimal
}

// SaveCompensation inserts a labour grade, or updates it when ID is set.
// Returns the id.
func (s *Store) SaveCompensation(ctx context.Context, c Compensation) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO compensation (id, resource_code, grade, labor_category, hourly_rate)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			resource_code = excluded.resource_code,
			grade = excluded.grade,
			labor_category = excluded.labor_category,
			hourly_rate = excluded.hourly_rate
	`, nullInt64(c.ID), c.ResourceCode, c.Grade, c.LaborCategory, c.HourlyRate)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, fmt.Errorf("resource code %q already exists: %w", c.ResourceCode, err)
		}
		return 0, err
	}
	if c.ID != 0 {
		return c.ID, nil
	}
	return result.LastInsertId()
}

// ListCompensation returns all labour grades.
func (s *Store) ListCompensation(ctx context.Context) ([]Compensation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, resource_code, grade, labor_category, hourly_rate
		FROM compensation ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Compensation
	for rows.Next() {
		var c Compensation
		if err := rows.Scan(&c.ID, &c.ResourceCode, &c.Grade, &c.LaborCategory, &c.HourlyRate); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all plan, employee and calendar data (for testing/demo).
// Labour grades are kept.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"plan_days", "plans", "employees", "calendar_hours"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func nullInt64(v int64) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
