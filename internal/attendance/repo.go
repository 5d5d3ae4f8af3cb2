package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"classattend/internal/store"
)

// Repository persists the attendance ledger.
type Repository struct {
	db *store.DB
}

// NewRepository creates a repo.
func NewRepository(db *store.DB) *Repository {
	return &Repository{db: db}
}

// ReplaceDay deletes every record for (date, className) and inserts entries,
// all in one transaction holding the per-key lock.
func (r *Repository) ReplaceDay(ctx context.Context, date, className string, entries []Entry) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := r.db.LockKey(ctx, tx, "attendance:"+date+"|"+className); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM attendance WHERE date = $1 AND class_name = $2`, date, className); err != nil {
			return fmt.Errorf("attendance: clear day: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO attendance (student_id, date, status, class_name)
			VALUES ($1, $2, $3, $4)
		`)
		if err != nil {
			return fmt.Errorf("attendance: prepare insert: %w", err)
		}
		defer stmt.Close()
		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, e.StudentID, date, string(e.Status), className); err != nil {
				return fmt.Errorf("attendance: insert student %d: %w", e.StudentID, err)
			}
		}
		return nil
	})
}

// List returns ledger rows joined with students, ordered by roll; rows whose
// student is gone come last.
func (r *Repository) List(ctx context.Context, f Filter) ([]Row, error) {
	query := `
		SELECT a.id, a.student_id, a.date, a.status, a.class_name, s.name, s.roll
		FROM attendance a
		LEFT JOIN students s ON s.id = a.student_id`
	args := []any{}
	clauses := []string{}
	if f.Date != "" {
		args = append(args, f.Date)
		clauses = append(clauses, "a.date = $"+strconv.Itoa(len(args)))
	}
	if f.Class != "" {
		args = append(args, f.Class)
		clauses = append(clauses, "a.class_name = $"+strconv.Itoa(len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY CASE WHEN s.roll IS NULL THEN 1 ELSE 0 END, s.roll, a.id"

	rows, err := r.db.Client.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("attendance: list: %w", err)
	}
	defer rows.Close()

	res := []Row{}
	for rows.Next() {
		var (
			row    Row
			status string
			name   sql.NullString
			roll   sql.NullInt64
		)
		if err := rows.Scan(&row.ID, &row.StudentID, &row.Date, &status, &row.ClassName, &name, &roll); err != nil {
			return nil, fmt.Errorf("attendance: scan row: %w", err)
		}
		row.Status = Status(status)
		if name.Valid {
			row.StudentName = &name.String
		}
		if roll.Valid {
			v := int(roll.Int64)
			row.Roll = &v
		}
		res = append(res, row)
	}
	return res, rows.Err()
}

// ClassSummary counts present and absent records per student of className in a
// single grouped query. Only records filed under the same class are counted.
func (r *Repository) ClassSummary(ctx context.Context, className string) ([]StudentSummary, error) {
	rows, err := r.db.Client.QueryContext(ctx, `
		SELECT s.id, s.name, s.roll,
			COALESCE(SUM(CASE WHEN a.status = 'present' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN a.status = 'absent' THEN 1 ELSE 0 END), 0)
		FROM students s
		LEFT JOIN attendance a ON a.student_id = s.id AND a.class_name = s.class_name
		WHERE s.class_name = $1
		GROUP BY s.id, s.name, s.roll
		ORDER BY s.roll, s.id
	`, className)
	if err != nil {
		return nil, fmt.Errorf("attendance: class summary: %w", err)
	}
	defer rows.Close()

	res := []StudentSummary{}
	for rows.Next() {
		var s StudentSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Roll, &s.Present, &s.Absent); err != nil {
			return nil, fmt.Errorf("attendance: scan summary: %w", err)
		}
		res = append(res, s)
	}
	return res, rows.Err()
}
