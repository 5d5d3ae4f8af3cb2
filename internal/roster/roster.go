// Package roster holds the class and student reference data.
package roster

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"classattend/internal/apperr"
)

// Student is a pupil enrolled in a class. ClassName references a class by name.
type Student struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Roll      int    `json:"roll"`
	ClassName string `json:"class_name"`
}

// Repository reads and writes classes and students.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListClasses returns all class names ordered by name.
func (r *Repository) ListClasses(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM classes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("roster: list classes: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// ClassExists reports whether a class with this exact name exists.
func (r *Repository) ClassExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM classes WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("roster: check class: %w", err)
	}
	return exists, nil
}

// CreateClass adds a class and returns its id.
func (r *Repository) CreateClass(ctx context.Context, name string) (int64, error) {
	var id int64
	if err := r.db.QueryRowContext(ctx, `INSERT INTO classes (name) VALUES ($1) RETURNING id`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("roster: insert class: %w", err)
	}
	return id, nil
}

// ListStudents returns students ordered by roll, optionally limited to one class.
func (r *Repository) ListStudents(ctx context.Context, className string) ([]Student, error) {
	query := `SELECT id, name, roll, class_name FROM students`
	args := []any{}
	if className != "" {
		query += ` WHERE class_name = $1`
		args = append(args, className)
	}
	query += ` ORDER BY roll, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("roster: list students: %w", err)
	}
	defer rows.Close()

	students := []Student{}
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Roll, &s.ClassName); err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// InsertStudent writes a student row and returns its id.
func (r *Repository) InsertStudent(ctx context.Context, s Student) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO students (name, roll, class_name)
		VALUES ($1, $2, $3)
		RETURNING id
	`, s.Name, s.Roll, s.ClassName).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("roster: insert student: %w", err)
	}
	return id, nil
}

// Service validates roster writes before they reach the repository.
type Service struct {
	repo *Repository
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Classes returns all class names.
func (s *Service) Classes(ctx context.Context) ([]string, error) {
	return s.repo.ListClasses(ctx)
}

// Students lists students; "" and "all" mean every class.
func (s *Service) Students(ctx context.Context, className string) ([]Student, error) {
	if className == "all" {
		className = ""
	}
	return s.repo.ListStudents(ctx, className)
}

// CreateStudent adds a student to an existing class.
func (s *Service) CreateStudent(ctx context.Context, name string, roll int, className string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: name is required", apperr.ErrBadRequest)
	}
	if roll <= 0 {
		return 0, fmt.Errorf("%w: roll must be positive", apperr.ErrBadRequest)
	}
	if err := s.RequireClass(ctx, className); err != nil {
		return 0, err
	}
	return s.repo.InsertStudent(ctx, Student{Name: name, Roll: roll, ClassName: className})
}

// RequireClass fails with a bad request unless className names an existing class.
func (s *Service) RequireClass(ctx context.Context, className string) error {
	if className == "" {
		return fmt.Errorf("%w: class_name is required", apperr.ErrBadRequest)
	}
	ok, err := s.repo.ClassExists(ctx, className)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: unknown class %q", apperr.ErrBadRequest, className)
	}
	return nil
}
