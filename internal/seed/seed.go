// Package seed loads the demo roster and accounts into an empty database.
package seed

import (
	"context"
	"fmt"

	"classattend/internal/account"
	"classattend/internal/auth"
	"classattend/internal/roster"
)

// Classes are the demo class names.
var Classes = []string{"1-A", "1-B", "2-A", "2-B"}

// Students are the demo roster entries.
var Students = []roster.Student{
	{Name: "Alice Johnson", Roll: 101, ClassName: "1-A"},
	{Name: "Bob Smith", Roll: 102, ClassName: "1-A"},
	{Name: "Carol Davis", Roll: 103, ClassName: "1-A"},
	{Name: "David Wilson", Roll: 104, ClassName: "2-A"},
	{Name: "Emma Brown", Roll: 105, ClassName: "2-A"},
	{Name: "Pruthvi", Roll: 106, ClassName: "1-B"},
	{Name: "Pratham", Roll: 107, ClassName: "1-B"},
	{Name: "Meet", Roll: 108, ClassName: "2-B"},
	{Name: "Hemali", Roll: 109, ClassName: "2-A"},
	{Name: "Kishan", Roll: 110, ClassName: "1-A"},
	{Name: "Ronit", Roll: 111, ClassName: "1-B"},
}

// DemoUser is an account created with a known plaintext password.
type DemoUser struct {
	Name               string
	Role               account.Role
	Phone              string
	RegistrationNumber string
	Password           string
}

// Users are the demo accounts, one per role.
var Users = []DemoUser{
	{Name: "Mahipalsinh", Role: account.RoleTeacher, Phone: "+911234567890", Password: "teacher123"},
	{Name: "ParentUser", Role: account.RoleParent, Phone: "+919876543210", Password: "parent123"},
	{Name: "StudentUser", Role: account.RoleStudent, RegistrationNumber: "ST123", Password: "student123"},
}

// Result counts what Demo inserted.
type Result struct {
	Skipped  bool
	Classes  int
	Students int
	Users    int
}

// Demo inserts the demo data unless the database already has classes.
// cost is the bcrypt cost for the demo passwords.
func Demo(ctx context.Context, rosterRepo *roster.Repository, users *account.Repository, cost int) (Result, error) {
	existing, err := rosterRepo.ListClasses(ctx)
	if err != nil {
		return Result{}, err
	}
	if len(existing) > 0 {
		return Result{Skipped: true}, nil
	}

	var res Result
	for _, name := range Classes {
		if _, err := rosterRepo.CreateClass(ctx, name); err != nil {
			return res, fmt.Errorf("seed: class %s: %w", name, err)
		}
		res.Classes++
	}
	for _, s := range Students {
		if _, err := rosterRepo.InsertStudent(ctx, s); err != nil {
			return res, fmt.Errorf("seed: student %s: %w", s.Name, err)
		}
		res.Students++
	}
	for _, u := range Users {
		hash, err := auth.HashPasswordCost(u.Password, cost)
		if err != nil {
			return res, err
		}
		if _, err := users.Create(ctx, account.User{
			Name:               u.Name,
			Role:               u.Role,
			Phone:              optional(u.Phone),
			RegistrationNumber: optional(u.RegistrationNumber),
			PasswordHash:       hash,
		}); err != nil {
			return res, fmt.Errorf("seed: user %s: %w", u.Name, err)
		}
		res.Users++
	}
	return res, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
